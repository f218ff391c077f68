package webm

import (
	"fmt"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
)

// DecodedTrack is one TrackEntry's fields, resolved into the shapes the
// rest of this module and pkg/media need.
type DecodedTrack struct {
	Number       int64
	Kind         TrackKind
	CodecID      string
	CodecPrivate []byte
	Language     string
	// TextKind is set when Kind is TrackKindText, recording which WebVTT
	// codec the track's CodecID matched.
	TextKind media.TextTrackKind

	// PixelWidth/PixelHeight are set for video tracks.
	PixelWidth, PixelHeight uint64
	// Channels/SamplingFrequency are set for audio tracks.
	Channels           uint64
	SamplingFrequency  float64

	Encrypted    bool
	DefaultKeyID []byte
}

// tracksClient decodes the Tracks master element's TrackEntry children.
// It is handed to the generic Parser by streamparser.go when it sees
// idTracks.
type tracksClient struct {
	Tracks []DecodedTrack
	err    error

	current *trackEntryClient
}

func newTracksClient() *tracksClient { return &tracksClient{} }

func (t *tracksClient) OnListStart(id uint32) (Client, bool) {
	if id != idTrackEntry {
		return nil, false
	}
	t.current = &trackEntryClient{}
	return t.current, true
}

func (t *tracksClient) OnListEnd(id uint32) bool {
	if id != idTrackEntry {
		return false
	}
	te := t.current
	t.current = nil
	track, err := te.finish()
	if err != nil {
		t.err = err
		return false
	}
	t.Tracks = append(t.Tracks, *track)
	return true
}

func (t *tracksClient) OnUInt(id uint32, val uint64) bool   { return false }
func (t *tracksClient) OnFloat(id uint32, val float64) bool  { return false }
func (t *tracksClient) OnString(id uint32, val string) bool  { return false }
func (t *tracksClient) OnBinary(id uint32, data []byte) bool { return false }

// trackEntryClient decodes one TrackEntry, including its nested Audio,
// Video, and ContentEncodings master elements.
type trackEntryClient struct {
	number          *uint64
	trackType       *uint64
	codecID         *string
	codecPrivate    []byte
	haveCodecPrivate bool
	language        string

	pixelWidth, pixelHeight     *uint64
	channels                    *uint64
	samplingFrequency           *float64

	encodings *contentEncodingsClient
}

func (te *trackEntryClient) OnListStart(id uint32) (Client, bool) {
	switch id {
	case idAudio:
		return &audioVideoClient{entry: te, isAudio: true}, true
	case idVideo:
		return &audioVideoClient{entry: te, isAudio: false}, true
	case idContentEncodings:
		te.encodings = newContentEncodingsClient()
		return te.encodings, true
	}
	return nil, false
}

func (te *trackEntryClient) OnListEnd(id uint32) bool {
	switch id {
	case idAudio, idVideo, idContentEncodings:
		return true
	}
	return false
}

func (te *trackEntryClient) OnUInt(id uint32, val uint64) bool {
	switch id {
	case idTrackNumber:
		if te.number != nil {
			return false
		}
		te.number = &val
		return true
	case idTrackType:
		if te.trackType != nil {
			return false
		}
		te.trackType = &val
		return true
	}
	return false
}

func (te *trackEntryClient) OnFloat(id uint32, val float64) bool { return false }

func (te *trackEntryClient) OnString(id uint32, val string) bool {
	switch id {
	case idCodecID:
		if te.codecID != nil {
			return false
		}
		te.codecID = &val
		return true
	case idLanguage:
		te.language = val
		return true
	}
	return false
}

func (te *trackEntryClient) OnBinary(id uint32, data []byte) bool {
	if id != idCodecPrivate {
		return false
	}
	if te.haveCodecPrivate {
		return false
	}
	te.haveCodecPrivate = true
	te.codecPrivate = append([]byte(nil), data...)
	return true
}

func (te *trackEntryClient) finish() (*DecodedTrack, error) {
	if te.number == nil {
		return nil, fmt.Errorf("webm: TrackEntry is missing TrackNumber")
	}
	if te.trackType == nil {
		return nil, fmt.Errorf("webm: TrackEntry is missing TrackType")
	}
	if te.codecID == nil {
		return nil, fmt.Errorf("webm: TrackEntry is missing CodecID")
	}

	kind, textKind, err := trackKindFor(*te.trackType, *te.codecID)
	if err != nil {
		return nil, err
	}

	track := &DecodedTrack{
		Number:       int64(*te.number),
		Kind:         kind,
		CodecID:      *te.codecID,
		CodecPrivate: te.codecPrivate,
		Language:     te.language,
		TextKind:     textKind,
	}
	if te.pixelWidth != nil {
		track.PixelWidth = *te.pixelWidth
	}
	if te.pixelHeight != nil {
		track.PixelHeight = *te.pixelHeight
	}
	if te.channels != nil {
		track.Channels = *te.channels
	}
	if te.samplingFrequency != nil {
		track.SamplingFrequency = *te.samplingFrequency
	}
	if te.encodings != nil {
		if len(te.encodings.Encodings) == 0 {
			return nil, fmt.Errorf("webm: track %d has an empty ContentEncodings", *te.number)
		}
		track.Encrypted = true
		track.DefaultKeyID = te.encodings.Encodings[0].KeyID
	}
	return track, nil
}

// trackKindFor maps a Matroska TrackType plus its CodecID to the kind this
// module cares about, plus the WebVTT kind when applicable. The CodecID is
// consulted only for subtitle tracks: video and audio tracks are accepted
// whatever their CodecID. Subtitle tracks with a CodecID other than the four
// D_WEBVTT ids, and metadata tracks, are ignored rather than rejected, so an
// unrelated track in a multiplexed file doesn't fail the whole parse.
func trackKindFor(trackType uint64, codecID string) (TrackKind, media.TextTrackKind, error) {
	switch trackType {
	case matroskaTrackTypeVideo:
		return TrackKindVideo, 0, nil
	case matroskaTrackTypeAudio:
		return TrackKindAudio, 0, nil
	case matroskaTrackTypeSubtitle:
		switch codecID {
		case "D_WEBVTT/SUBTITLES":
			return TrackKindText, media.TextKindSubtitles, nil
		case "D_WEBVTT/CAPTIONS":
			return TrackKindText, media.TextKindCaptions, nil
		case "D_WEBVTT/DESCRIPTIONS":
			return TrackKindText, media.TextKindDescriptions, nil
		case "D_WEBVTT/METADATA":
			return TrackKindText, media.TextKindMetadata, nil
		}
		return TrackKindIgnored, 0, nil
	case matroskaTrackTypeMetadata:
		return TrackKindIgnored, 0, nil
	default:
		return TrackKindIgnored, 0, nil
	}
}

// audioVideoClient decodes an Audio or Video master element nested inside
// a TrackEntry, writing straight back into the owning trackEntryClient.
type audioVideoClient struct {
	entry   *trackEntryClient
	isAudio bool
}

func (a *audioVideoClient) OnListStart(id uint32) (Client, bool) { return nil, false }
func (a *audioVideoClient) OnListEnd(id uint32) bool             { return false }
func (a *audioVideoClient) OnString(id uint32, val string) bool  { return false }
func (a *audioVideoClient) OnBinary(id uint32, data []byte) bool { return false }

func (a *audioVideoClient) OnUInt(id uint32, val uint64) bool {
	switch id {
	case idPixelWidth:
		a.entry.pixelWidth = &val
		return true
	case idPixelHeight:
		a.entry.pixelHeight = &val
		return true
	case idChannels:
		a.entry.channels = &val
		return true
	}
	return false
}

func (a *audioVideoClient) OnFloat(id uint32, val float64) bool {
	if id == idSamplingFrequency {
		a.entry.samplingFrequency = &val
		return true
	}
	return false
}
