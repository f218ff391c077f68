// Package media holds the data model shared by the parser core, the
// key source, and the handler graph: StreamInfo, MediaSample, TextSample,
// DecryptConfig, SegmentInfo, Cue and EncryptionKey. Struct layout is
// flat and JSON-tagged with omitempty, with pointer sub-structs for
// kind-specific fields.
package media

// TrackType distinguishes the three track kinds exposed by the key source
// and stream parser.
type TrackType int

const (
	TrackUnknown TrackType = iota
	TrackSD
	TrackHD
	TrackAudio
)

func (t TrackType) String() string {
	switch t {
	case TrackSD:
		return "SD"
	case TrackHD:
		return "HD"
	case TrackAudio:
		return "AUDIO"
	default:
		return "UNKNOWN"
	}
}

// TextTrackKind is the kind of a text track.
type TextTrackKind int

const (
	TextKindSubtitles TextTrackKind = iota
	TextKindCaptions
	TextKindDescriptions
	TextKindMetadata
)

// AudioInfo carries audio-specific stream details.
type AudioInfo struct {
	Channels     int    `json:"channels,omitempty"`
	SampleRate   int    `json:"sample_rate,omitempty"`
	SampleFormat string `json:"sample_format,omitempty"`
}

// VideoInfo carries video-specific stream details.
type VideoInfo struct {
	Width             int    `json:"width,omitempty"`
	Height            int    `json:"height,omitempty"`
	PixelAspectWidth  int    `json:"pixel_aspect_width,omitempty"`
	PixelAspectHeight int    `json:"pixel_aspect_height,omitempty"`
	CodedWidth        int    `json:"coded_width,omitempty"`
	CodedHeight       int    `json:"coded_height,omitempty"`
	VisibleWidth      int    `json:"visible_width,omitempty"`
	VisibleHeight     int    `json:"visible_height,omitempty"`
}

// TextInfo carries text-track-specific stream details, including the
// serialized STYLE/REGION config concatenation.
type TextInfo struct {
	Width        int           `json:"width,omitempty"`
	Height       int           `json:"height,omitempty"`
	Language     string        `json:"language,omitempty"`
	Kind         TextTrackKind `json:"kind,omitempty"`
	StyleRegions string        `json:"style_regions,omitempty"`
}

// StreamInfo is the immutable description of a single stream, created by a
// parser and owned by downstream handlers.
type StreamInfo struct {
	TrackID         int       `json:"track_id"`
	CodecTag        string    `json:"codec_tag,omitempty"`
	TimeScale       uint64    `json:"time_scale"`
	Duration        *uint64   `json:"duration,omitempty"` // nil == unknown
	Language        string    `json:"language,omitempty"` // empty for video
	IsEncrypted     bool      `json:"is_encrypted,omitempty"`
	CodecPrivate    []byte    `json:"-"`
	Audio           *AudioInfo `json:"audio,omitempty"`
	Video           *VideoInfo `json:"video,omitempty"`
	Text            *TextInfo  `json:"text,omitempty"`
	DefaultKeyID    []byte    `json:"-"`
}

// IsAudio, IsVideo and IsText report the stream's kind based on which
// kind-specific sub-struct is populated.
func (s *StreamInfo) IsAudio() bool { return s.Audio != nil }
func (s *StreamInfo) IsVideo() bool { return s.Video != nil }
func (s *StreamInfo) IsText() bool  { return s.Text != nil }
