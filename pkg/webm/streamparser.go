package webm

import (
	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/shaka-project/shaka-packager-sub006/pkg/handler"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

var log = logging.Get("/packager/webm")

// parserState is the top-level state machine stage.
type parserState int

const (
	stateWaitingForInit parserState = iota
	stateParsingClusters
	stateError
)

// StreamParser is the WebM/EBML demuxer: a MediaHandler source with one
// output stream per resolved track, in the order tracks appear in the
// Tracks element. It accepts raw bytes via Parse and emits StreamInfo and
// MediaSample/TextSample. Encrypted tracks are reported through
// StreamInfo.IsEncrypted and DefaultKeyID, and their samples carry a
// DecryptConfig; the key source given to NewStreamParser is kept but never
// queried, and no key request is made for encrypted tracks.
type StreamParser struct {
	handler.BaseHandler

	keySource interface {
		GetKey(trackType media.TrackType) (*media.EncryptionKey, status.Status)
	}

	node  *handler.Node
	ebml  *Parser
	state parserState

	tracks       []DecodedTrack
	outputIndex  map[int64]int
	streamInfos  map[int64]*media.StreamInfo
	clusterDec   *ClusterDecoder
	err          status.Status
}

// NewStreamParser builds a parser. keySource may be nil when the input is
// unencrypted.
func NewStreamParser(keySource interface {
	GetKey(trackType media.TrackType) (*media.EncryptionKey, status.Status)
}) *StreamParser {
	p := &StreamParser{
		keySource:   keySource,
		outputIndex: map[int64]int{},
		streamInfos: map[int64]*media.StreamInfo{},
	}
	p.node = handler.NewNode(p)
	p.ebml = NewParser(&topLevelClient{parser: p})
	return p
}

// Node exposes the handler.Node wrapper so callers can Connect downstream
// handlers per output track.
func (p *StreamParser) Node() *handler.Node { return p.node }

// NumOutputStreams reports how many tracks have been resolved so far;
// callers typically Connect after the first Parse call that carries the
// Tracks element.
func (p *StreamParser) NumOutputStreams() int { return len(p.tracks) }

func (p *StreamParser) ValidateOutputStreamIndex(index int) bool {
	return index >= 0 && index < len(p.tracks)
}

// Parse feeds len(buf) bytes of a WebM byte stream into the parser,
// dispatching every complete element it can. A parse failure (a
// structurally malformed container) is sticky: every subsequent call
// returns the same error.
func (p *StreamParser) Parse(buf []byte) status.Status {
	if p.state == stateError {
		return p.err
	}
	if _, err := p.ebml.Parse(buf); err != nil {
		p.err = status.New(status.ParserFailure, err.Error())
		p.state = stateError
		return p.err
	}
	return status.OKStatus
}

// Process rejects every StreamData item with InvalidArgument: a
// StreamParser is fed raw bytes through Parse and is never a StreamData
// sink.
func (p *StreamParser) Process(data *handler.StreamData) status.Status {
	return status.New(status.InvalidArgument, "webm stream parser is a byte-stream source, not a StreamData sink")
}

func (p *StreamParser) OnFlushRequest(inputIndex int) status.Status {
	return p.node.FlushAllDownstreams()
}

var _ handler.MediaHandler = (*StreamParser)(nil)

// topLevelClient walks the EBML header and the Segment element.
type topLevelClient struct {
	parser *StreamParser
}

func (t *topLevelClient) OnListStart(id uint32) (Client, bool) {
	switch id {
	case idEBML:
		return &ignoreClient{}, true
	case idSegment:
		return &segmentClient{parser: t.parser}, true
	}
	return nil, false
}

func (t *topLevelClient) OnListEnd(id uint32) bool {
	return id == idEBML || id == idSegment
}

func (t *topLevelClient) OnUInt(id uint32, val uint64) bool   { return false }
func (t *topLevelClient) OnFloat(id uint32, val float64) bool  { return false }
func (t *topLevelClient) OnString(id uint32, val string) bool  { return false }
func (t *topLevelClient) OnBinary(id uint32, data []byte) bool { return false }

// ignoreClient accepts and discards every child of an element this parser
// doesn't need the contents of (the EBML header: doc type, version, etc).
type ignoreClient struct{}

func (ignoreClient) OnListStart(id uint32) (Client, bool) { return ignoreClient{}, true }
func (ignoreClient) OnListEnd(id uint32) bool             { return true }
func (ignoreClient) OnUInt(id uint32, val uint64) bool    { return true }
func (ignoreClient) OnFloat(id uint32, val float64) bool  { return true }
func (ignoreClient) OnString(id uint32, val string) bool  { return true }
func (ignoreClient) OnBinary(id uint32, data []byte) bool { return true }

// segmentClient walks the Segment element's direct children: Info,
// Tracks, and a sequence of Clusters.
type segmentClient struct {
	parser *StreamParser

	timecodeScale int64
	duration      *float64

	currentTracks  *tracksClient
	currentCluster *clusterClient
}

func (s *segmentClient) OnListStart(id uint32) (Client, bool) {
	switch id {
	case idInfo:
		return &infoClient{segment: s}, true
	case idTracks:
		if s.parser.state != stateWaitingForInit {
			return nil, false
		}
		s.currentTracks = newTracksClient()
		return s.currentTracks, true
	case idCluster:
		if s.parser.clusterDec == nil {
			return nil, false
		}
		s.currentCluster = s.parser.clusterDec.newClusterClient()
		return s.currentCluster, true
	}
	return nil, false
}

func (s *segmentClient) OnListEnd(id uint32) bool {
	switch id {
	case idInfo:
		return true
	case idTracks:
		tracks := s.currentTracks
		s.currentTracks = nil
		if tracks.err != nil {
			log.Error("rejecting Tracks element", "error", tracks.err)
			return false
		}
		return s.parser.onTracksResolved(s, tracks.Tracks).Ok()
	case idCluster:
		cluster, err := s.currentCluster.finish()
		s.currentCluster = nil
		if err != nil {
			log.Error("dropping malformed cluster", "error", err)
			return false
		}
		return s.parser.emitCluster(cluster).Ok()
	}
	return false
}

func (s *segmentClient) OnUInt(id uint32, val uint64) bool  { return false }
func (s *segmentClient) OnFloat(id uint32, val float64) bool { return false }
func (s *segmentClient) OnString(id uint32, val string) bool { return false }
func (s *segmentClient) OnBinary(id uint32, data []byte) bool { return false }

// infoClient decodes the Info element (TimecodeScale, Duration) into its
// parent segmentClient. It emits nothing itself: StreamInfo emission
// happens when the Tracks element ends (segmentClient.OnListEnd), which
// uses the recorded TimecodeScale since Matroska writes Info before Tracks.
type infoClient struct {
	segment *segmentClient
}

func (i *infoClient) OnListStart(id uint32) (Client, bool) { return nil, false }
func (i *infoClient) OnListEnd(id uint32) bool              { return false }
func (i *infoClient) OnString(id uint32, val string) bool   { return false }
func (i *infoClient) OnBinary(id uint32, data []byte) bool  { return false }

func (i *infoClient) OnUInt(id uint32, val uint64) bool {
	if id != idTimecodeScale {
		return false
	}
	i.segment.timecodeScale = int64(val)
	return true
}

func (i *infoClient) OnFloat(id uint32, val float64) bool {
	if id != idDuration {
		return false
	}
	i.segment.duration = &val
	return true
}

// emitCluster resolves every sample in cluster to its output stream index
// and dispatches it downstream.
func (p *StreamParser) emitCluster(cluster *DecodedCluster) status.Status {
	st := status.OKStatus
	for _, sample := range cluster.Samples {
		idx, ok := p.outputIndex[sample.TrackNumber]
		if !ok {
			continue
		}
		track := p.tracks[idx]
		switch track.Kind {
		case TrackKindText:
			st = st.Update(p.node.DispatchTextSample(idx, &media.TextSample{
				StartMS: sample.TimestampMS,
				EndMS:   sample.TimestampMS + sample.DurationMS,
				Payload: string(sample.Payload),
			}))
		default:
			st = st.Update(p.node.DispatchMediaSample(idx, &media.MediaSample{
				Payload:    sample.Payload,
				DTS:        sample.TimestampMS,
				PTS:        sample.TimestampMS,
				Duration:   sample.DurationMS,
				IsKeyFrame: sample.IsKeyFrame,
				Decrypt:    sample.Decrypt,
			}))
		}
	}
	return st
}

// onTracksResolved is called by segmentClient.OnListEnd once a complete
// Tracks element has been decoded; it builds this parser's output-stream
// table and emits one StreamInfo per resolved track.
func (p *StreamParser) onTracksResolved(segment *segmentClient, decoded []DecodedTrack) status.Status {
	clusterTracks := map[int64]TrackInfo{}
	st := status.OKStatus
	sawAudio, sawVideo := false, false

	for _, t := range decoded {
		// Only one audio and one video track participate; additional
		// same-kind tracks are ignored rather than failing the parse.
		ignored := t.Kind == TrackKindIgnored
		switch t.Kind {
		case TrackKindVideo:
			ignored = ignored || sawVideo
			sawVideo = true
		case TrackKindAudio:
			ignored = ignored || sawAudio
			sawAudio = true
		}
		if ignored {
			clusterTracks[t.Number] = TrackInfo{Kind: TrackKindIgnored}
			continue
		}

		idx := len(p.tracks)
		p.tracks = append(p.tracks, t)
		p.outputIndex[t.Number] = idx
		clusterTracks[t.Number] = TrackInfo{
			Kind:         t.Kind,
			Encrypted:    t.Encrypted,
			DefaultKeyID: t.DefaultKeyID,
		}

		info := &media.StreamInfo{
			TrackID:      int(t.Number),
			CodecTag:     t.CodecID,
			TimeScale:    1000, // all timestamps emitted in milliseconds
			Language:     t.Language,
			IsEncrypted:  t.Encrypted,
			CodecPrivate: t.CodecPrivate,
			DefaultKeyID: t.DefaultKeyID,
		}
		switch t.Kind {
		case TrackKindText:
			info.Text = &media.TextInfo{Language: t.Language, Kind: t.TextKind}
		case TrackKindVideo:
			info.Video = &media.VideoInfo{Width: int(t.PixelWidth), Height: int(t.PixelHeight)}
		case TrackKindAudio:
			info.Audio = &media.AudioInfo{Channels: int(t.Channels), SampleRate: int(t.SamplingFrequency)}
		}
		p.streamInfos[t.Number] = info
		st = st.Update(p.node.DispatchStreamInfo(idx, info))
	}

	p.clusterDec = NewClusterDecoder(segment.timecodeScale, clusterTracks)
	p.state = stateParsingClusters
	return st
}
