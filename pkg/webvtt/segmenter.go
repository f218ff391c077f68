package webvtt

import (
	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/shaka-project/shaka-packager-sub006/pkg/handler"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

var log = logging.Get("/packager/webvtt")

// Segmenter groups text samples into fixed-duration segments and emits
// each segment's samples followed by a SegmentInfo as soon as the stream
// has advanced past it, keyed by a segment-number-to-samples map with a
// rolling head segment.
type Segmenter struct {
	handler.BaseHandler

	SegmentDurationMS int64

	segmentMap  map[int64][]*media.TextSample
	headSegment int64
	started     bool

	node *handler.Node
}

// NewSegmenter builds a text segmenter with the given segment duration.
func NewSegmenter(segmentDurationMS int64) *Segmenter {
	s := &Segmenter{
		SegmentDurationMS: segmentDurationMS,
		segmentMap:        map[int64][]*media.TextSample{},
	}
	s.node = handler.NewNode(s)
	return s
}

// Node exposes the handler.Node wrapper so callers can Connect downstream
// handlers.
func (s *Segmenter) Node() *handler.Node { return s.node }

func (s *Segmenter) Process(data *handler.StreamData) status.Status {
	switch data.Kind {
	case handler.KindStreamInfo:
		return s.node.DispatchStreamInfo(0, data.StreamInfo)
	case handler.KindTextSample:
		return s.processTextSample(data.TextSample)
	default:
		return status.New(status.InvalidArgument, "webvtt segmenter only accepts stream-info and text-sample")
	}
}

func (s *Segmenter) processTextSample(sample *media.TextSample) status.Status {
	if !sample.Valid() {
		log.Warn("dropping text sample with end <= start", "start", sample.StartMS, "end", sample.EndMS)
		return status.OKStatus
	}

	startSegment := sample.StartMS / s.SegmentDurationMS
	endingSegment := (sample.EndMS - 1) / s.SegmentDurationMS

	if s.started && startSegment < s.headSegment {
		log.Warn("dropping out-of-order text sample", "start_segment", startSegment, "head_segment", s.headSegment)
		return status.OKStatus
	}

	for seg := startSegment; seg <= endingSegment; seg++ {
		s.segmentMap[seg] = append(s.segmentMap[seg], sample)
	}

	newHead := startSegment
	if s.started && s.headSegment > newHead {
		newHead = s.headSegment
	}

	st := status.OKStatus
	if !s.started || newHead > s.headSegment {
		// Emit every segment strictly before the new head.
		from := int64(0)
		if s.started {
			from = s.headSegment
		}
		for seg := from; seg < newHead; seg++ {
			st = st.Update(s.emitSegment(seg))
		}
	}
	s.headSegment = newHead
	s.started = true
	return st
}

func (s *Segmenter) emitSegment(seg int64) status.Status {
	st := status.OKStatus
	for _, sample := range s.segmentMap[seg] {
		st = st.Update(s.node.DispatchTextSample(0, sample))
	}
	delete(s.segmentMap, seg)

	info := &media.SegmentInfo{
		StartTimestamp: seg * s.SegmentDurationMS,
		Duration:       s.SegmentDurationMS,
		IsSubsegment:   false,
		SegmentNumber:  int(seg) + 1,
	}
	st = st.Update(s.node.DispatchSegmentInfo(0, info))
	return st
}

// OnFlushRequest emits every remaining segment in order, even empty ones:
// the downstream writer decides whether an empty segment produces a file.
func (s *Segmenter) OnFlushRequest(inputIndex int) status.Status {
	st := status.OKStatus
	maxSeg := s.headSegment
	for seg := range s.segmentMap {
		if seg > maxSeg {
			maxSeg = seg
		}
	}
	start := int64(0)
	if s.started {
		start = s.headSegment
	}
	for seg := start; seg <= maxSeg; seg++ {
		st = st.Update(s.emitSegment(seg))
	}
	return st.Update(s.node.FlushAllDownstreams())
}

var _ handler.MediaHandler = (*Segmenter)(nil)
