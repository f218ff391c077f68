// Package handler implements the media-handler graph: a StreamData tagged
// union flowing through a DAG of MediaHandlers. Grounded on
// packager/media/base/media_handler_test_base.h for the call shape and its
// dispatch-to-N-downstreams pattern.
package handler

import (
	"fmt"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

// StreamDataKind identifies which field of a StreamData is populated.
type StreamDataKind int

const (
	KindStreamInfo StreamDataKind = iota
	KindMediaSample
	KindTextSample
	KindSegmentInfo
	KindCueEvent
)

// StreamData is the tagged variant every handler processes one of.
type StreamData struct {
	Kind        StreamDataKind
	StreamInfo  *media.StreamInfo
	MediaSample *media.MediaSample
	TextSample  *media.TextSample
	SegmentInfo *media.SegmentInfo
	CueEvent    *media.CueEvent

	// StreamIndex identifies which input stream this item came from, for
	// handlers (like a segmenter that sees multiple inputs) that need it.
	StreamIndex int
}

// MediaHandler is implemented by every node in the graph.
type MediaHandler interface {
	// Initialize validates configuration; called once before any Process.
	Initialize() status.Status
	// Process consumes one StreamData item.
	Process(data *StreamData) status.Status
	// OnFlushRequest signals end of the logical stream on the given input
	// index.
	OnFlushRequest(inputIndex int) status.Status
	// ValidateOutputStreamIndex declares how many output streams this
	// handler accepts.
	ValidateOutputStreamIndex(index int) bool
}

// Node wraps a MediaHandler with its registered downstream handlers, one
// slice per output stream index.
type Node struct {
	Handler     MediaHandler
	Downstreams map[int][]MediaHandler
}

// NewNode wraps a handler with no downstreams registered yet.
func NewNode(h MediaHandler) *Node {
	return &Node{Handler: h, Downstreams: map[int][]MediaHandler{}}
}

// Connect registers downstream as a consumer of this node's output stream
// outputIndex.
func (n *Node) Connect(outputIndex int, downstream MediaHandler) error {
	if !n.Handler.ValidateOutputStreamIndex(outputIndex) {
		return fmt.Errorf("handler: output stream index %d rejected by %T", outputIndex, n.Handler)
	}
	n.Downstreams[outputIndex] = append(n.Downstreams[outputIndex], downstream)
	return nil
}

func (n *Node) downstreamsFor(outputIndex int) []MediaHandler {
	return n.Downstreams[outputIndex]
}

// dispatch forwards data to every downstream registered for outputIndex,
// returning the first non-OK status.
func (n *Node) dispatch(outputIndex int, data *StreamData) status.Status {
	st := status.OKStatus
	for _, d := range n.downstreamsFor(outputIndex) {
		st = st.Update(d.Process(data))
	}
	return st
}

// DispatchStreamInfo forwards a stream-info item downstream.
func (n *Node) DispatchStreamInfo(outputIndex int, si *media.StreamInfo) status.Status {
	return n.dispatch(outputIndex, &StreamData{Kind: KindStreamInfo, StreamInfo: si})
}

// DispatchMediaSample forwards a media-sample item downstream.
func (n *Node) DispatchMediaSample(outputIndex int, s *media.MediaSample) status.Status {
	return n.dispatch(outputIndex, &StreamData{Kind: KindMediaSample, MediaSample: s})
}

// DispatchTextSample forwards a text-sample item downstream.
func (n *Node) DispatchTextSample(outputIndex int, s *media.TextSample) status.Status {
	return n.dispatch(outputIndex, &StreamData{Kind: KindTextSample, TextSample: s})
}

// DispatchSegmentInfo forwards a segment-info item downstream.
func (n *Node) DispatchSegmentInfo(outputIndex int, si *media.SegmentInfo) status.Status {
	return n.dispatch(outputIndex, &StreamData{Kind: KindSegmentInfo, SegmentInfo: si})
}

// DispatchCueEvent forwards a cue-event item downstream.
func (n *Node) DispatchCueEvent(outputIndex int, ce *media.CueEvent) status.Status {
	return n.dispatch(outputIndex, &StreamData{Kind: KindCueEvent, CueEvent: ce})
}

// FlushDownstream propagates end-of-stream to every handler registered on
// outputIndex.
func (n *Node) FlushDownstream(outputIndex int) status.Status {
	st := status.OKStatus
	for _, d := range n.downstreamsFor(outputIndex) {
		st = st.Update(d.OnFlushRequest(0))
	}
	return st
}

// FlushAllDownstreams propagates end-of-stream to every registered output
// index.
func (n *Node) FlushAllDownstreams() status.Status {
	st := status.OKStatus
	for idx := range n.Downstreams {
		st = st.Update(n.FlushDownstream(idx))
	}
	return st
}

// BaseHandler provides the common no-op ValidateOutputStreamIndex/
// Initialize implementations that handlers with a single output stream
// can embed.
type BaseHandler struct {
	NumOutputStreams int
}

func (b *BaseHandler) Initialize() status.Status { return status.OKStatus }

func (b *BaseHandler) ValidateOutputStreamIndex(index int) bool {
	if b.NumOutputStreams == 0 {
		return index == 0
	}
	return index >= 0 && index < b.NumOutputStreams
}
