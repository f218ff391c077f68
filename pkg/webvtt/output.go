package webvtt

import (
	"strconv"
	"strings"

	"github.com/shaka-project/shaka-packager-sub006/pkg/handler"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iofile"
	"github.com/shaka-project/shaka-packager-sub006/pkg/listener"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

const webvttHeader = "WEBVTT\n\n"

// writeCue appends one cue block (optional id, timing line, payload, blank
// line) to buf, matching WebVttOutputHandler::WriteCue.
func writeCue(buf *strings.Builder, sample *media.TextSample) {
	if sample.ID != "" {
		buf.WriteString(sample.ID)
		buf.WriteString("\n")
	}
	buf.WriteString(FormatTimestamp(sample.StartMS))
	buf.WriteString(" --> ")
	buf.WriteString(FormatTimestamp(sample.EndMS))
	if sample.Settings != "" {
		buf.WriteString(" ")
		buf.WriteString(sample.Settings)
	}
	buf.WriteString("\n")
	buf.WriteString(sample.Payload)
	buf.WriteString("\n\n")
}

// OutputHandler writes a stream of text samples and segment boundaries out
// as WebVTT, either as one file per segment (segment_template mode) or as a
// single output file with tracked byte ranges. Grounded on
// webvtt_output_handler.{h,cc}'s WebVttOutputHandler/WebVttSegmentedOutputHandler
// split, folded into one handler switching on muxeroptions.MultiSegment()
// rather than subclassing.
type OutputHandler struct {
	handler.BaseHandler

	opts     *muxeroptions.MuxerOptions
	listener listener.MuxerListener

	buf            strings.Builder
	segmentIndex   int
	totalDurationMS int64

	// single-segment mode only
	out          iofile.File
	bytesWritten int64
	subsegments  []listener.Range
}

// NewOutputHandler builds a text output handler writing to the file or
// template named in opts.
func NewOutputHandler(opts *muxeroptions.MuxerOptions, l listener.MuxerListener) *OutputHandler {
	return &OutputHandler{opts: opts, listener: l}
}

func (h *OutputHandler) Process(data *handler.StreamData) status.Status {
	switch data.Kind {
	case handler.KindStreamInfo:
		return h.onStreamInfo(data.StreamInfo)
	case handler.KindTextSample:
		return h.onTextSample(data.TextSample)
	case handler.KindSegmentInfo:
		return h.onSegmentInfo(data.SegmentInfo)
	default:
		return status.New(status.InvalidArgument, "webvtt output handler only accepts stream-info, text-sample and segment-info")
	}
}

func (h *OutputHandler) onStreamInfo(info *media.StreamInfo) status.Status {
	h.listener.OnMediaStart(h.opts, info, info.TimeScale, "text")
	if !h.opts.MultiSegment() {
		f, err := iofile.Open(h.opts.OutputFileName, iofile.WriteMode)
		if err != nil {
			return status.Newf(status.FileFailure, "failed to open %s: %v", h.opts.OutputFileName, err)
		}
		h.out = f
	}
	return status.OKStatus
}

func (h *OutputHandler) onTextSample(sample *media.TextSample) status.Status {
	writeCue(&h.buf, sample)
	return status.OKStatus
}

func (h *OutputHandler) onSegmentInfo(info *media.SegmentInfo) status.Status {
	h.totalDurationMS += info.Duration

	if h.opts.MultiSegment() {
		return h.writeSegmentFile(info)
	}
	return h.appendToSingleFile(info)
}

func (h *OutputHandler) writeSegmentFile(info *media.SegmentInfo) status.Status {
	index := h.segmentIndex
	h.segmentIndex++

	filename := segmentName(h.opts.SegmentTemplate, index+1)

	f, err := iofile.Open(filename, iofile.WriteMode)
	if err != nil {
		return status.Newf(status.FileFailure, "failed to open %s: %v", filename, err)
	}
	if st := h.flushBufferTo(f); !st.Ok() {
		f.Close()
		return st
	}
	size := f.Size()
	if err := f.Close(); err != nil {
		return status.Newf(status.FileFailure, "failed to close %s: %v", filename, err)
	}

	h.listener.OnNewSegment(filename, info.StartTimestamp, info.Duration, size, index+1)
	return status.OKStatus
}

func (h *OutputHandler) appendToSingleFile(info *media.SegmentInfo) status.Status {
	start := h.bytesWritten
	if st := h.flushBufferTo(h.out); !st.Ok() {
		return st
	}
	length := h.bytesWritten - start
	h.subsegments = append(h.subsegments, listener.Range{Start: start, Length: length})
	return status.OKStatus
}

// flushBufferTo writes the header followed by the accumulated cue buffer to
// f, then clears the buffer. The header is written on every call, so in
// single-file mode each segment's byte range starts with its own header.
func (h *OutputHandler) flushBufferTo(f iofile.File) status.Status {
	n, err := f.Write([]byte(webvttHeader))
	if err != nil || n != len(webvttHeader) {
		return status.New(status.FileFailure, "failed to write webvtt header")
	}
	h.bytesWritten += int64(n)

	content := h.buf.String()
	n, err = f.Write([]byte(content))
	if err != nil || n != len(content) {
		return status.New(status.FileFailure, "failed to write webvtt content")
	}
	h.bytesWritten += int64(n)
	h.buf.Reset()
	return status.OKStatus
}

func (h *OutputHandler) OnFlushRequest(inputIndex int) status.Status {
	var ranges listener.MediaRanges
	if !h.opts.MultiSegment() {
		ranges.Subsegments = h.subsegments
		if h.out != nil {
			if err := h.out.Close(); err != nil {
				return status.Newf(status.FileFailure, "failed to close %s: %v", h.opts.OutputFileName, err)
			}
		}
	}

	durationSeconds := float64(h.totalDurationMS) / 1000.0
	h.listener.OnMediaEnd(ranges, durationSeconds)
	return status.OKStatus
}

// segmentName substitutes the literal "$Number$" placeholder in template
// with the 1-based segment index.
func segmentName(template string, number int) string {
	return strings.Replace(template, "$Number$", strconv.Itoa(number), 1)
}

var _ handler.MediaHandler = (*OutputHandler)(nil)
