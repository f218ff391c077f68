package webvtt

import (
	"testing"

	"github.com/shaka-project/shaka-packager-sub006/pkg/handler"
	"github.com/shaka-project/shaka-packager-sub006/pkg/iofile"
	"github.com/shaka-project/shaka-packager-sub006/pkg/listener"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readMemoryFile(t *testing.T, name string) string {
	t.Helper()
	f, err := iofile.Open(name, iofile.ReadMode)
	require.NoError(t, err)
	defer f.Close()
	buf := make([]byte, f.Size())
	n, err := f.Read(buf)
	require.NoError(t, err)
	return string(buf[:n])
}

func TestOutputHandlerMultiSegment(t *testing.T) {
	iofile.ClearMemoryFiles()
	t.Cleanup(iofile.ClearMemoryFiles)

	opts := &muxeroptions.MuxerOptions{SegmentTemplate: "memory://out-$Number$.vtt"}
	l := listener.NewMockMuxerListener()
	h := NewOutputHandler(opts, l)

	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindStreamInfo, StreamInfo: &media.StreamInfo{TimeScale: 1000}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindTextSample, TextSample: &media.TextSample{
		StartMS: 60_000, EndMS: 3_600_000, Payload: "subtitle",
	}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindSegmentInfo, SegmentInfo: &media.SegmentInfo{
		StartTimestamp: 0, Duration: 10_000, SegmentNumber: 1,
	}}).Ok())
	require.True(t, h.OnFlushRequest(0).Ok())

	content := readMemoryFile(t, "memory://out-1.vtt")
	assert.Equal(t, "WEBVTT\n\n00:01:00.000 --> 01:00:00.000\nsubtitle\n\n", content)

	require.Len(t, l.Segments, 1)
	assert.Equal(t, "memory://out-1.vtt", l.Segments[0].Path)
	assert.Equal(t, 1, l.Segments[0].SegmentNumber)
	assert.True(t, l.MediaEnded)
	assert.Equal(t, 10.0, l.FinalDurationSecs)
}

func TestOutputHandlerEmptySegmentStillWritesHeader(t *testing.T) {
	iofile.ClearMemoryFiles()
	t.Cleanup(iofile.ClearMemoryFiles)

	opts := &muxeroptions.MuxerOptions{SegmentTemplate: "memory://empty-$Number$.vtt"}
	l := listener.NewMockMuxerListener()
	h := NewOutputHandler(opts, l)

	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindStreamInfo, StreamInfo: &media.StreamInfo{TimeScale: 1000}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindSegmentInfo, SegmentInfo: &media.SegmentInfo{
		StartTimestamp: 0, Duration: 10_000, SegmentNumber: 1,
	}}).Ok())

	content := readMemoryFile(t, "memory://empty-1.vtt")
	assert.Equal(t, "WEBVTT\n\n", content)
}

func TestOutputHandlerSingleSegmentTracksByteRanges(t *testing.T) {
	iofile.ClearMemoryFiles()
	t.Cleanup(iofile.ClearMemoryFiles)

	opts := &muxeroptions.MuxerOptions{OutputFileName: "memory://single.vtt"}
	l := listener.NewMockMuxerListener()
	h := NewOutputHandler(opts, l)

	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindStreamInfo, StreamInfo: &media.StreamInfo{TimeScale: 1000}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindTextSample, TextSample: &media.TextSample{
		StartMS: 5_000, EndMS: 6_000, Payload: "hello",
	}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindSegmentInfo, SegmentInfo: &media.SegmentInfo{
		StartTimestamp: 0, Duration: 10_000, SegmentNumber: 1,
	}}).Ok())
	require.True(t, h.Process(&handler.StreamData{Kind: handler.KindSegmentInfo, SegmentInfo: &media.SegmentInfo{
		StartTimestamp: 10_000, Duration: 10_000, SegmentNumber: 2,
	}}).Ok())
	require.True(t, h.OnFlushRequest(0).Ok())

	require.Empty(t, l.Segments, "single-segment mode never calls OnNewSegment")
	require.True(t, l.MediaEnded)
	require.Len(t, l.FinalRanges.Subsegments, 2)
	assert.Equal(t, int64(0), l.FinalRanges.Subsegments[0].Start)
	assert.Greater(t, l.FinalRanges.Subsegments[0].Length, int64(0))
	assert.Equal(t, l.FinalRanges.Subsegments[0].Start+l.FinalRanges.Subsegments[0].Length, l.FinalRanges.Subsegments[1].Start)
	assert.Equal(t, len(webvttHeader), int(l.FinalRanges.Subsegments[1].Length), "second segment has no cues, only the header")
}

func TestOutputHandlerRejectsCueEvent(t *testing.T) {
	opts := &muxeroptions.MuxerOptions{OutputFileName: "memory://rejects.vtt"}
	h := NewOutputHandler(opts, listener.NewMockMuxerListener())
	st := h.Process(&handler.StreamData{Kind: handler.KindCueEvent, CueEvent: &media.CueEvent{}})
	assert.False(t, st.Ok())
}
