package listener

import (
	"testing"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCombinedListenerFansOutToAll(t *testing.T) {
	a := NewMockMuxerListener()
	b := NewMockMuxerListener()
	combined := NewCombinedMuxerListener(a, b)

	combined.OnEncryptionStart()
	combined.OnNewSegment("seg-1.vtt", 0, 10000, 42, 1)
	combined.OnMediaEnd(MediaRanges{}, 12.5)

	for _, l := range []*MockMuxerListener{a, b} {
		assert.True(t, l.EncryptionStarted)
		require.Len(t, l.Segments, 1)
		assert.Equal(t, "seg-1.vtt", l.Segments[0].Path)
		assert.True(t, l.MediaEnded)
		assert.Equal(t, 12.5, l.FinalDurationSecs)
	}
}

func TestMockListenerRecordsMediaStart(t *testing.T) {
	m := NewMockMuxerListener()
	si := &media.StreamInfo{TrackID: 1}
	m.OnMediaStart(nil, si, 1000, "text")

	assert.Equal(t, 1, m.MediaStartCalls)
	assert.Same(t, si, m.LastStreamInfo)
	assert.Equal(t, uint64(1000), m.LastTimeScale)
	assert.Equal(t, "text", m.LastContainerType)
}
