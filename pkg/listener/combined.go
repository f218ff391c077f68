package listener

import (
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
)

// CombinedMuxerListener fans one stream's events out to N listeners, e.g.
// a real manifest listener plus a test-recording mock. Grounded on
// packager/media/event/combined_muxer_listener.{h,cc}.
type CombinedMuxerListener struct {
	listeners []MuxerListener
}

// NewCombinedMuxerListener builds a fan-out over the given listeners.
func NewCombinedMuxerListener(listeners ...MuxerListener) *CombinedMuxerListener {
	return &CombinedMuxerListener{listeners: listeners}
}

// AddListener registers an additional downstream listener.
func (c *CombinedMuxerListener) AddListener(l MuxerListener) {
	c.listeners = append(c.listeners, l)
}

func (c *CombinedMuxerListener) OnEncryptionInfoReady(isInitial bool, scheme media.ProtectionScheme, keyID, iv []byte, systemInfos []SystemInfo) {
	for _, l := range c.listeners {
		l.OnEncryptionInfoReady(isInitial, scheme, keyID, iv, systemInfos)
	}
}

func (c *CombinedMuxerListener) OnEncryptionStart() {
	for _, l := range c.listeners {
		l.OnEncryptionStart()
	}
}

func (c *CombinedMuxerListener) OnMediaStart(opts *muxeroptions.MuxerOptions, streamInfo *media.StreamInfo, timeScale uint64, containerType string) {
	for _, l := range c.listeners {
		l.OnMediaStart(opts, streamInfo, timeScale, containerType)
	}
}

func (c *CombinedMuxerListener) OnSampleDurationReady(durationTicks int64) {
	for _, l := range c.listeners {
		l.OnSampleDurationReady(durationTicks)
	}
}

func (c *CombinedMuxerListener) OnNewSegment(path string, startTime, duration, fileSize int64, segmentNumber int) {
	for _, l := range c.listeners {
		l.OnNewSegment(path, startTime, duration, fileSize, segmentNumber)
	}
}

func (c *CombinedMuxerListener) OnKeyFrame(timestamp, byteOffset, size int64) {
	for _, l := range c.listeners {
		l.OnKeyFrame(timestamp, byteOffset, size)
	}
}

func (c *CombinedMuxerListener) OnCueEvent(timestamp int64, payload []byte) {
	for _, l := range c.listeners {
		l.OnCueEvent(timestamp, payload)
	}
}

func (c *CombinedMuxerListener) OnMediaEnd(ranges MediaRanges, durationSeconds float64) {
	for _, l := range c.listeners {
		l.OnMediaEnd(ranges, durationSeconds)
	}
}

var _ MuxerListener = (*CombinedMuxerListener)(nil)
