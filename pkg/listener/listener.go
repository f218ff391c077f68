// Package listener defines the MuxerListener interface — the
// cross-cutting sink for encryption, segment, and stream-end metadata
// consumed by manifest generators and test mocks. Grounded
// on packager/media/event/{combined_muxer_listener,mock_muxer_listener}.{h,cc}.
package listener

import (
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
)

// SystemInfo pairs a DRM system id with its boxed PSSH data, passed to
// OnEncryptionInfoReady.
type SystemInfo struct {
	SystemID []byte
	PSSHBox  []byte
}

// Range is a half-open byte range [Start, Start+Length) within an output
// file.
type Range struct {
	Start  int64
	Length int64
}

// MediaRanges bundles the optional init/index/subsegment byte ranges
// reported at end of stream. WebVTT has no init or index.
type MediaRanges struct {
	Init        *Range
	Index       *Range
	Subsegments []Range
}

// MuxerListener is the sink every segmented-output pipeline reports to.
// Implementations never fail the producer: no method returns an error: any
// logging is the listener's own concern.
type MuxerListener interface {
	OnEncryptionInfoReady(isInitial bool, scheme media.ProtectionScheme, keyID, iv []byte, systemInfos []SystemInfo)
	OnEncryptionStart()
	OnMediaStart(opts *muxeroptions.MuxerOptions, streamInfo *media.StreamInfo, timeScale uint64, containerType string)
	OnSampleDurationReady(durationTicks int64)
	OnNewSegment(path string, startTime, duration, fileSize int64, segmentNumber int)
	OnKeyFrame(timestamp, byteOffset, size int64)
	OnCueEvent(timestamp int64, payload []byte)
	OnMediaEnd(ranges MediaRanges, durationSeconds float64)
}
