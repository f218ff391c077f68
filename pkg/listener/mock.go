package listener

import (
	"sync"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
)

// EncryptionInfoCall records one OnEncryptionInfoReady invocation.
type EncryptionInfoCall struct {
	IsInitial   bool
	Scheme      media.ProtectionScheme
	KeyID       []byte
	IV          []byte
	SystemInfos []SystemInfo
}

// SegmentCall records one OnNewSegment invocation.
type SegmentCall struct {
	Path          string
	StartTime     int64
	Duration      int64
	FileSize      int64
	SegmentNumber int
}

// MockMuxerListener records every call for test assertions. Grounded on
// packager/media/event/mock_muxer_listener.h.
type MockMuxerListener struct {
	mu sync.Mutex

	EncryptionInfoCalls []EncryptionInfoCall
	EncryptionStarted   bool
	MediaStartCalls     int
	LastStreamInfo      *media.StreamInfo
	LastTimeScale       uint64
	LastContainerType   string
	SampleDurations     []int64
	Segments            []SegmentCall
	KeyFrames           []struct{ Timestamp, ByteOffset, Size int64 }
	CueEvents           []media.CueEvent
	MediaEnded          bool
	FinalRanges         MediaRanges
	FinalDurationSecs   float64
}

func NewMockMuxerListener() *MockMuxerListener { return &MockMuxerListener{} }

func (m *MockMuxerListener) OnEncryptionInfoReady(isInitial bool, scheme media.ProtectionScheme, keyID, iv []byte, systemInfos []SystemInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncryptionInfoCalls = append(m.EncryptionInfoCalls, EncryptionInfoCall{isInitial, scheme, keyID, iv, systemInfos})
}

func (m *MockMuxerListener) OnEncryptionStart() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EncryptionStarted = true
}

func (m *MockMuxerListener) OnMediaStart(opts *muxeroptions.MuxerOptions, streamInfo *media.StreamInfo, timeScale uint64, containerType string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MediaStartCalls++
	m.LastStreamInfo = streamInfo
	m.LastTimeScale = timeScale
	m.LastContainerType = containerType
}

func (m *MockMuxerListener) OnSampleDurationReady(durationTicks int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SampleDurations = append(m.SampleDurations, durationTicks)
}

func (m *MockMuxerListener) OnNewSegment(path string, startTime, duration, fileSize int64, segmentNumber int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Segments = append(m.Segments, SegmentCall{path, startTime, duration, fileSize, segmentNumber})
}

func (m *MockMuxerListener) OnKeyFrame(timestamp, byteOffset, size int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.KeyFrames = append(m.KeyFrames, struct{ Timestamp, ByteOffset, Size int64 }{timestamp, byteOffset, size})
}

func (m *MockMuxerListener) OnCueEvent(timestamp int64, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CueEvents = append(m.CueEvents, media.CueEvent{TimestampMS: timestamp, Payload: payload})
}

func (m *MockMuxerListener) OnMediaEnd(ranges MediaRanges, durationSeconds float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MediaEnded = true
	m.FinalRanges = ranges
	m.FinalDurationSecs = durationSeconds
}

var _ MuxerListener = (*MockMuxerListener)(nil)
