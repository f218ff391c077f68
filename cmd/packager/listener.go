package main

import (
	"encoding/hex"

	"github.com/shaka-project/shaka-packager-sub006/pkg/listener"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/muxeroptions"
)

// loggingListener is the CLI's default MuxerListener: it has no manifest to
// write, so it just logs each event at info or debug level.
type loggingListener struct{}

func newLoggingListener() *loggingListener { return &loggingListener{} }

func (l *loggingListener) OnEncryptionInfoReady(isInitial bool, scheme media.ProtectionScheme, keyID, iv []byte, systemInfos []listener.SystemInfo) {
	log.Info("encryption info ready", "initial", isInitial, "scheme", scheme.String(), "key_id", hex.EncodeToString(keyID))
}

func (l *loggingListener) OnEncryptionStart() {
	log.Info("encryption started")
}

func (l *loggingListener) OnMediaStart(opts *muxeroptions.MuxerOptions, streamInfo *media.StreamInfo, timeScale uint64, containerType string) {
	log.Info("media start", "container", containerType, "time_scale", timeScale, "track_id", streamInfo.TrackID)
}

func (l *loggingListener) OnSampleDurationReady(durationTicks int64) {
	log.Debug("sample duration ready", "duration_ticks", durationTicks)
}

func (l *loggingListener) OnNewSegment(path string, startTime, duration, fileSize int64, segmentNumber int) {
	log.Info("new segment", "path", path, "start", startTime, "duration", duration, "size", fileSize, "number", segmentNumber)
}

func (l *loggingListener) OnKeyFrame(timestamp, byteOffset, size int64) {
	log.Debug("key frame", "timestamp", timestamp, "offset", byteOffset, "size", size)
}

func (l *loggingListener) OnCueEvent(timestamp int64, payload []byte) {
	log.Debug("cue event", "timestamp", timestamp)
}

func (l *loggingListener) OnMediaEnd(ranges listener.MediaRanges, durationSeconds float64) {
	log.Info("media end", "duration_seconds", durationSeconds, "subsegments", len(ranges.Subsegments))
}

var _ listener.MuxerListener = (*loggingListener)(nil)
