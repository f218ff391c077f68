package webm

import (
	"fmt"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
)

// TrackKind classifies a WebM track for the purposes of cluster decoding.
type TrackKind int

const (
	TrackKindIgnored TrackKind = iota
	TrackKindAudio
	TrackKindVideo
	TrackKindText
)

// TrackInfo is everything the cluster decoder needs to know about a track,
// gathered from the Tracks element (tracks.go) before any Cluster arrives.
type TrackInfo struct {
	Kind         TrackKind
	Encrypted    bool
	DefaultKeyID []byte
}

// DecodedSample is one Block/SimpleBlock's payload, with its track
// resolved and its timestamp scaled to milliseconds.
type DecodedSample struct {
	TrackNumber int64
	TimestampMS int64
	DurationMS  int64
	Payload     []byte
	IsKeyFrame  bool
	Decrypt     *media.DecryptConfig
}

// DecodedCluster is everything a single Cluster element yields.
type DecodedCluster struct {
	TimecodeMS int64
	Samples    []DecodedSample
}

// ClusterDecoder decodes Cluster element bodies against a fixed track
// table. One decoder is used for the whole stream; Tracks must be known
// before the first Cluster.
type ClusterDecoder struct {
	TimecodeScaleNS int64
	Tracks          map[int64]TrackInfo

	lastTimecodeByTrack map[int64]int64
}

// NewClusterDecoder builds a decoder. timecodeScaleNS is the Info element's
// TimecodeScale (nanoseconds per tick); it defaults to 1,000,000 (1ms per
// tick) per the Matroska spec when the Info element omits it.
func NewClusterDecoder(timecodeScaleNS int64, tracks map[int64]TrackInfo) *ClusterDecoder {
	if timecodeScaleNS == 0 {
		timecodeScaleNS = 1_000_000
	}
	return &ClusterDecoder{
		TimecodeScaleNS:     timecodeScaleNS,
		Tracks:              tracks,
		lastTimecodeByTrack: make(map[int64]int64),
	}
}

func (d *ClusterDecoder) scaleToMS(ticks int64) int64 {
	return ticks * d.TimecodeScaleNS / 1_000_000
}

// Decode parses one Cluster element's body (the bytes between the
// Cluster id+size header and its end) and returns the samples it
// contains, via the generic EBML driver specialized by clusterClient and
// blockGroupClient below.
func (d *ClusterDecoder) Decode(clusterBody []byte) (*DecodedCluster, error) {
	cc := d.newClusterClient()
	consumed, err := parseElements(clusterBody, cc)
	if err != nil {
		return nil, err
	}
	if consumed != len(clusterBody) {
		return nil, fmt.Errorf("webm: cluster has a truncated trailing element")
	}
	return cc.finish()
}

// newClusterClient builds the Client used to decode one Cluster element,
// whether driven standalone (Decode) or as part of the top-level stream
// parser's element tree (streamparser.go).
func (d *ClusterDecoder) newClusterClient() *clusterClient {
	return &clusterClient{decoder: d, out: &DecodedCluster{}}
}

// finish validates that a Timecode was seen and returns the cluster
// decoded so far.
func (c *clusterClient) finish() (*DecodedCluster, error) {
	if !c.haveTimecode {
		return nil, fmt.Errorf("webm: cluster is missing its Timecode element")
	}
	c.out.TimecodeMS = c.decoder.scaleToMS(c.clusterTimecode)
	return c.out, nil
}

// clusterClient is the Client visiting a Cluster element's direct
// children: Timecode, SimpleBlock, BlockGroup (Position/PrevSize and any
// other unknown ids are skipped by the generic dispatcher before they
// ever reach here).
type clusterClient struct {
	decoder *ClusterDecoder
	out     *DecodedCluster

	clusterTimecode int64
	haveTimecode    bool

	currentBlockGroup *blockGroupClient
}

func (c *clusterClient) OnListStart(id uint32) (Client, bool) {
	if id != idBlockGroup {
		return nil, false
	}
	c.currentBlockGroup = &blockGroupClient{}
	return c.currentBlockGroup, true
}

func (c *clusterClient) OnListEnd(id uint32) bool {
	if id != idBlockGroup {
		return false
	}
	bg := c.currentBlockGroup
	c.currentBlockGroup = nil
	if !bg.haveBlock {
		return false
	}
	sample, err := c.decodeOneBlock(bg.blockData, bg.durationTicks)
	if err != nil {
		return false
	}
	if sample != nil {
		c.out.Samples = append(c.out.Samples, *sample)
	}
	return true
}

func (c *clusterClient) OnUInt(id uint32, val uint64) bool {
	if id != idTimecode {
		return false
	}
	c.clusterTimecode = int64(val)
	c.haveTimecode = true
	return true
}

func (c *clusterClient) OnFloat(id uint32, val float64) bool  { return false }
func (c *clusterClient) OnString(id uint32, val string) bool  { return false }

func (c *clusterClient) OnBinary(id uint32, data []byte) bool {
	if id != idSimpleBlock {
		return false
	}
	sample, err := c.decodeOneBlock(data, nil)
	if err != nil {
		return false
	}
	if sample != nil {
		c.out.Samples = append(c.out.Samples, *sample)
	}
	return true
}

// blockGroupClient collects a BlockGroup's Block and optional
// BlockDuration; the decode itself happens in clusterClient.OnListEnd
// once both are known.
type blockGroupClient struct {
	blockData     []byte
	haveBlock     bool
	durationTicks *uint64
}

func (b *blockGroupClient) OnListStart(id uint32) (Client, bool) { return nil, false }
func (b *blockGroupClient) OnListEnd(id uint32) bool             { return false }
func (b *blockGroupClient) OnFloat(id uint32, val float64) bool  { return false }
func (b *blockGroupClient) OnString(id uint32, val string) bool  { return false }

func (b *blockGroupClient) OnUInt(id uint32, val uint64) bool {
	if id != idBlockDuration {
		return false
	}
	b.durationTicks = &val
	return true
}

func (b *blockGroupClient) OnBinary(id uint32, data []byte) bool {
	if id != idBlock {
		return false
	}
	if b.haveBlock {
		return false
	}
	b.blockData = data
	b.haveBlock = true
	return true
}

// decodeOneBlock parses a SimpleBlock or Block's raw body: track number
// vint, signed 16-bit timecode, flags byte, lacing (rejected if present),
// and the payload, optionally signal-byte/IV framed when the track is
// encrypted. Returns a nil sample (no error) for tracks we don't care
// about, matching the generic dispatcher's "unknown id, skip" convention
// one level down.
func (c *clusterClient) decodeOneBlock(data []byte, durationTicks *uint64) (*DecodedSample, error) {
	trackNumber, n, ok := readVInt(data, false)
	if !ok {
		return nil, fmt.Errorf("webm: block has a truncated track number")
	}
	if trackNumber > 127 {
		return nil, fmt.Errorf("webm: block track number %d exceeds the supported range", trackNumber)
	}
	rest := data[n:]
	if len(rest) < 3 {
		return nil, fmt.Errorf("webm: block is too short for its timecode and flags")
	}
	timecode := int16(uint16(rest[0])<<8 | uint16(rest[1]))
	flags := rest[2]
	payload := rest[3:]

	if (flags>>1)&0x3 != 0 {
		return nil, fmt.Errorf("webm: laced blocks are not supported")
	}

	info, known := c.decoder.Tracks[trackNumber]
	if !known || info.Kind == TrackKindIgnored {
		return nil, nil
	}

	if info.Kind == TrackKindText && durationTicks == nil {
		return nil, fmt.Errorf("webm: text track %d block is missing its mandatory BlockDuration", trackNumber)
	}

	absoluteTicks := c.clusterTimecode + int64(timecode)
	if absoluteTicks < 0 {
		return nil, fmt.Errorf("webm: track %d block has a negative timecode", trackNumber)
	}
	last, seen := c.decoder.lastTimecodeByTrack[trackNumber]
	if seen && absoluteTicks < last {
		return nil, fmt.Errorf("webm: track %d block timecode went backwards", trackNumber)
	}
	c.decoder.lastTimecodeByTrack[trackNumber] = absoluteTicks

	var decrypt *media.DecryptConfig
	if info.Encrypted {
		if len(payload) < 1 {
			return nil, fmt.Errorf("webm: track %d encrypted block is missing its signal byte", trackNumber)
		}
		signal := payload[0]
		payload = payload[1:]
		if signal&0x01 != 0 {
			if len(payload) < 8 {
				return nil, fmt.Errorf("webm: track %d encrypted block is missing its IV", trackNumber)
			}
			iv := append([]byte(nil), payload[:8]...)
			payload = payload[8:]
			decrypt = &media.DecryptConfig{
				KeyID: info.DefaultKeyID,
				IV:    iv,
				Scheme: media.SchemeCenc,
			}
		}
	}

	sample := &DecodedSample{
		TrackNumber: trackNumber,
		TimestampMS: c.decoder.scaleToMS(absoluteTicks),
		Payload:     payload,
		Decrypt:     decrypt,
	}
	if durationTicks != nil {
		sample.DurationMS = c.decoder.scaleToMS(int64(*durationTicks))
	}

	switch info.Kind {
	case TrackKindVideo:
		sample.IsKeyFrame = isVP8Keyframe(payload)
	default:
		sample.IsKeyFrame = true
	}

	return sample, nil
}

// isVP8Keyframe reports whether payload begins with a VP8 keyframe. VP8's
// uncompressed data chunk starts with a 3-byte frame tag followed by the
// fixed start code 0x9d 0x01 0x2a.
func isVP8Keyframe(payload []byte) bool {
	return len(payload) >= 6 && payload[3] == 0x9d && payload[4] == 0x01 && payload[5] == 0x2a
}
