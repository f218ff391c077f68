package media

// ProtectionScheme is the content-encryption scheme tag carried by a
// DecryptConfig.
type ProtectionScheme int

const (
	SchemeCenc ProtectionScheme = iota
	SchemeCens
	SchemeCbc1
	SchemeCbcs
)

func (s ProtectionScheme) String() string {
	switch s {
	case SchemeCenc:
		return "cenc"
	case SchemeCens:
		return "cens"
	case SchemeCbc1:
		return "cbc1"
	case SchemeCbcs:
		return "cbcs"
	default:
		return "unknown"
	}
}

// SubsampleEntry describes one (clear_bytes, cipher_bytes) run inside a
// partially encrypted sample.
type SubsampleEntry struct {
	ClearBytes  uint32
	CipherBytes uint32
}

// DecryptConfig describes how to decrypt a single MediaSample.
//
// Invariant: IV is either empty (unencrypted frame) or exactly the
// scheme-specified width; subsample bytes sum to a prefix of the sample.
type DecryptConfig struct {
	KeyID           []byte
	IV              []byte
	Subsamples      []SubsampleEntry
	Scheme          ProtectionScheme
	CryptByteBlock  uint8
	SkipByteBlock   uint8
}

// MediaSample is an opaque, reference-counted, immutable-once-constructed
// payload plus timing metadata. A sentinel end-of-stream sample has an
// empty Payload.
type MediaSample struct {
	Payload       []byte
	SideData      []byte
	DTS           int64
	PTS           int64
	Duration      int64
	IsKeyFrame    bool
	Decrypt       *DecryptConfig
}

// EndOfStreamSample builds the sentinel "end of stream" sample.
func EndOfStreamSample() *MediaSample {
	return &MediaSample{}
}

// IsEndOfStream reports whether this sample is the end-of-stream sentinel.
func (m *MediaSample) IsEndOfStream() bool {
	return len(m.Payload) == 0
}

// TextSample is a presentation cue. Invariant: EndMS > StartMS; violating
// samples are dropped upstream with a warning, not treated as fatal.
type TextSample struct {
	ID       string
	StartMS  int64
	EndMS    int64
	Settings string
	Payload  string
	Style    string // optional style annotations, serialized
}

// Valid reports whether this sample satisfies the EndMS > StartMS
// invariant.
func (t *TextSample) Valid() bool {
	return t.EndMS > t.StartMS
}

// SegmentInfo describes one emitted segment boundary, in the stream's time
// scale.
type SegmentInfo struct {
	StartTimestamp int64
	Duration       int64
	IsSubsegment   bool
	IsEncrypted    bool
	SegmentNumber  int
}

// Cue is the text pipeline's internal cue representation; it is the same
// type as TextSample, retained as an alias for readability at call sites.
type Cue = TextSample

// EncryptionKey is the key material the key source hands to a muxer on
// demand.
type EncryptionKey struct {
	KeyID []byte
	Key   []byte
	IV    []byte
	PSSH  [][]byte // one or more boxed protection-system-specific headers
}

// CueEvent is a mid-stream cue marker carried through the handler graph.
type CueEvent struct {
	TimestampMS int64
	Payload     []byte
}
