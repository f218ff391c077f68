package webm

// Element ids are the standard Matroska/WebM EBML ids, treated as opaque
// numeric constants. Grounded on media/webm/webm_constants.h.
const (
	idEBML    uint32 = 0x1A45DFA3
	idSegment uint32 = 0x18538067

	idInfo          uint32 = 0x1549A966
	idTimecodeScale uint32 = 0x2AD7B1
	idDuration      uint32 = 0x4489

	idTracks              uint32 = 0x1654AE6B
	idTrackEntry          uint32 = 0xAE
	idTrackNumber         uint32 = 0xD7
	idTrackType           uint32 = 0x83
	idCodecID             uint32 = 0x86
	idCodecPrivate        uint32 = 0x63A2
	idLanguage            uint32 = 0x22B59C
	idAudio               uint32 = 0xE1
	idVideo               uint32 = 0xE0
	idPixelWidth        uint32 = 0xB0
	idPixelHeight       uint32 = 0xBA
	idChannels          uint32 = 0x9F
	idSamplingFrequency uint32 = 0xB5

	idContentEncodings     uint32 = 0x6D80
	idContentEncoding      uint32 = 0x6240
	idContentEncodingOrder uint32 = 0x5031
	idContentEncodingScope uint32 = 0x5032
	idContentEncodingType  uint32 = 0x5033
	idContentEncryption    uint32 = 0x5035
	idContentEncAlgo       uint32 = 0x47E1
	idContentEncKeyID      uint32 = 0x47E2

	idCluster       uint32 = 0x1F43B675
	idTimecode      uint32 = 0xE7
	idSimpleBlock   uint32 = 0xA3
	idBlockGroup    uint32 = 0xA0
	idBlock         uint32 = 0xA1
	idBlockDuration uint32 = 0x9B
)

// schema maps every id this parser understands to its wire type, for the
// generic EBML dispatcher (ebml.go). Ids not present here are skipped by
// size without a callback.
var schema = map[uint32]ElementType{
	idEBML:    TypeMaster,
	idSegment: TypeMaster,

	idInfo:          TypeMaster,
	idTimecodeScale: TypeUInt,
	idDuration:      TypeFloat,

	idTracks:       TypeMaster,
	idTrackEntry:   TypeMaster,
	idTrackNumber:  TypeUInt,
	idTrackType:    TypeUInt,
	idCodecID:      TypeString,
	idCodecPrivate: TypeBinary,
	idLanguage:     TypeString,
	idAudio:        TypeMaster,
	idVideo:        TypeMaster,
	idPixelWidth:   TypeUInt,
	idPixelHeight:  TypeUInt,
	idChannels:     TypeUInt,
	idSamplingFrequency: TypeFloat,

	idContentEncodings:     TypeMaster,
	idContentEncoding:      TypeMaster,
	idContentEncodingOrder: TypeUInt,
	idContentEncodingScope: TypeUInt,
	idContentEncodingType:  TypeUInt,
	idContentEncryption:    TypeMaster,
	idContentEncAlgo:       TypeUInt,
	idContentEncKeyID:      TypeBinary,

	idCluster:       TypeMaster,
	idTimecode:      TypeUInt,
	idSimpleBlock:   TypeBinary,
	idBlockGroup:    TypeMaster,
	idBlock:         TypeBinary,
	idBlockDuration: TypeUInt,
}

// TrackType is the Matroska TrackType enum value (not to be confused with
// media.TrackType, the stream-kind classification derived from it).
const (
	matroskaTrackTypeVideo    uint64 = 1
	matroskaTrackTypeAudio    uint64 = 2
	matroskaTrackTypeSubtitle uint64 = 0x11
	matroskaTrackTypeMetadata uint64 = 0x21
)
