package keysource

import (
	"bytes"

	"github.com/Eyevinn/mp4ff/mp4"
)

// widevineSystemID is the protection-system id the license server's pssh
// payload is boxed with.
var widevineSystemID = []byte{
	0xED, 0xEF, 0x8B, 0xA9, 0x79, 0xD6, 0x4A, 0xCE,
	0xA3, 0xC8, 0x27, 0xDC, 0xD5, 0x1D, 0x21, 0xED,
}

// boxPSSH wraps data in a standard "pssh" box carrying the Widevine system
// id, using mp4ff's box encoder rather than hand-rolling ISO-BMFF framing.
func boxPSSH(keyID, data []byte) ([]byte, error) {
	var systemID mp4.UUID
	copy(systemID[:], widevineSystemID)

	var kid mp4.UUID
	copy(kid[:], keyID)

	box := &mp4.PsshBox{
		Version: 1,
		SystemID: systemID,
		KIDs:     []mp4.UUID{kid},
		Data:     data,
	}

	var buf bytes.Buffer
	if err := box.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
