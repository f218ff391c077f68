// Package keysource implements EncryptionKeySource: the component that
// hands a muxer the content key for a track, either statically or rotated
// by crypto period from a Widevine-style license server. Grounded on
// media/base/encryption_key_source.h, fixed_encryptor_source.{h,cc}, and
// widevine_encryption_key_source.{h,cc}.
package keysource

import (
	"encoding/hex"

	"github.com/shaka-project/shaka-packager-sub006/internal/logging"
	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

var log = logging.Get("/packager/keysource")

// EncryptionKeySource is implemented by every key provider a muxer can be
// configured with.
type EncryptionKeySource interface {
	// GetKey returns the (non-rotated) key for trackType.
	GetKey(trackType media.TrackType) (*media.EncryptionKey, status.Status)
	// GetCryptoPeriodKey returns the key for trackType at the given crypto
	// period index. Only valid when rotation is enabled.
	GetCryptoPeriodKey(periodIndex int64, trackType media.TrackType) (*media.EncryptionKey, status.Status)
}

// FixedKeySource hands out the same (key_id, key, pssh, iv) tuple for every
// track type and disallows rotation. Grounded on fixed_encryptor_source.cc.
type FixedKeySource struct {
	key *media.EncryptionKey
}

// NewFixedKeySource parses hex-encoded key_id, key, iv and zero or more
// hex-encoded PSSH boxes into a static EncryptionKey tuple.
func NewFixedKeySource(keyIDHex, keyHex, ivHex string, psshHex ...string) (*FixedKeySource, error) {
	keyID, err := hex.DecodeString(keyIDHex)
	if err != nil {
		return nil, status.Newf(status.InvalidArgument, "invalid key_id hex: %v", err)
	}
	key, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, status.Newf(status.InvalidArgument, "invalid key hex: %v", err)
	}
	iv, err := hex.DecodeString(ivHex)
	if err != nil {
		return nil, status.Newf(status.InvalidArgument, "invalid iv hex: %v", err)
	}
	pssh := make([][]byte, 0, len(psshHex))
	for _, h := range psshHex {
		box, err := hex.DecodeString(h)
		if err != nil {
			return nil, status.Newf(status.InvalidArgument, "invalid pssh hex: %v", err)
		}
		pssh = append(pssh, box)
	}
	return &FixedKeySource{key: &media.EncryptionKey{KeyID: keyID, Key: key, IV: iv, PSSH: pssh}}, nil
}

func (f *FixedKeySource) GetKey(trackType media.TrackType) (*media.EncryptionKey, status.Status) {
	return f.key, status.OKStatus
}

func (f *FixedKeySource) GetCryptoPeriodKey(periodIndex int64, trackType media.TrackType) (*media.EncryptionKey, status.Status) {
	return nil, status.New(status.InvalidArgument, "fixed key source does not support crypto-period rotation")
}

var _ EncryptionKeySource = (*FixedKeySource)(nil)
var _ EncryptionKeySource = (*RemoteKeySource)(nil)
