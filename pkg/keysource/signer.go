package keysource

import (
	"crypto"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"

	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
)

// Signer produces the request signature the license server envelope
// requires. Grounded on media/base/request_signer.{h,cc}, which hand-rolls
// both AES-CBC and RSA-PSS signing rather than delegating to a library, so
// this package follows suit with stdlib crypto.
type Signer interface {
	// Name is the "signer" field of the request envelope.
	Name() string
	// Sign returns the signature bytes over payload.
	Sign(payload []byte) ([]byte, error)
}

// AESCBCSigner signs SHA-1(payload), PKCS#7-padded to the AES block size,
// encrypted under a zero IV with the configured key. Grounded on
// AesCbcSigner in request_signer.cc.
type AESCBCSigner struct {
	name string
	key  []byte
}

// NewAESCBCSigner builds an AES-CBC signer with a 16/24/32-byte key.
func NewAESCBCSigner(name string, key []byte) (*AESCBCSigner, error) {
	if _, err := aes.NewCipher(key); err != nil {
		return nil, status.Newf(status.InvalidArgument, "invalid AES key: %v", err)
	}
	return &AESCBCSigner{name: name, key: key}, nil
}

func (s *AESCBCSigner) Name() string { return s.name }

func (s *AESCBCSigner) Sign(payload []byte) ([]byte, error) {
	block, err := aes.NewCipher(s.key)
	if err != nil {
		return nil, err
	}
	digest := sha1.Sum(payload)
	padded := pkcs7Pad(digest[:], block.BlockSize())

	iv := make([]byte, block.BlockSize())
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// RSAPSSSigner signs SHA-1(payload) with RSA-PSS. Grounded on RsaSigner in
// request_signer.cc.
type RSAPSSSigner struct {
	name string
	key  *rsa.PrivateKey
}

// NewRSAPSSSigner builds an RSA-PSS signer.
func NewRSAPSSSigner(name string, key *rsa.PrivateKey) *RSAPSSSigner {
	return &RSAPSSSigner{name: name, key: key}
}

func (s *RSAPSSSigner) Name() string { return s.name }

func (s *RSAPSSSigner) Sign(payload []byte) ([]byte, error) {
	digest := sha1.Sum(payload)
	return rsa.SignPSS(rand.Reader, s.key, crypto.SHA1, digest[:], nil)
}

var _ Signer = (*AESCBCSigner)(nil)
var _ Signer = (*RSAPSSSigner)(nil)
