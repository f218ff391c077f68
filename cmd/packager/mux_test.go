package main

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"

	"github.com/shaka-project/shaka-packager-sub006/pkg/keysource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePEMKey(t *testing.T, key *rsa.PrivateKey) string {
	t.Helper()
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	block := &pem.Block{Type: "PRIVATE KEY", Bytes: der}
	path := filepath.Join(t.TempDir(), "signer.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))
	return path
}

func TestBuildSignerAESUsesHexSecret(t *testing.T) {
	f := &muxFlags{signerName: "aes-signer", signerSecret: "00112233445566778899aabbccddeeff"}
	signer, err := buildSigner(f)
	require.NoError(t, err)
	assert.Equal(t, "aes-signer", signer.Name())
}

func TestBuildSignerRSALoadsPEMKeyFile(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	path := writePEMKey(t, key)

	f := &muxFlags{signerName: "rsa-signer", signerSecret: path, rsaSigning: true}
	signer, err := buildSigner(f)
	require.NoError(t, err)
	assert.Equal(t, "rsa-signer", signer.Name())

	sig, err := signer.Sign([]byte("payload"))
	require.NoError(t, err)
	assert.NotEmpty(t, sig)
}

func TestBuildSignerRSARejectsMissingFile(t *testing.T) {
	f := &muxFlags{signerName: "rsa-signer", signerSecret: "/nonexistent/path.pem", rsaSigning: true}
	_, err := buildSigner(f)
	assert.Error(t, err)
}

func TestLoadRSAPrivateKeyRejectsNonPEMContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "not-a-key.pem")
	require.NoError(t, os.WriteFile(path, []byte("not pem data"), 0o600))
	_, err := loadRSAPrivateKey(path)
	assert.Error(t, err)
}

func TestBuildKeySourcePrefersLicenseServerOverFixedKey(t *testing.T) {
	f := &muxFlags{
		licenseServer: "https://license.example.com",
		contentID:     "content-1",
		signerName:    "signer",
		signerSecret:  "00112233445566778899aabbccddeeff",
		keyID:         "00000000000000000000000000000000",
		key:           "11111111111111111111111111111111",
	}
	src, err := buildKeySource(f)
	require.NoError(t, err)
	assert.NotNil(t, src)
	assert.IsType(t, &keysource.RemoteKeySource{}, src)
}

func TestBuildKeySourceReturnsNilWhenUnconfigured(t *testing.T) {
	src, err := buildKeySource(&muxFlags{})
	require.NoError(t, err)
	assert.Nil(t, src)
}
