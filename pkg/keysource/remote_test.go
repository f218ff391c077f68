package keysource

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedFetcher replays a fixed sequence of responses, one per call, to
// drive retry and non-retry scenarios without a real license server. Once
// the sequence is used up (the rotation loop keeps fetching later periods),
// a call blocks until ctx is canceled.
type scriptedFetcher struct {
	mu        sync.Mutex
	responses [][]byte
	calls     int
}

func (f *scriptedFetcher) Fetch(ctx context.Context, serverURL string, envelope []byte) ([]byte, error) {
	f.mu.Lock()
	i := f.calls
	f.calls++
	f.mu.Unlock()
	if i >= len(f.responses) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.responses[i], nil
}

func envelopeFor(t *testing.T, lr licenseResponse) []byte {
	t.Helper()
	licenseJSON, err := json.Marshal(lr)
	require.NoError(t, err)
	env := responseEnvelope{Response: base64.StdEncoding.EncodeToString(licenseJSON)}
	out, err := json.Marshal(env)
	require.NoError(t, err)
	return out
}

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func testSigner(t *testing.T) Signer {
	t.Helper()
	s, err := NewAESCBCSigner("test-signer", make([]byte, 16))
	require.NoError(t, err)
	return s
}

func TestRemoteKeySourceRetriesTransientThenSucceeds(t *testing.T) {
	fetcher := &scriptedFetcher{responses: [][]byte{
		envelopeFor(t, licenseResponse{Status: "INTERNAL_ERROR"}),
		envelopeFor(t, licenseResponse{Status: "OK", Tracks: []licenseTrack{
			{Type: "AUDIO", KeyID: b64("audio-key-id-16b"), Key: b64("audio-key-16byte")},
		}}),
	}}

	r := NewRemoteKeySource(RemoteKeySourceConfig{
		ServerURL: "https://license.example/license",
		ContentID: []byte("content-1"),
		Policy:    "policy",
		Signer:    testSigner(t),
		Fetcher:   fetcher,
	})
	defer r.Close()

	key, st := r.GetKey(media.TrackAudio)
	require.True(t, st.Ok())
	assert.Equal(t, []byte("audio-key-id-16b"), key.KeyID)
	assert.Equal(t, []byte("audio-key-16byte"), key.Key)
}

func TestRemoteKeySourceFailsImmediatelyOnNonTransientError(t *testing.T) {
	fetcher := &scriptedFetcher{responses: [][]byte{
		envelopeFor(t, licenseResponse{Status: "UNKNOWN_ERROR"}),
	}}

	r := NewRemoteKeySource(RemoteKeySourceConfig{
		ServerURL: "https://license.example/license",
		ContentID: []byte("content-1"),
		Policy:    "policy",
		Signer:    testSigner(t),
		Fetcher:   fetcher,
	})
	defer r.Close()

	_, st := r.GetKey(media.TrackAudio)
	require.False(t, st.Ok())
	assert.Equal(t, status.ServerError, st.Code())
	assert.Equal(t, 1, fetcher.calls, "non-transient failure must not retry")
}

func TestRemoteKeySourceCryptoPeriodRotation(t *testing.T) {
	tracks := []licenseTrack{}
	period := int64(7)
	for _, tt := range []string{"SD", "HD", "AUDIO"} {
		for i := int64(0); i < 3; i++ {
			idx := period + i
			track := licenseTrack{
				Type:              tt,
				KeyID:             b64(tt + "-key-id-16-bytes"),
				Key:               b64(tt + "-key----16-bytes"),
				CryptoPeriodIndex: &idx,
			}
			if tt == "AUDIO" && i == 0 {
				track.PSSH = []licensePSSH{{DRMType: "WIDEVINE", Data: b64("widevine-pssh-data")}}
			}
			tracks = append(tracks, track)
		}
	}
	fetcher := &scriptedFetcher{responses: [][]byte{
		envelopeFor(t, licenseResponse{Status: "OK", Tracks: tracks}),
	}}

	r := NewRemoteKeySource(RemoteKeySourceConfig{
		ServerURL:         "https://license.example/license",
		ContentID:         []byte("content-1"),
		Policy:            "policy",
		Signer:            testSigner(t),
		Fetcher:           fetcher,
		RotationEnabled:   true,
		FirstCryptoPeriod: 7,
		CryptoPeriodCount: 3,
	})
	defer r.Close()

	audio7, st := r.GetCryptoPeriodKey(7, media.TrackAudio)
	require.True(t, st.Ok())
	assert.Equal(t, []byte("AUDIO-key-id-16-bytes"), audio7.KeyID)
	require.Len(t, audio7.PSSH, 1)
	assert.Contains(t, string(audio7.PSSH[0]), "pssh")

	hd8, st := r.GetCryptoPeriodKey(8, media.TrackHD)
	require.True(t, st.Ok())
	assert.Equal(t, []byte("HD-key-id-16-bytes"), hd8.KeyID)

	sd9, st := r.GetCryptoPeriodKey(9, media.TrackSD)
	require.True(t, st.Ok())
	assert.Equal(t, []byte("SD-key-id-16-bytes"), sd9.KeyID)
}

func TestRemoteKeySourceGetKeyRejectedWhenRotationEnabled(t *testing.T) {
	r := NewRemoteKeySource(RemoteKeySourceConfig{
		ServerURL:         "https://license.example/license",
		Signer:            testSigner(t),
		Fetcher:           &scriptedFetcher{responses: [][]byte{envelopeFor(t, licenseResponse{Status: "OK"})}},
		RotationEnabled:   true,
		FirstCryptoPeriod: 0,
	})
	defer r.Close()

	_, st := r.GetKey(media.TrackAudio)
	assert.Equal(t, status.InvalidArgument, st.Code())
}
