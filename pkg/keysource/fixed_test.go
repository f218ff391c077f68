package keysource

import (
	"testing"

	"github.com/shaka-project/shaka-packager-sub006/pkg/media"
	"github.com/shaka-project/shaka-packager-sub006/pkg/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedKeySourceReturnsSameTupleForEveryTrack(t *testing.T) {
	fk, err := NewFixedKeySource("0102030405060708090a0b0c0d0e0f10", "100f0e0d0c0b0a090807060504030201", "0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)

	for _, tt := range []media.TrackType{media.TrackSD, media.TrackHD, media.TrackAudio} {
		key, st := fk.GetKey(tt)
		require.True(t, st.Ok())
		assert.Equal(t, byte(0x01), key.KeyID[0])
		assert.Equal(t, byte(0x10), key.Key[0])
	}
}

func TestFixedKeySourceRejectsRotation(t *testing.T) {
	fk, err := NewFixedKeySource("01", "02", "03")
	require.NoError(t, err)
	_, st := fk.GetCryptoPeriodKey(0, media.TrackSD)
	assert.False(t, st.Ok())
	assert.Equal(t, status.InvalidArgument, st.Code())
}

func TestFixedKeySourceRejectsBadHex(t *testing.T) {
	_, err := NewFixedKeySource("not-hex", "02", "03")
	assert.Error(t, err)
}
