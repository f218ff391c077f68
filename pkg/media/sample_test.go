package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEndOfStreamSample(t *testing.T) {
	eos := EndOfStreamSample()
	assert.True(t, eos.IsEndOfStream())

	normal := &MediaSample{Payload: []byte{1}}
	assert.False(t, normal.IsEndOfStream())
}

func TestTextSampleValid(t *testing.T) {
	assert.True(t, (&TextSample{StartMS: 1000, EndMS: 2000}).Valid())
	assert.False(t, (&TextSample{StartMS: 1000, EndMS: 1000}).Valid())
	assert.False(t, (&TextSample{StartMS: 2000, EndMS: 1000}).Valid())
}

func TestStreamInfoKind(t *testing.T) {
	s := &StreamInfo{Video: &VideoInfo{Width: 1920, Height: 1080}}
	assert.True(t, s.IsVideo())
	assert.False(t, s.IsAudio())
	assert.False(t, s.IsText())
}
