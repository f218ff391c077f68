package webvtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParserSingleCue(t *testing.T) {
	p := NewParser()
	rec := &recorder{}
	require.NoError(t, p.Node().Connect(0, rec))

	st := p.Parse("WEBVTT\n\n00:01:00.000 --> 01:00:00.000\nsubtitle\n")
	require.True(t, st.Ok())

	require.Len(t, rec.samples, 1)
	assert.Equal(t, "", rec.samples[0].ID)
	assert.Equal(t, int64(60000), rec.samples[0].StartMS)
	assert.Equal(t, int64(3600000), rec.samples[0].EndMS)
	assert.Equal(t, "subtitle", rec.samples[0].Payload)
}

func TestParserCueWithID(t *testing.T) {
	p := NewParser()
	rec := &recorder{}
	require.NoError(t, p.Node().Connect(0, rec))

	st := p.Parse("WEBVTT\n\nid\n00:01:00.000 --> 01:00:00.000\nsubtitle\n")
	require.True(t, st.Ok())

	require.Len(t, rec.samples, 1)
	assert.Equal(t, "id", rec.samples[0].ID)
}

func TestParserCuesWithStyleAndRegion(t *testing.T) {
	p := NewParser()
	rec := &recorder{}
	require.NoError(t, p.Node().Connect(0, rec))

	input := "WEBVTT\n\nSTYLE\n::cue { color: lime }\n\nREGION\nid:scroll\nscrol:up\n\n00:00:01.000 --> 00:00:02.000\nhello\n"
	st := p.Parse(input)
	require.True(t, st.Ok())

	require.Len(t, rec.samples, 1)
	assert.Equal(t, "hello", rec.samples[0].Payload)

	require.NotNil(t, rec.lastStreamInfo)
	require.NotNil(t, rec.lastStreamInfo.Text)
	assert.Contains(t, rec.lastStreamInfo.Text.StyleRegions, "::cue { color: lime }")
	assert.Contains(t, rec.lastStreamInfo.Text.StyleRegions, "id:scroll")
}

func TestParserRejectsMissingHeader(t *testing.T) {
	p := NewParser()
	rec := &recorder{}
	require.NoError(t, p.Node().Connect(0, rec))

	st := p.Parse("00:00:01.000 --> 00:00:02.000\nhello\n")
	assert.False(t, st.Ok())
}

func TestParserDropsMalformedCueBlockButKeepsOthers(t *testing.T) {
	p := NewParser()
	rec := &recorder{}
	require.NoError(t, p.Node().Connect(0, rec))

	input := "WEBVTT\n\nnot a cue at all\n\n00:00:01.000 --> 00:00:02.000\nhello\n"
	st := p.Parse(input)
	require.True(t, st.Ok())
	require.Len(t, rec.samples, 1)
	assert.Equal(t, "hello", rec.samples[0].Payload)
}
