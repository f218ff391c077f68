package webvtt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12:00:00.000", 43_200_000},
		{"120:00:00.000", 432_000_000},
		{"12:00.000", 720_000},
	}
	for _, c := range cases {
		got, err := ParseTimestamp(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}
}

func TestParseTimestampFailures(t *testing.T) {
	for _, in := range []string{"1:00:00.000", "00:79:00.000", "garbage", "12:00:00"} {
		_, err := ParseTimestamp(in)
		assert.Error(t, err, in)
	}
}

func TestFormatTimestamp(t *testing.T) {
	assert.Equal(t, "00:00:00.123", FormatTimestamp(123))
	assert.Equal(t, "123:00:00.000", FormatTimestamp(442_800_000))
}
