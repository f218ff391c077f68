package muxeroptions

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateExactlyOneOutputTarget(t *testing.T) {
	assert.Error(t, (&MuxerOptions{}).Validate())
	assert.Error(t, (&MuxerOptions{OutputFileName: "a", SegmentTemplate: "b-$Number$.vtt"}).Validate())
	assert.NoError(t, (&MuxerOptions{OutputFileName: "single.vtt"}).Validate())
	assert.NoError(t, (&MuxerOptions{SegmentTemplate: "out-$Number$.vtt"}).Validate())
}

func TestValidateRequiresPlaceholder(t *testing.T) {
	assert.Error(t, (&MuxerOptions{SegmentTemplate: "out.vtt"}).Validate())
}

func TestMultiSegment(t *testing.T) {
	assert.True(t, (&MuxerOptions{SegmentTemplate: "out-$Number$.vtt"}).MultiSegment())
	assert.False(t, (&MuxerOptions{OutputFileName: "single.vtt"}).MultiSegment())
}
