// Package muxeroptions defines the flat options struct the CLI collaborator
// builds and passes to a muxer pipeline: flat, JSON-tagged, omitempty fields.
package muxeroptions

import "fmt"

// MuxerOptions configures a single muxer pipeline instance.
type MuxerOptions struct {
	OutputFileName            string  `json:"output_file_name,omitempty"`
	SegmentTemplate            string  `json:"segment_template,omitempty"` // must contain literal "$Number$"
	SegmentDurationMS          int64   `json:"segment_duration,omitempty"`
	FragmentDurationMS         int64   `json:"fragment_duration,omitempty"`
	SegmentSAPAligned          bool    `json:"segment_sap_aligned,omitempty"`
	FragmentSAPAligned         bool    `json:"fragment_sap_aligned,omitempty"`
	NormalizePresentationTS    bool    `json:"normalize_presentation_timestamp,omitempty"`
	NumSubsegmentsPerSidx      int     `json:"num_subsegments_per_sidx,omitempty"`
	TempDir                    string  `json:"temp_dir,omitempty"`
	Bandwidth                  int64   `json:"bandwidth,omitempty"`
}

// Validate enforces "exactly one of OutputFileName and SegmentTemplate must
// be non-empty" and that a non-empty template carries the "$Number$"
// placeholder.
func (o *MuxerOptions) Validate() error {
	hasSingle := o.OutputFileName != ""
	hasTemplate := o.SegmentTemplate != ""
	if hasSingle == hasTemplate {
		return fmt.Errorf("muxeroptions: exactly one of OutputFileName or SegmentTemplate must be set")
	}
	if hasTemplate && !containsNumberPlaceholder(o.SegmentTemplate) {
		return fmt.Errorf("muxeroptions: segment_template %q is missing the $Number$ placeholder", o.SegmentTemplate)
	}
	return nil
}

// MultiSegment reports whether this configuration writes one file per
// segment (vs. a single output file).
func (o *MuxerOptions) MultiSegment() bool {
	return o.SegmentTemplate != ""
}

const numberPlaceholder = "$Number$"

func containsNumberPlaceholder(template string) bool {
	for i := 0; i+len(numberPlaceholder) <= len(template); i++ {
		if template[i:i+len(numberPlaceholder)] == numberPlaceholder {
			return true
		}
	}
	return false
}
