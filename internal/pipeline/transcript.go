package pipeline

import (
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/staging"
)

// Transcript is the aggregate outcome of a job. It is derived and never persisted.
type Transcript struct {
	RunID string
	// Text joins successful unit texts in ordinal order with single spaces.
	Text    string
	Failed  int
	Total   int
	Results []audio.Result
	Units   []audio.Unit
	// Converted is true when the input went through the media converter.
	Converted bool
	Cleanup   staging.CleanupReport
	Elapsed   time.Duration
}

// Succeeded returns the number of units transcribed successfully.
func (t Transcript) Succeeded() int {
	return t.Total - t.Failed
}

// Partial reports whether some, but not all, units failed.
func (t Transcript) Partial() bool {
	return t.Failed > 0 && t.Failed < t.Total
}
