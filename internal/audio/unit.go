package audio

import (
	"fmt"
	"time"
)

// Unit is a single file submitted to the transcription backend.
type Unit struct {
	Path    string
	Size    int64
	Ordinal int
	// Temporary marks files created by this pipeline (chunks and the
	// converted intermediate). Only temporary units are ever deleted.
	Temporary bool
	Start     time.Duration
	Duration  time.Duration
}

// Label returns a short human-readable identifier for logs and tables.
func (u Unit) Label() string {
	return fmt.Sprintf("#%d", u.Ordinal)
}

// Result is the outcome of transcribing one Unit. Err is non-nil exactly
// when OK is false.
type Result struct {
	Ordinal  int
	Text     string
	OK       bool
	Err      error
	Attempts int
	Elapsed  time.Duration
}

// Succeeded builds a successful result for ordinal.
func Succeeded(ordinal int, text string) Result {
	return Result{Ordinal: ordinal, Text: text, OK: true}
}

// Failed builds a failed result for ordinal. A nil err is replaced so the
// OK/Err invariant always holds.
func Failed(ordinal int, err error) Result {
	if err == nil {
		err = fmt.Errorf("unit %d: transcription failed", ordinal)
	}
	return Result{Ordinal: ordinal, Err: err}
}

// ErrorMessage returns the failure message or an empty string on success.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// TotalSize sums the byte sizes of units.
func TotalSize(units []Unit) int64 {
	var total int64
	for _, unit := range units {
		total += unit.Size
	}
	return total
}

// Temporaries returns the subset of units created by the pipeline.
func Temporaries(units []Unit) []Unit {
	out := make([]Unit, 0, len(units))
	for _, unit := range units {
		if unit.Temporary {
			out = append(out, unit)
		}
	}
	return out
}
