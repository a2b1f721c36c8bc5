// Package logging assembles structured slog loggers and formatting helpers used
// across audioscribe.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can automatically
// tag log lines with run IDs, stages, and unit ordinals. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
//
// Output defaults to stderr: stdout belongs to the transcript.
package logging
