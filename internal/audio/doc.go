// Package audio defines the value types that flow through the transcription
// pipeline and the cheap, I/O-free format check that decides whether a source
// needs normalization.
//
// Key types:
//   - Unit: one file submitted to the backend, tagged with its ordinal
//   - Result: the outcome of transcribing a single Unit
//
// Primary entry points:
//   - IsAcceptedFormat: extension check against the backend's allowlist
//   - IsAcceptedFormatIn: the same check against a caller-supplied allowlist
package audio
