// Package pipeline orchestrates one transcription job end to end.
//
// Run drives an explicit state machine:
//
//	validating -> [converting] -> splitting -> transcribing -> aggregating -> cleaning_up -> done
//
// Any fatal error jumps straight to cleaning_up and ends in failed. Cleanup
// always runs, including after cancellation, and never changes the outcome.
// Per-unit transcription failures are collected rather than propagated; the
// job only fails in the transcribing phase when every unit failed.
//
// Key types:
//   - Job: immutable description of one input, built with NewJob
//   - Pipeline: the wired components plus batch policy (timeout, workers, retries)
//   - Transcript: ordered results and the joined text
package pipeline
