// Package preflight provides readiness checks for the filesystem paths,
// external binaries, and transcription endpoint that audioscribe depends on.
//
// These checks run in two contexts:
//   - The transcribe command calls RunAll before starting a job so a missing
//     work directory or API key fails fast instead of after conversion.
//   - The "audioscribe deps" command uses the individual check functions to
//     display environment health.
package preflight
