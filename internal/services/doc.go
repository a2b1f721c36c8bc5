// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, unit ordinals, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     as fatal or per-unit and map them onto process exit codes.
//   - A CommandRunner abstraction that makes ffmpeg and ffprobe invocation
//     testable without the binaries installed.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
