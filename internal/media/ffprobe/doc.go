// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Prober: runs ffprobe through a services.CommandRunner
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual audio/video stream properties
//   - Format: container-level metadata (duration, size, bitrate)
//
// Helper methods on Result provide stream counts, duration parsing, the
// decodable-audio check used by the converter and splitter, and selection of
// the primary audio stream for the pinned language.
package ffprobe
