// Package convert normalizes arbitrary audio into MP3 with ffmpeg.
//
// Converter wraps the ffmpeg invocation, captures its output for diagnostics,
// and re-probes every file it writes so a zero-exit run that produced nothing
// usable is still reported as a conversion failure. The splitter reuses
// EncodeWindow so chunks share the converter's codec profile.
package convert
