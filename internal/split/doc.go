// Package split partitions audio that exceeds the backend payload ceiling
// into ordered, independently encoded MP3 chunks.
//
// The chunk window is derived from the ceiling and the encode bitrate
// (maxBytes*8/kbps milliseconds). Every chunk is stat'ed after encoding; a
// chunk that still exceeds the ceiling is re-encoded with half the window
// under the same ordinal until it fits.
package split
