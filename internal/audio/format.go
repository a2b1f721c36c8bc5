package audio

import (
	"path/filepath"
	"strings"
)

// AcceptedFormats lists the container extensions the transcription backend
// accepts without conversion.
var AcceptedFormats = []string{"mp3", "mp4", "mpeg", "mpga", "m4a", "wav", "webm"}

// IsAcceptedFormat reports whether path carries an extension the backend accepts.
func IsAcceptedFormat(path string) bool {
	return IsAcceptedFormatIn(path, AcceptedFormats)
}

// IsAcceptedFormatIn reports whether the extension of path appears in allowlist.
// Comparison is case-insensitive and entries may include a leading dot.
func IsAcceptedFormatIn(path string, allowlist []string) bool {
	ext := Extension(path)
	if ext == "" {
		return false
	}
	for _, candidate := range allowlist {
		if strings.EqualFold(strings.TrimPrefix(strings.TrimSpace(candidate), "."), ext) {
			return true
		}
	}
	return false
}

// Extension returns the lower-case extension of path without the dot.
func Extension(path string) string {
	base := filepath.Base(strings.TrimSpace(path))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	ext := filepath.Ext(base)
	if len(ext) <= 1 || ext == base {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// NormalizeFormats lower-cases, strips dots from, and de-duplicates an allowlist.
func NormalizeFormats(formats []string) []string {
	seen := make(map[string]struct{}, len(formats))
	out := make([]string, 0, len(formats))
	for _, format := range formats {
		format = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(format), "."))
		if format == "" {
			continue
		}
		if _, ok := seen[format]; ok {
			continue
		}
		seen[format] = struct{}{}
		out = append(out, format)
	}
	return out
}
