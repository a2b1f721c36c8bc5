package textutil

import "strings"

// JoinSegments joins transcript segments with a single space. Segments are
// trimmed and empty ones are dropped so no doubled separators appear.
func JoinSegments(segments []string) string {
	kept := make([]string, 0, len(segments))
	for _, segment := range segments {
		if segment = strings.TrimSpace(segment); segment != "" {
			kept = append(kept, segment)
		}
	}
	return strings.Join(kept, " ")
}
