package textutil

import (
	"strings"
	"testing"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "unknown"},
		{"   ", "unknown"},
		{"My Podcast #12", "my_podcast__12"},
		{"interview-final_v2", "interview-final_v2"},
		{"***", "unknown"},
		{"Café", "caf"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	long := SanitizeToken(strings.Repeat("a", 200))
	if len(long) != maxTokenLength {
		t.Fatalf("expected token truncated to %d, got %d", maxTokenLength, len(long))
	}
}

func TestStemName(t *testing.T) {
	tests := map[string]string{
		"/tmp/talk.flac":     "talk",
		"talk.tar.gz":        "talk.tar",
		"noext":              "noext",
		"/a/b/.hidden":       ".hidden",
		`C:\audio\memo.m4a`: "memo",
	}
	for in, want := range tests {
		if got := StemName(in); got != want {
			t.Errorf("StemName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJoinSegments(t *testing.T) {
	got := JoinSegments([]string{" hello", "", "world ", "   ", "again"})
	if got != "hello world again" {
		t.Fatalf("unexpected join %q", got)
	}
	if JoinSegments(nil) != "" {
		t.Fatal("expected empty join for nil input")
	}
}
