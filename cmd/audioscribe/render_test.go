package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"audioscribe/internal/audio"
	"audioscribe/internal/pipeline"
)

func TestRenderSummary(t *testing.T) {
	full := pipeline.Transcript{Total: 3, Elapsed: 2 * time.Second}
	if got := renderSummary(full, nil, false); got != "Transcribed 3 units in 2s" {
		t.Fatalf("unexpected full summary %q", got)
	}

	partial := pipeline.Transcript{Total: 3, Failed: 1, Elapsed: time.Second}
	if got := renderSummary(partial, nil, false); !strings.HasPrefix(got, "Transcribed 2/3 units") {
		t.Fatalf("unexpected partial summary %q", got)
	}

	failed := pipeline.Transcript{Total: 2, Failed: 2}
	if got := renderSummary(failed, errors.New("all failed"), false); !strings.HasPrefix(got, "All 2 units failed") {
		t.Fatalf("unexpected failure summary %q", got)
	}

	colored := renderSummary(full, nil, true)
	if !strings.HasPrefix(colored, ansiGreen) || !strings.HasSuffix(colored, ansiReset) {
		t.Fatalf("expected colorized summary, got %q", colored)
	}
}

func TestRenderResultsTable(t *testing.T) {
	transcript := pipeline.Transcript{
		Units: []audio.Unit{
			{Path: "/w/a_part0.mp3", Size: 2048, Ordinal: 0},
			{Path: "/w/a_part1.mp3", Size: 1024, Ordinal: 1, Start: 90 * time.Second},
		},
		Results: []audio.Result{
			{Ordinal: 0, OK: true, Text: "hello there", Attempts: 1},
			{Ordinal: 1, Err: errors.New("rate limited"), Attempts: 2},
		},
	}
	out := renderResultsTable(transcript)
	for _, want := range []string{"#0", "#1", "00:01:30", "2.0 KiB", "hello there", "rate limited", "failed"} {
		if !strings.Contains(out, want) {
			t.Fatalf("table missing %q:\n%s", want, out)
		}
	}
}

func TestPreviewAndFormatting(t *testing.T) {
	if got := preview("a  b\n c", 10); got != "a b c" {
		t.Fatalf("preview collapse: %q", got)
	}
	if got := preview(strings.Repeat("x", 20), 10); got != "xxxxxxx..." {
		t.Fatalf("preview truncate: %q", got)
	}
	if got := formatBytes(512); got != "512 B" {
		t.Fatalf("formatBytes small: %q", got)
	}
	if got := formatBytes(25 << 20); got != "25.0 MiB" {
		t.Fatalf("formatBytes MiB: %q", got)
	}
	if got := formatAge(90 * time.Minute); got != "1h" {
		t.Fatalf("formatAge: %q", got)
	}
	if got := formatOffset(3723 * time.Second); got != "01:02:03" {
		t.Fatalf("formatOffset: %q", got)
	}
}
