package staging

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"audioscribe/internal/audio"
	"audioscribe/internal/logging"
	"audioscribe/internal/services"
)

func TestJanitorRemovesOnlyTemporaryUnits(t *testing.T) {
	dir := t.TempDir()
	original := filepath.Join(dir, "talk.mp3")
	chunk0 := filepath.Join(dir, "talk_part0.mp3")
	chunk1 := filepath.Join(dir, "talk_part1.mp3")
	for _, p := range []string{original, chunk0, chunk1} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	report := NewJanitor(logging.NewNop()).Cleanup([]audio.Unit{
		{Path: original, Ordinal: 0},
		{Path: chunk0, Ordinal: 0, Temporary: true},
		{Path: chunk1, Ordinal: 1, Temporary: true},
	})

	if !report.OK() || len(report.Removed) != 2 || report.Kept != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	if _, err := os.Stat(original); err != nil {
		t.Fatalf("original must survive: %v", err)
	}
	for _, p := range []string{chunk0, chunk1} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed", p)
		}
	}
}

func TestJanitorTreatsMissingFilesAsRemoved(t *testing.T) {
	report := NewJanitor(nil).Cleanup([]audio.Unit{{Path: filepath.Join(t.TempDir(), "gone.mp3"), Temporary: true}})
	if !report.OK() || len(report.Removed) != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestJanitorReportsCleanupErrors(t *testing.T) {
	dir := t.TempDir()
	// A non-empty directory cannot be removed with os.Remove, even as root.
	stubborn := filepath.Join(dir, "stubborn_part0.mp3")
	if err := os.MkdirAll(filepath.Join(stubborn, "inner"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	removable := filepath.Join(dir, "ok_part1.mp3")
	if err := os.WriteFile(removable, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	report := NewJanitor(logging.NewNop()).Cleanup([]audio.Unit{
		{Path: stubborn, Ordinal: 0, Temporary: true},
		{Path: removable, Ordinal: 1, Temporary: true},
	})

	if report.OK() || len(report.Errors) != 1 {
		t.Fatalf("expected one cleanup error, got %+v", report)
	}
	if !errors.Is(report.Errors[0].Error, services.ErrCleanup) {
		t.Fatalf("expected cleanup marker, got %v", report.Errors[0].Error)
	}
	if services.IsFatal(report.Errors[0].Error) {
		t.Fatal("cleanup errors must never be fatal")
	}
	if len(report.Removed) != 1 || report.Removed[0] != removable {
		t.Fatalf("expected remaining units still removed, got %v", report.Removed)
	}
}
