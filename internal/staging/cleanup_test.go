package staging

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"audioscribe/internal/logging"
)

func TestCleanStaleInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		result := CleanStale(context.Background(), dir, time.Hour, logging.NewNop())
		if len(result.Removed) != 0 || len(result.Errors) != 0 {
			t.Errorf("expected empty result for path %q", dir)
		}
	}
}

func makeAgedDir(t *testing.T, parent, name string, age time.Duration) string {
	t.Helper()
	dir := filepath.Join(parent, name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatalf("create dir: %v", err)
	}
	stamp := time.Now().Add(-age)
	if err := os.Chtimes(dir, stamp, stamp); err != nil {
		t.Fatalf("set time: %v", err)
	}
	return dir
}

func TestCleanStaleRemovesOldDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	oldDir := makeAgedDir(t, tmpDir, "old-run", 2*time.Hour)
	recentDir := makeAgedDir(t, tmpDir, "recent-run", 0)

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 1 || result.Removed[0] != oldDir {
		t.Fatalf("expected %s removed, got %v", oldDir, result.Removed)
	}
	if _, err := os.Stat(oldDir); !os.IsNotExist(err) {
		t.Error("old directory should have been removed")
	}
	if _, err := os.Stat(recentDir); err != nil {
		t.Error("recent directory should still exist")
	}
}

func TestCleanStaleSkipsLockedWorkspace(t *testing.T) {
	tmpDir := t.TempDir()
	live := makeAgedDir(t, tmpDir, "live-run", 2*time.Hour)
	lock := flock.New(filepath.Join(live, LockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		t.Fatalf("lock: %v", err)
	}
	defer lock.Unlock()
	stamp := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(live, stamp, stamp); err != nil {
		t.Fatalf("set time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())

	if len(result.Removed) != 0 {
		t.Fatalf("expected locked workspace to survive, removed %v", result.Removed)
	}
	if len(result.Busy) != 1 || result.Busy[0] != live {
		t.Fatalf("expected workspace reported busy, got %v", result.Busy)
	}
}

func TestCleanStaleIgnoresFiles(t *testing.T) {
	tmpDir := t.TempDir()
	oldFile := filepath.Join(tmpDir, "old-file.txt")
	if err := os.WriteFile(oldFile, []byte("test"), 0o644); err != nil {
		t.Fatalf("create file: %v", err)
	}
	oldTime := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(oldFile, oldTime, oldTime); err != nil {
		t.Fatalf("set old time: %v", err)
	}

	result := CleanStale(context.Background(), tmpDir, time.Hour, logging.NewNop())
	if len(result.Removed) != 0 {
		t.Errorf("expected 0 removed, got %d", len(result.Removed))
	}
	if _, err := os.Stat(oldFile); err != nil {
		t.Error("file should not have been removed")
	}
}

func TestListDirectoriesInvalidPaths(t *testing.T) {
	for _, dir := range []string{"", "   ", "/nonexistent/path/12345"} {
		dirs, err := ListDirectories(dir)
		if err != nil || dirs != nil {
			t.Errorf("expected nil for path %q, got %v, %v", dir, dirs, err)
		}
	}
}

func TestListDirectoriesReportsSizeAndLock(t *testing.T) {
	root := t.TempDir()
	ws, err := Acquire(root, "/in/talk.wav", "run1")
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer ws.Release()
	if err := os.WriteFile(ws.Path("talk_part0.mp3"), make([]byte, 100), 0o644); err != nil {
		t.Fatalf("write chunk: %v", err)
	}
	idle := makeAgedDir(t, root, "idle-run", 0)

	dirs, err := ListDirectories(root)
	if err != nil {
		t.Fatalf("ListDirectories: %v", err)
	}
	if len(dirs) != 2 {
		t.Fatalf("expected 2 dirs, got %d", len(dirs))
	}
	byPath := map[string]DirInfo{}
	for _, d := range dirs {
		byPath[d.Path] = d
	}
	if got := byPath[ws.Dir]; !got.Locked || got.Size < 100 {
		t.Fatalf("expected locked workspace with data, got %+v", got)
	}
	if got := byPath[idle]; got.Locked || got.Size != 0 {
		t.Fatalf("expected idle unlocked dir, got %+v", got)
	}
}
