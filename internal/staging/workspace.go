package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"audioscribe/internal/services"
	"audioscribe/internal/textutil"
)

// LockFileName is the lock held inside a workspace for the lifetime of its run.
const LockFileName = ".audioscribe.lock"

// Workspace is the private directory of one run.
type Workspace struct {
	Dir   string
	RunID string
	lock  *flock.Flock
}

// WorkspaceName returns the directory name used for input and runID.
func WorkspaceName(input, runID string) string {
	return textutil.SanitizeToken(textutil.StemName(input)) + "-" + textutil.SanitizeToken(runID)
}

// Acquire creates and locks a fresh workspace under root.
func Acquire(root, input, runID string) (*Workspace, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "work_dir is empty", nil)
	}
	if strings.TrimSpace(runID) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "run id is empty", nil)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "create work_dir", err)
	}

	dir := filepath.Join(root, WorkspaceName(input, runID))
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "workspace already exists: "+dir, err)
		}
		return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "create workspace", err)
	}

	lock := flock.New(filepath.Join(dir, LockFileName))
	locked, err := lock.TryLock()
	if err != nil || !locked {
		_ = os.RemoveAll(dir)
		if err == nil {
			err = errors.New("lock held by another process")
		}
		return nil, services.Wrap(services.ErrConfiguration, "validating", "workspace", "lock workspace", err)
	}
	return &Workspace{Dir: dir, RunID: runID, lock: lock}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// Release unlocks and removes the workspace directory. Calling Release more
// than once is safe.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	var errs []error
	if w.lock != nil {
		if err := w.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("unlock: %w", err))
		}
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		errs = append(errs, fmt.Errorf("remove %s: %w", w.Dir, err))
	}
	if len(errs) > 0 {
		return services.Wrap(services.ErrCleanup, "cleaning_up", "release workspace", w.Dir, errors.Join(errs...))
	}
	return nil
}

// IsLocked reports whether a live run holds the lock of the workspace at dir.
func IsLocked(dir string) bool {
	lockPath := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	probe := flock.New(lockPath)
	locked, err := probe.TryLock()
	if err != nil {
		return true
	}
	if locked {
		_ = probe.Unlock()
		return false
	}
	return true
}
