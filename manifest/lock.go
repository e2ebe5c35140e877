package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// RunLock is an exclusive advisory file lock held for the duration of an
// ingestion run. Two runs mutating the same store would interleave manifest
// and store writes, so the second one must not start.
type RunLock struct {
	fl *flock.Flock
}

// LockPath returns the conventional lock file location for a manifest.
func LockPath(manifestPath string) string {
	return manifestPath + ".lock"
}

// AcquireRunLock takes the lock at path without blocking. It fails with
// ErrLocked when another process already holds it.
func AcquireRunLock(path string) (*RunLock, error) {
	if path == "" {
		return nil, ErrPathRequired
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}

	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring run lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}
	return &RunLock{fl: fl}, nil
}

// Path returns the lock file location.
func (l *RunLock) Path() string {
	return l.fl.Path()
}

// Release gives the lock up. The lock file itself is left in place; only
// the advisory lock is dropped.
func (l *RunLock) Release() error {
	return l.fl.Unlock()
}
