// Package lockfile guards a destination tree against concurrent
// organizer processes with an advisory file lock.
package lockfile

import (
	"fmt"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/Znapy/pv-organizer/internal/logging"
)

// LockFileName is created inside the destination root. Dotfiles in the
// destination are owned by the organizer and excluded from orphan
// sweeps.
const LockFileName = ".pv-organizer.lock"

// Lock holds an advisory lock on a destination root.
type Lock struct {
	fl   *flock.Flock
	path string
}

// Acquire takes a non-blocking exclusive lock on destRoot. It fails
// immediately when another process already holds the lock.
func Acquire(destRoot string) (*Lock, error) {
	path := filepath.Join(destRoot, LockFileName)
	fl := flock.New(path)

	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("destination %s is locked by another process", destRoot)
	}

	logging.Debug("Acquired destination lock at %s", path)
	return &Lock{fl: fl, path: path}, nil
}

// Release drops the lock. The lock file itself is left in place; flock
// state, not file existence, is what other processes observe.
func (l *Lock) Release() error {
	if l == nil || l.fl == nil {
		return nil
	}
	if err := l.fl.Unlock(); err != nil {
		return fmt.Errorf("unlock %s: %w", l.path, err)
	}
	logging.Debug("Released destination lock at %s", l.path)
	return nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.path
}
