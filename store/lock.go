package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked means another process already owns the task document.
var ErrLocked = errors.New("task document is in use by another process")

// Lock guards a task document against a second running process.
type Lock struct {
	flk *flock.Flock
}

// AcquireLock takes an exclusive, non-blocking lock on <path>.lock.
func AcquireLock(path string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	flk := flock.New(path + ".lock")
	locked, err := flk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", flk.Path(), err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLocked, flk.Path())
	}
	return &Lock{flk: flk}, nil
}

// Release is idempotent.
func (l *Lock) Release() error {
	if l == nil || l.flk == nil {
		return nil
	}
	return l.flk.Unlock()
}
