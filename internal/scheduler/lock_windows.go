//go:build windows

package scheduler

import (
	"errors"
	"os"
)

// FileLock is the Windows variant. There is no flock here, so exclusive
// creation of the lock file stands in for it.
type FileLock struct {
	path string
	held bool
}

// NewFileLock creates a FileLock for the given path.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// TryLock attempts to acquire the lock without blocking. It reports false
// when another process already holds the file.
func (l *FileLock) TryLock() (bool, error) {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return false, nil
		}
		return false, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(l.path)
		return false, err
	}
	l.held = true
	return true, nil
}

// Unlock removes the lock file if this process created it.
func (l *FileLock) Unlock() error {
	if !l.held {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	l.held = false
	return nil
}
