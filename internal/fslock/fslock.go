//go:build unix

// Package fslock provides an advisory file lock guarding the
// load-mutate-save critical section against concurrent processes.
package fslock

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock holds an exclusive advisory lock on a file.
type Lock struct {
	f *os.File
}

// Acquire takes an exclusive flock on path, creating the file if needed.
// It blocks until the lock is available.
func Acquire(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Lock{f: f}, nil
}

// Release drops the lock. The lock file itself is left in place.
func (l *Lock) Release() error {
	if l == nil || l.f == nil {
		return nil
	}
	err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	l.f = nil
	return err
}
