// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package vault

import (
	"fmt"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/pdiddy/paper-vault/pkg/types"
)

// lockRetryDelay is how long to wait between non-blocking acquisition
// attempts. Package variable so tests can shorten it.
var lockRetryDelay = 100 * time.Millisecond

// FileLock is an advisory whole-vault lock backed by flock(2). It is
// not reentrant: a second Acquire from the same process deadlocks until
// the timeout, same as from another process.
type FileLock struct {
	path string
	f    *os.File
}

// NewFileLock prepares a lock on path. The lock file is created on
// first acquisition and never removed.
func NewFileLock(path string) *FileLock {
	return &FileLock{path: path}
}

// Acquire takes the lock, polling until timeout. Returns a
// LockTimeoutError when another holder does not release in time.
func (l *FileLock) Acquire(timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("opening lock file: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB)
		if err == nil {
			l.f = f
			return nil
		}
		if err != unix.EWOULDBLOCK && err != unix.EAGAIN {
			f.Close()
			return fmt.Errorf("locking %s: %w", l.path, err)
		}
		if time.Now().After(deadline) {
			f.Close()
			return &types.LockTimeoutError{Path: l.path, Timeout: timeout}
		}
		time.Sleep(lockRetryDelay)
	}
}

// Release drops the lock. Safe to call when not held.
func (l *FileLock) Release() error {
	if l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		f.Close()
		return fmt.Errorf("unlocking %s: %w", l.path, err)
	}
	return f.Close()
}
