// Package filelock provides an exclusive advisory lock around a single
// append, so that a crash mid-write never interleaves two writers' bytes in
// a shared append-only log (audit log, usage ledger, scheduler store).
package filelock

import (
	"os"

	"golang.org/x/sys/unix"
)

// Lock acquires an exclusive advisory lock on f, blocking until available.
func Lock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_EX)
}

// Unlock releases a lock acquired with Lock.
func Unlock(f *os.File) error {
	return unix.Flock(int(f.Fd()), unix.LOCK_UN)
}

// WithLock runs fn while holding an exclusive lock on f.
func WithLock(f *os.File, fn func() error) error {
	if err := Lock(f); err != nil {
		return err
	}
	defer Unlock(f)
	return fn()
}
