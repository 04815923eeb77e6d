package authcommon

import (
	"fmt"
	"os"
	"syscall"
)

// FileLock is an advisory exclusive lock over a short critical section,
// used to serialise failure-counter read-modify-write across racing
// guard invocations (each invocation is its own short-lived process).
type FileLock struct {
	f *os.File
}

// Lock opens (creating if necessary) the lock file at path and blocks
// until an exclusive advisory lock is held.
func Lock(path string) (*FileLock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("authcommon: open lock file %s: %w", path, err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("authcommon: flock %s: %w", path, err)
	}
	return &FileLock{f: f}, nil
}

// Unlock releases the lock and closes the underlying file.
func (l *FileLock) Unlock() error {
	defer l.f.Close()
	return syscall.Flock(int(l.f.Fd()), syscall.LOCK_UN)
}

// WithLock runs fn while holding an exclusive lock on path, guaranteeing
// release even if fn panics.
func WithLock(path string, fn func() error) error {
	lock, err := Lock(path)
	if err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
