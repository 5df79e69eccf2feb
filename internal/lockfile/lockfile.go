// Package lockfile guards a target tree with an existence-signaled lock file.
//
// The lock is a plain file created with O_EXCL: if it already exists another
// run (or a crashed one) owns the tree and the caller must abort. A lock left
// behind by a dead process is deliberately not auto-recovered; removing it is
// a manual operation.
package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"unpakr/internal/services"
)

// Lock represents a single target-tree lock file.
type Lock struct {
	path string

	mu   sync.Mutex
	held bool
}

// New returns a lock for the given directory and file name. The lock is not
// acquired until TryAcquire succeeds.
func New(dir, name string) *Lock {
	return &Lock{path: filepath.Join(dir, name)}
}

// Path returns the absolute lock file location.
func (l *Lock) Path() string {
	return l.path
}

// TryAcquire attempts to create the lock file atomically. It returns
// (false, nil) when the file already exists, (true, nil) on success, and a
// non-nil error only for unexpected filesystem failures.
func (l *Lock) TryAcquire() (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.held {
		return true, nil
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return false, nil
		}
		return false, services.Wrap(services.ErrFilesystem, "lockfile", "acquire", fmt.Sprintf("create %s", l.path), err)
	}

	// Contents are diagnostic only; existence is the signal.
	payload := strconv.Itoa(os.Getpid()) + " " + time.Now().UTC().Format(time.RFC3339) + "\n"
	if _, err := file.WriteString(payload); err != nil {
		file.Close()
		os.Remove(l.path)
		return false, services.Wrap(services.ErrFilesystem, "lockfile", "acquire", fmt.Sprintf("write %s", l.path), err)
	}
	if err := file.Close(); err != nil {
		os.Remove(l.path)
		return false, services.Wrap(services.ErrFilesystem, "lockfile", "acquire", fmt.Sprintf("close %s", l.path), err)
	}

	l.held = true
	return true, nil
}

// Release deletes the lock file. Safe to call multiple times; only the first
// call after a successful TryAcquire performs the removal.
func (l *Lock) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false

	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return services.Wrap(services.ErrFilesystem, "lockfile", "release", fmt.Sprintf("remove %s", l.path), err)
	}
	return nil
}

// Held reports whether this process currently owns the lock.
func (l *Lock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
