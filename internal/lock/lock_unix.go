//go:build unix

package lock

import (
	"fmt"
	"os"
	"syscall"
)

// LockFile attempts to acquire an exclusive, non-blocking advisory lock
// guarding the datafile at path.
//
// On Unix systems, this uses flock(2) on a sibling file named path+".lock".
// If the lock cannot be acquired, the datafile is assumed to be open in
// another store instance and ErrLocked is returned.
//
// The returned file handle must remain open for the duration of the lock.
func LockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path+Suffix, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("unable to open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	return f, nil
}

// Unlock releases a lock acquired via LockFile.
//
// On Unix systems, this releases the advisory flock and closes the file.
// The lock file itself is left in place.
func Unlock(f *os.File) error {
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_UN); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
