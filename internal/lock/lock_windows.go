//go:build windows

package lock

import (
	"fmt"
	"os"
)

// LockFile attempts to acquire an exclusive lock guarding the datafile at
// path.
//
// On Windows, this is implemented by atomically creating a file named
// path+".lock". If the file already exists, the datafile is assumed to be
// open in another store instance and ErrLocked is returned.
//
// The returned file handle must be kept open for the duration of the lock.
func LockFile(path string) (*os.File, error) {
	f, err := os.OpenFile(path+Suffix, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLocked, path)
	}

	return f, nil
}

// Unlock releases a lock acquired via LockFile.
//
// On Windows, this removes the lock file from disk. Unlock should be called
// exactly once for each successful LockFile call.
func Unlock(f *os.File) error {
	name := f.Name()
	if err := f.Close(); err != nil {
		return err
	}
	return os.Remove(name)
}
