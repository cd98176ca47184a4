package utils

import (
	"os"
	"path/filepath"
)

// Truncates a file at a given offset and syncs it
func TruncateAt(f *os.File, offset int64) error {
	if err := f.Truncate(offset); err != nil {
		return err
	}
	return f.Sync()
}

// Indicates if the given path exists or not (works for both files and directories)
func PathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SyncDir fsyncs a directory so that a rename inside it is durable.
func SyncDir(dir string) error {
	d, err := os.Open(filepath.Clean(dir))
	if err != nil {
		return err
	}
	defer d.Close()

	return d.Sync()
}
