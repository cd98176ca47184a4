// Package lock provides the single-writer guard for packet log datafiles.
package lock

import "errors"

// Suffix is appended to a datafile path to name its lock file.
const Suffix = ".lock"

// ErrLocked is returned when the datafile is already held by another store.
var ErrLocked = errors.New("datafile already in use by another store")
