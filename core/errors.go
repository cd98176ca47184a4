package core

import "errors"

var (
	// ErrKeyExists is returned by Insert when the key is already present.
	ErrKeyExists = errors.New("key already exists")

	// ErrKeyNotFound is returned when reading, updating or removing an absent key.
	ErrKeyNotFound = errors.New("key not found")

	// ErrClosed is returned when operating on a closed log.
	ErrClosed = errors.New("log is closed")

	ErrInvalidKey = errors.New("invalid key")

	// ErrEmptyValue is returned for zero-length values, which the datafile
	// format reserves for tombstones.
	ErrEmptyValue = errors.New("empty value")
)
