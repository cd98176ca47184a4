package packetstore

import (
	"errors"

	"github.com/0xRadioAc7iv/go-packetstore/core"
)

var (
	// ErrMissingPacket is returned by Get and Del when no packet is stored
	// under the requested message identifier. Callers usually treat it as
	// "already acknowledged".
	ErrMissingPacket = errors.New("missing packet")

	// ErrStoreClosed is returned for operations on a closed store.
	ErrStoreClosed = core.ErrClosed

	// ErrCorruptRecord is returned when a stored document cannot be decoded
	// back into a packet.
	ErrCorruptRecord = errors.New("corrupt packet record")

	// ErrUnsupportedValue is returned by Put for fields that have no stored
	// representation: the zero Value, NaN and infinite floats.
	ErrUnsupportedValue = errors.New("unsupported field value")

	ErrNoFilename    = errors.New("store filename is required")
	ErrUnknownEngine = errors.New("unknown storage engine")

	// ErrBaseDirectory wraps failures creating the manager's base directory
	// other than the directory already existing.
	ErrBaseDirectory = errors.New("cannot create store directory")
)
