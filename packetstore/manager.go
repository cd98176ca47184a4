package packetstore

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/0xRadioAc7iv/go-packetstore/core"
	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
)

const (
	// DefaultDirName is created under the user's home directory when no
	// base path is given.
	DefaultDirName = ".mqtt-packetstore"

	IncomingName = "incoming"
	OutgoingName = "outgoing"
)

// Manager owns the pair of stores a messaging client session needs: one
// for packets received and one for packets sent.
type Manager struct {
	Incoming *Store
	Outgoing *Store

	basePath string
}

type managerOptions struct {
	common   []Option
	incoming []Option
	outgoing []Option
	logger   *slog.Logger
}

type ManagerOption func(*managerOptions)

// WithStoreOptions applies opts to both stores.
func WithStoreOptions(opts ...Option) ManagerOption {
	return func(m *managerOptions) {
		m.common = append(m.common, opts...)
	}
}

// WithIncomingOptions applies opts to the incoming store only, after the
// shared options.
func WithIncomingOptions(opts ...Option) ManagerOption {
	return func(m *managerOptions) {
		m.incoming = append(m.incoming, opts...)
	}
}

// WithOutgoingOptions applies opts to the outgoing store only, after the
// shared options.
func WithOutgoingOptions(opts ...Option) ManagerOption {
	return func(m *managerOptions) {
		m.outgoing = append(m.outgoing, opts...)
	}
}

// WithManagerLogger sets the logger for the manager and, unless overridden
// per store, for both stores.
func WithManagerLogger(l *slog.Logger) ManagerOption {
	return func(m *managerOptions) {
		m.logger = l
	}
}

// DefaultBasePath returns ~/.mqtt-packetstore.
func DefaultBasePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// NewManager opens <basePath>/incoming and <basePath>/outgoing. An empty
// basePath selects DefaultBasePath. The base directory is created if
// missing; any failure other than it already existing is returned wrapped
// in ErrBaseDirectory.
func NewManager(basePath string, opts ...ManagerOption) (*Manager, error) {
	mo := &managerOptions{}
	for _, opt := range opts {
		opt(mo)
	}
	if mo.logger == nil {
		mo.logger = logger.Get()
	}

	if basePath == "" {
		p, err := DefaultBasePath()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBaseDirectory, err)
		}
		basePath = p
	}

	if err := ensureBaseDir(basePath); err != nil {
		mo.logger.Error("could not create store directory", "path", basePath, "error", err)
		return nil, err
	}

	incoming, err := Open(filepath.Join(basePath, IncomingName), mo.storeOptions(IncomingName, mo.incoming)...)
	if err != nil {
		return nil, err
	}

	outgoing, err := Open(filepath.Join(basePath, OutgoingName), mo.storeOptions(OutgoingName, mo.outgoing)...)
	if err != nil {
		incoming.Close()
		return nil, err
	}

	return &Manager{
		Incoming: incoming,
		Outgoing: outgoing,
		basePath: basePath,
	}, nil
}

func (mo *managerOptions) storeOptions(name string, direction []Option) []Option {
	opts := []Option{WithName(name), WithLogger(mo.logger)}
	opts = append(opts, mo.common...)
	return append(opts, direction...)
}

func ensureBaseDir(path string) error {
	err := os.MkdirAll(path, core.DirPerm)
	if err == nil || errors.Is(err, fs.ErrExist) {
		if info, statErr := os.Stat(path); statErr == nil && !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", ErrBaseDirectory, path)
		}
		return nil
	}
	return fmt.Errorf("%w: %v", ErrBaseDirectory, err)
}

// Path returns the base directory holding both datafiles.
func (m *Manager) Path() string {
	return m.basePath
}

// Store returns the store for a direction name, "incoming" or "outgoing".
func (m *Manager) Store(direction string) (*Store, bool) {
	switch direction {
	case IncomingName:
		return m.Incoming, true
	case OutgoingName:
		return m.Outgoing, true
	default:
		return nil, false
	}
}

// Close closes the incoming then the outgoing store. Like Store.Close it
// always returns nil.
func (m *Manager) Close() error {
	m.Incoming.Close()
	m.Outgoing.Close()
	return nil
}
