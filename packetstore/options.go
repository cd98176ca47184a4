package packetstore

import (
	"log/slog"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/core"
)

const (
	// DefaultBinaryPrefix marks a stored string as base64-encoded bytes.
	DefaultBinaryPrefix = "b:base64:"

	// DefaultPageSize is how many packets a stream fetches per page.
	DefaultPageSize = 500
)

// EngineKind selects the storage engine behind a Store.
type EngineKind string

const (
	// EngineLog is the append-only datafile in package core.
	EngineLog EngineKind = "log"
	// EngineSQLite keeps packets in an embedded SQLite database.
	EngineSQLite EngineKind = "sqlite"
)

// Options configures a single Store.
type Options struct {
	Filename string

	// BinaryPrefix must never occur as the leading text of an ordinary
	// Text field, or that field is read back as Bytes.
	BinaryPrefix string

	PageSize int

	// AutocompactionInterval enables periodic compaction when positive.
	// Values below core.MinimumAutocompactionInterval are raised to it.
	AutocompactionInterval time.Duration

	Engine EngineKind

	// Name labels the store in logs and metrics. It defaults to the base
	// name of Filename.
	Name string

	Logger *slog.Logger
}

type Option func(*Options)

func WithFilename(filename string) Option {
	return func(o *Options) {
		o.Filename = filename
	}
}

func WithBinaryPrefix(prefix string) Option {
	return func(o *Options) {
		o.BinaryPrefix = prefix
	}
}

func WithPageSize(limit int) Option {
	return func(o *Options) {
		o.PageSize = limit
	}
}

func WithAutocompactionInterval(interval time.Duration) Option {
	return func(o *Options) {
		o.AutocompactionInterval = interval
	}
}

func WithEngine(engine EngineKind) Option {
	return func(o *Options) {
		o.Engine = engine
	}
}

func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

func (o *Options) applyDefaults() {
	if o.BinaryPrefix == "" {
		o.BinaryPrefix = DefaultBinaryPrefix
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.AutocompactionInterval > 0 && o.AutocompactionInterval < core.MinimumAutocompactionInterval {
		o.AutocompactionInterval = core.MinimumAutocompactionInterval
	}
	if o.Engine == "" {
		o.Engine = EngineLog
	}
}
