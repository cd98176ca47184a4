package packetstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/0xRadioAc7iv/go-packetstore/core"
	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/internal/metrics"
	"github.com/0xRadioAc7iv/go-packetstore/internal/sqlstore"
)

// engine is the storage contract a Store drives. Both core.Log and
// sqlstore.DB satisfy it.
type engine interface {
	Insert(key string, value []byte) error
	Update(key string, value []byte) error
	Remove(key string) error
	FindOne(key string) ([]byte, error)
	Find(skip, limit int) ([]core.Doc, error)
	Count() int
	Compact() error
	Close() error
}

// Store persists in-flight packets keyed by message identifier.
//
// A Store is safe for concurrent use. Operations on one key are serialized
// by the engine's write lock; operations on different keys have no ordering
// guarantee relative to each other.
type Store struct {
	opts   Options
	db     engine
	logger *slog.Logger

	compactCancel context.CancelFunc
	compactDone   chan struct{}
	closeOnce     sync.Once
}

// Open opens the store whose datafile lives at filename, creating it if
// needed. The store is fully loaded when Open returns.
func Open(filename string, opts ...Option) (*Store, error) {
	o := Options{Filename: filename}
	for _, opt := range opts {
		opt(&o)
	}
	o.applyDefaults()

	if o.Filename == "" {
		return nil, ErrNoFilename
	}
	if o.Name == "" {
		o.Name = filepath.Base(o.Filename)
	}
	if o.Logger == nil {
		o.Logger = logger.Get()
	}
	l := o.Logger.With("store", o.Name)

	var (
		db  engine
		err error
	)
	switch o.Engine {
	case EngineLog:
		db, err = core.Open(o.Filename, core.Options{Logger: l})
	case EngineSQLite:
		db, err = sqlstore.Open(o.Filename)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, o.Engine)
	}
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", o.Name, err)
	}

	s := &Store{opts: o, db: db, logger: l}

	if o.AutocompactionInterval > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.compactCancel = cancel
		s.compactDone = make(chan struct{})
		go s.autocompact(ctx, o.AutocompactionInterval)
	}

	l.Debug("store opened", "filename", o.Filename, "engine", o.Engine, "packets", db.Count())
	return s, nil
}

// Name returns the label of the store used in logs and metrics.
func (s *Store) Name() string {
	return s.opts.Name
}

// Options returns the resolved options the store was opened with.
func (s *Store) Options() Options {
	return s.opts
}

// Put stores p under p.MessageID, replacing any packet already stored there.
// It returns p unchanged.
func (s *Store) Put(p Packet) (Packet, error) {
	err := s.put(p)
	metrics.ObserveOperation(s.opts.Name, "put", err, false)
	if err != nil {
		return Packet{}, err
	}
	return p, nil
}

func (s *Store) put(p Packet) error {
	doc, err := encodePacket(p, s.opts.BinaryPrefix)
	if err != nil {
		return err
	}

	key := keyFor(p.MessageID)

	err = s.db.Insert(key, doc)
	if errors.Is(err, core.ErrKeyExists) {
		err = s.db.Update(key, doc)
		// removed between the two calls
		if errors.Is(err, core.ErrKeyNotFound) {
			err = s.db.Insert(key, doc)
		}
	}
	return err
}

// Get returns the packet stored under id, or ErrMissingPacket.
func (s *Store) Get(id uint16) (Packet, error) {
	p, err := s.get(id)
	metrics.ObserveOperation(s.opts.Name, "get", err, errors.Is(err, ErrMissingPacket))
	return p, err
}

func (s *Store) get(id uint16) (Packet, error) {
	doc, err := s.db.FindOne(keyFor(id))
	if errors.Is(err, core.ErrKeyNotFound) {
		return Packet{}, ErrMissingPacket
	}
	if err != nil {
		return Packet{}, err
	}

	return decodePacket(doc, s.opts.BinaryPrefix)
}

// Del removes the packet stored under id and returns it. When nothing is
// stored under id it returns ErrMissingPacket and changes nothing.
//
// A record that no longer decodes is still removed; Del then returns a
// packet carrying only the message id.
func (s *Store) Del(id uint16) (Packet, error) {
	p, err := s.del(id)
	metrics.ObserveOperation(s.opts.Name, "del", err, errors.Is(err, ErrMissingPacket))
	return p, err
}

func (s *Store) del(id uint16) (Packet, error) {
	p, err := s.get(id)
	if errors.Is(err, ErrCorruptRecord) {
		s.logger.Warn("removing undecodable packet", "id", id, "error", err)
		p = NewPacket(id)
	} else if err != nil {
		return Packet{}, err
	}

	err = s.db.Remove(keyFor(id))
	if errors.Is(err, core.ErrKeyNotFound) {
		return Packet{}, ErrMissingPacket
	}
	if err != nil {
		return Packet{}, err
	}

	return p, nil
}

// Count returns the number of stored packets.
func (s *Store) Count() int {
	return s.db.Count()
}

// Compact rewrites the underlying storage to drop superseded records.
func (s *Store) Compact() error {
	err := s.db.Compact()
	metrics.ObserveCompaction(s.opts.Name, err)
	return err
}

// CreateStream returns a Stream over every stored packet.
func (s *Store) CreateStream() *Stream {
	return newStream(s)
}

// Close stops background compaction and closes the engine. It always
// returns nil; teardown failures are logged. Writes are not fsynced on
// close.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		if s.compactCancel != nil {
			s.compactCancel()
			<-s.compactDone
		}

		if err := s.db.Close(); err != nil {
			s.logger.Warn("error while closing store", "error", err)
			return
		}
		s.logger.Debug("store closed")
	})

	return nil
}

func (s *Store) autocompact(ctx context.Context, interval time.Duration) {
	defer close(s.compactDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.Compact(); err != nil {
				if errors.Is(err, core.ErrClosed) {
					return
				}
				s.logger.Error("periodic compaction failed", "error", err)
			}

		case <-ctx.Done():
			return
		}
	}
}

func keyFor(id uint16) string {
	return strconv.FormatUint(uint64(id), 10)
}
