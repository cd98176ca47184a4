package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/0xRadioAc7iv/go-packetstore/internal/lock"
	"github.com/0xRadioAc7iv/go-packetstore/internal/logger"
	"github.com/0xRadioAc7iv/go-packetstore/internal/record"
	"github.com/0xRadioAc7iv/go-packetstore/internal/utils"
)

// Doc is one live key and its value as returned by Find.
type Doc struct {
	Key   string
	Value []byte
}

type Options struct {
	Logger *slog.Logger
}

// Log is a single-file append-only key/value log.
//
// Every write appends a record to the datafile and updates the in-memory
// KeyDir; reads go to disk through the KeyDir offset. Overwritten records
// and tombstones stay in the file until Compact rewrites it.
type Log struct {
	path      string
	lockFile  *os.File
	file      *os.File
	offset    int64
	keyDir    KeyDir
	deadBytes int64
	closed    bool

	mu sync.RWMutex // guards everything above

	logger *slog.Logger
}

// Open opens or creates the datafile at path, takes its lock and rebuilds
// the KeyDir. A torn or corrupt tail is truncated at the last good record.
// If the scan found superseded records the file is compacted before Open
// returns.
func Open(path string, opts Options) (*Log, error) {
	if opts.Logger == nil {
		opts.Logger = logger.Get()
	}

	if err := os.MkdirAll(filepath.Dir(path), DirPerm); err != nil {
		return nil, fmt.Errorf("create datafile directory: %w", err)
	}

	lf, err := lock.LockFile(path)
	if err != nil {
		return nil, err
	}

	l := &Log{
		path:     path,
		lockFile: lf,
		keyDir:   make(KeyDir),
		logger:   opts.Logger.With("path", path),
	}

	// Leftover from a compaction interrupted before its rename.
	if stale := path + CompactSuffix; utils.PathExists(stale) {
		if err := os.Remove(stale); err != nil {
			l.logger.Warn("could not remove stale compaction file", "error", err)
		} else {
			l.logger.Info("removed stale compaction file", "file", stale)
		}
	}

	if err := l.load(); err != nil {
		l.release()
		return nil, err
	}

	if l.deadBytes > 0 {
		if err := l.compactLocked(); err != nil {
			l.release()
			return nil, err
		}
	}

	l.logger.Debug("datafile loaded", "keys", len(l.keyDir), "size", l.offset)
	return l, nil
}

func (l *Log) load() error {
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, FilePerm)
	if err != nil {
		return fmt.Errorf("open datafile: %w", err)
	}
	l.file = f

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat datafile: %w", err)
	}

	reader := bufio.NewReader(f)
	var offset int64

	for {
		rec, err := record.Read(reader)
		if err == io.EOF {
			break
		}
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, record.ErrCorrupt) {
				reason := "torn record"
				if errors.Is(err, record.ErrCorrupt) {
					reason = "corrupt record"
				}
				l.logger.Warn("truncating datafile",
					"reason", reason,
					"offset", offset,
					"dropped_bytes", info.Size()-offset,
					"error", err,
				)
				if err := utils.TruncateAt(f, offset); err != nil {
					return fmt.Errorf("truncate datafile: %w", err)
				}
				break
			}
			return fmt.Errorf("read datafile: %w", err)
		}

		size := int64(rec.Size())
		key := string(rec.Key)

		if old, ok := l.keyDir[key]; ok {
			l.deadBytes += int64(old.RecordSize)
		}

		if rec.IsTombstone() {
			delete(l.keyDir, key)
			l.deadBytes += size
		} else {
			l.keyDir[key] = entryFor(rec, offset)
		}

		offset += size
	}

	l.offset = offset
	return nil
}

func entryFor(rec record.Record, offset int64) KeyDirEntry {
	return KeyDirEntry{
		Offset:     offset,
		RecordSize: uint32(rec.Size()),
		ValueSize:  uint32(len(rec.Value)),
		Timestamp:  rec.Timestamp,
	}
}

// Path returns the datafile path.
func (l *Log) Path() string {
	return l.path
}

// Insert adds key with value. It fails with ErrKeyExists if the key is
// already present.
func (l *Log) Insert(key string, value []byte) error {
	if err := validate(key, value); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if _, ok := l.keyDir[key]; ok {
		return ErrKeyExists
	}

	return l.set(key, value)
}

// Update replaces the value of an existing key. It fails with
// ErrKeyNotFound if the key is absent.
func (l *Log) Update(key string, value []byte) error {
	if err := validate(key, value); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}
	if _, ok := l.keyDir[key]; !ok {
		return ErrKeyNotFound
	}

	return l.set(key, value)
}

// Remove appends a tombstone for key. It fails with ErrKeyNotFound if the
// key is absent.
func (l *Log) Remove(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	old, ok := l.keyDir[key]
	if !ok {
		return ErrKeyNotFound
	}

	tombstone := record.Tombstone(key)
	if _, err := l.writeRecord(tombstone); err != nil {
		return err
	}

	l.deadBytes += int64(old.RecordSize) + int64(tombstone.Size())
	delete(l.keyDir, key)

	return nil
}

// FindOne returns the value stored under key.
func (l *Log) FindOne(key string) ([]byte, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrClosed
	}

	entry, ok := l.keyDir[key]
	if !ok {
		return nil, ErrKeyNotFound
	}

	rec, err := l.readRecord(key, entry)
	if err != nil {
		return nil, err
	}

	return rec.Value, nil
}

// Find returns up to limit live documents in ascending key order, skipping
// the first skip of them. A limit <= 0 returns everything after skip.
func (l *Log) Find(skip, limit int) ([]Doc, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if l.closed {
		return nil, ErrClosed
	}

	keys := l.sortedKeys()
	if skip >= len(keys) {
		return nil, nil
	}

	end := len(keys)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}

	docs := make([]Doc, 0, end-skip)
	for _, key := range keys[skip:end] {
		rec, err := l.readRecord(key, l.keyDir[key])
		if err != nil {
			return nil, err
		}
		docs = append(docs, Doc{Key: key, Value: rec.Value})
	}

	return docs, nil
}

// Count returns the number of live keys.
func (l *Log) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.keyDir)
}

// Close closes the datafile and releases its lock. Calling Close more than
// once is a no-op.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true

	return l.release()
}

func (l *Log) release() error {
	var errs []error

	if l.file != nil {
		if err := l.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close datafile: %w", err))
		}
		l.file = nil
	}

	if l.lockFile != nil {
		if err := lock.Unlock(l.lockFile); err != nil {
			errs = append(errs, fmt.Errorf("release lock: %w", err))
		}
		l.lockFile = nil
	}

	return errors.Join(errs...)
}

func (l *Log) set(key string, value []byte) error {
	rec := record.New(key, value)

	offset, err := l.writeRecord(rec)
	if err != nil {
		return err
	}

	if old, ok := l.keyDir[key]; ok {
		l.deadBytes += int64(old.RecordSize)
	}
	l.keyDir[key] = entryFor(rec, offset)

	return nil
}

func (l *Log) writeRecord(rec record.Record) (int64, error) {
	data := record.Encode(rec)

	n, err := l.file.WriteAt(data, l.offset)
	if err != nil {
		return 0, fmt.Errorf("write datafile: %w", err)
	}

	offset := l.offset
	l.offset += int64(n)
	return offset, nil
}

func (l *Log) readRecord(key string, entry KeyDirEntry) (record.Record, error) {
	buf := make([]byte, entry.RecordSize)

	n, err := l.file.ReadAt(buf, entry.Offset)
	if err != nil && !(err == io.EOF && n == len(buf)) {
		return record.Record{}, fmt.Errorf("read datafile: %w", err)
	}

	rec, err := record.Decode(buf)
	if err != nil {
		return record.Record{}, fmt.Errorf("read %q at offset %d: %w", key, entry.Offset, err)
	}
	if string(rec.Key) != key {
		return record.Record{}, fmt.Errorf("read %q at offset %d: %w", key, entry.Offset, record.ErrCorrupt)
	}

	return rec, nil
}

func (l *Log) sortedKeys() []string {
	return slices.Sorted(maps.Keys(l.keyDir))
}

func validate(key string, value []byte) error {
	if key == "" || len(key) > record.MaxKeySize {
		return ErrInvalidKey
	}
	if len(value) == 0 {
		return ErrEmptyValue
	}
	if len(value) > record.MaxValueSize {
		return fmt.Errorf("value of %d bytes exceeds %d", len(value), record.MaxValueSize)
	}
	return nil
}
