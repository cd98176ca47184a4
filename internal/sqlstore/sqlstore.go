// Package sqlstore implements the packet log contract on an embedded SQLite
// database, as an alternative to the append-only datafile in core.
package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/0xRadioAc7iv/go-packetstore/core"

	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS packets (
	id  TEXT PRIMARY KEY,
	doc BLOB NOT NULL
)`

// DB stores one document per key in the packets table.
type DB struct {
	path string
	db   *sql.DB

	mu     sync.RWMutex
	closed bool
}

// Open creates or opens the SQLite database at path.
//
// The database is configured with WAL journaling and a single connection,
// so writes are serialized the same way the datafile engine serializes them.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), core.DirPerm); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &DB{path: path, db: db}, nil
}

func (d *DB) Path() string {
	return d.path
}

// Insert fails with core.ErrKeyExists when the key is already present.
func (d *DB) Insert(key string, value []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return core.ErrClosed
	}
	if len(value) == 0 {
		return core.ErrEmptyValue
	}

	_, err := d.db.Exec(`INSERT INTO packets (id, doc) VALUES (?, ?)`, key, value)
	if err != nil {
		if isConstraintViolation(err) {
			return core.ErrKeyExists
		}
		return fmt.Errorf("insert %q: %w", key, err)
	}

	return nil
}

// Update fails with core.ErrKeyNotFound when the key is absent.
func (d *DB) Update(key string, value []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return core.ErrClosed
	}
	if len(value) == 0 {
		return core.ErrEmptyValue
	}

	res, err := d.db.Exec(`UPDATE packets SET doc = ? WHERE id = ?`, value, key)
	if err != nil {
		return fmt.Errorf("update %q: %w", key, err)
	}

	return expectOneRow(res)
}

func (d *DB) Remove(key string) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return core.ErrClosed
	}

	res, err := d.db.Exec(`DELETE FROM packets WHERE id = ?`, key)
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}

	return expectOneRow(res)
}

func (d *DB) FindOne(key string) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, core.ErrClosed
	}

	var doc []byte
	err := d.db.QueryRow(`SELECT doc FROM packets WHERE id = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrKeyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find %q: %w", key, err)
	}

	return doc, nil
}

// Find returns up to limit documents ordered by key after skipping skip of
// them. A limit <= 0 returns everything after skip.
func (d *DB) Find(skip, limit int) ([]core.Doc, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, core.ErrClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := d.db.Query(`SELECT id, doc FROM packets ORDER BY id LIMIT ? OFFSET ?`, limit, skip)
	if err != nil {
		return nil, fmt.Errorf("find: %w", err)
	}
	defer rows.Close()

	var docs []core.Doc
	for rows.Next() {
		var doc core.Doc
		if err := rows.Scan(&doc.Key, &doc.Value); err != nil {
			return nil, fmt.Errorf("find: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

func (d *DB) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return 0
	}

	var n int
	if err := d.db.QueryRow(`SELECT COUNT(*) FROM packets`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Compact checkpoints the WAL and rebuilds the database file.
func (d *DB) Compact() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return core.ErrClosed
	}

	if _, err := d.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	if _, err := d.db.Exec(`VACUUM`); err != nil {
		return fmt.Errorf("vacuum: %w", err)
	}

	return nil
}

func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil
	}
	d.closed = true

	return d.db.Close()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrKeyNotFound
	}
	return nil
}

func isConstraintViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "PRIMARY KEY constraint failed")
}
