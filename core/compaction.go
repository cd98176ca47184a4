package core

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"

	"github.com/0xRadioAc7iv/go-packetstore/internal/record"
	"github.com/0xRadioAc7iv/go-packetstore/internal/utils"
)

// Compact rewrites the datafile so that it holds exactly one record per
// live key, dropping overwritten records and tombstones.
//
// The live records are written to path+".compact", synced, and renamed over
// the datafile. Records keep their original timestamps and checksums.
func (l *Log) Compact() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ErrClosed
	}

	return l.compactLocked()
}

// DeadBytes reports how many bytes of the datafile a compaction would reclaim.
func (l *Log) DeadBytes() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.deadBytes
}

func (l *Log) compactLocked() error {
	tmpPath := l.path + CompactSuffix

	keyDir, size, err := l.writeCompacted(tmpPath)
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := l.file.Close(); err != nil {
		l.logger.Warn("error closing datafile before compaction rename", "error", err)
	}
	l.file = nil

	if err := os.Rename(tmpPath, l.path); err != nil {
		os.Remove(tmpPath)
		if reopenErr := l.reopen(); reopenErr != nil {
			l.fail()
			return fmt.Errorf("rename compacted datafile: %w (reopen: %v)", err, reopenErr)
		}
		return fmt.Errorf("rename compacted datafile: %w", err)
	}

	if err := utils.SyncDir(filepath.Dir(l.path)); err != nil {
		l.logger.Debug("could not sync datafile directory", "error", err)
	}

	if err := l.reopen(); err != nil {
		l.fail()
		return err
	}

	reclaimed := l.offset - size
	l.keyDir = keyDir
	l.offset = size
	l.deadBytes = 0

	l.logger.Debug("datafile compacted", "keys", len(keyDir), "size", size, "reclaimed", reclaimed)
	return nil
}

func (l *Log) writeCompacted(tmpPath string) (KeyDir, int64, error) {
	tmp, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FilePerm)
	if err != nil {
		return nil, 0, fmt.Errorf("create compaction file: %w", err)
	}
	defer tmp.Close()

	w := bufio.NewWriter(tmp)
	keyDir := make(KeyDir, len(l.keyDir))
	var offset int64

	for _, key := range l.sortedKeys() {
		rec, err := l.readRecord(key, l.keyDir[key])
		if err != nil {
			return nil, 0, err
		}

		if _, err := w.Write(record.Encode(rec)); err != nil {
			return nil, 0, fmt.Errorf("write compaction file: %w", err)
		}

		keyDir[key] = entryFor(rec, offset)
		offset += int64(rec.Size())
	}

	if err := w.Flush(); err != nil {
		return nil, 0, fmt.Errorf("write compaction file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, 0, fmt.Errorf("sync compaction file: %w", err)
	}

	return keyDir, offset, nil
}

// fail closes the log after the datafile handle was lost mid-compaction.
func (l *Log) fail() {
	l.closed = true
	if err := l.release(); err != nil {
		l.logger.Error("error releasing datafile", "error", err)
	}
}

func (l *Log) reopen() error {
	f, err := os.OpenFile(l.path, os.O_RDWR, FilePerm)
	if err != nil {
		return fmt.Errorf("reopen datafile: %w", err)
	}
	l.file = f
	return nil
}
