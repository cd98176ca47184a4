package core

// KeyDirEntry represents the in-memory index entry for a single key.
//
// Each entry points to the latest record written for the key. Older
// versions and tombstones still present in the datafile are dead bytes
// until the next compaction.
//
// The KeyDir is rebuilt on open by scanning the datafile.
type KeyDirEntry struct {
	Offset     int64  // Byte offset in the datafile where the record starts
	RecordSize uint32 // Total size of the record on disk (header + key + value)
	ValueSize  uint32 // Size of the value in bytes
	Timestamp  int64  // Timestamp of the record
}

// KeyDir is the in-memory index mapping keys to their latest on-disk entries.
type KeyDir map[string]KeyDirEntry
