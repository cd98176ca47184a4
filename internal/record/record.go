package record

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"time"
)

// Record is a single entry of a packet log datafile.
//
// On disk a record is laid out as:
//
//	<crc:uint32><timestamp:int64><key_size:uint32><value_size:uint32><key><value>
//
// All integer fields are little endian. A record with an empty value is a
// tombstone: it marks the key as deleted for every record before it.
type Record struct {
	CRC       uint32 // Checksum of Key and Value
	Timestamp int64  // Unix Timestamp in Nanoseconds
	Key       []byte
	Value     []byte
}

// CRC (4) + Timestamp (8) + KeySize (4) + ValueSize (4)
const HeaderSize = 20

const (
	MaxKeySize   = 1 << 16
	MaxValueSize = 64 * 1024 * 1024
)

// ErrCorrupt is returned when a record header is implausible or its
// checksum does not match.
var ErrCorrupt = errors.New("corrupt record")

func New(key string, value []byte) Record {
	keyBytes := []byte(key)

	return Record{
		CRC:       CalculateCRC(keyBytes, value),
		Timestamp: time.Now().UnixNano(),
		Key:       keyBytes,
		Value:     value,
	}
}

func Tombstone(key string) Record {
	return New(key, nil)
}

func (r Record) IsTombstone() bool {
	return len(r.Value) == 0
}

// Size is the number of bytes the record occupies on disk.
func (r Record) Size() int {
	return HeaderSize + len(r.Key) + len(r.Value)
}

func Encode(r Record) []byte {
	buf := make([]byte, 0, r.Size())
	buf = binary.LittleEndian.AppendUint32(buf, r.CRC)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(r.Timestamp))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Key)))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(r.Value)))
	buf = append(buf, r.Key...)
	return append(buf, r.Value...)
}

// Read decodes the next record from r.
//
// io.EOF is returned only when r is exhausted exactly at a record boundary.
// A record cut short returns io.ErrUnexpectedEOF, and a record whose header
// or checksum is invalid returns ErrCorrupt.
func Read(r io.Reader) (Record, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return Record{}, err
	}

	crc := binary.LittleEndian.Uint32(header[0:4])
	timestamp := int64(binary.LittleEndian.Uint64(header[4:12]))
	keySize := binary.LittleEndian.Uint32(header[12:16])
	valueSize := binary.LittleEndian.Uint32(header[16:20])

	if keySize == 0 || keySize > MaxKeySize || valueSize > MaxValueSize {
		return Record{}, ErrCorrupt
	}

	body := make([]byte, keySize+valueSize)
	if _, err := io.ReadFull(r, body); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return Record{}, err
	}

	rec := Record{
		CRC:       crc,
		Timestamp: timestamp,
		Key:       body[:keySize:keySize],
		Value:     body[keySize:],
	}
	if !ValidateCRC(rec.Key, rec.Value, rec.CRC) {
		return Record{}, ErrCorrupt
	}

	return rec, nil
}

func Decode(data []byte) (Record, error) {
	return Read(bytes.NewReader(data))
}
