package record

import "hash/crc32"

// CalculateCRC computes the CRC32 (IEEE) checksum of key followed by value.
func CalculateCRC(key, value []byte) uint32 {
	checksum := crc32.ChecksumIEEE(key)
	return crc32.Update(checksum, crc32.IEEETable, value)
}

// ValidateCRC returns true if the provided checksum matches the computed CRC32 of the key-value pair
func ValidateCRC(key, value []byte, checksum uint32) bool {
	return CalculateCRC(key, value) == checksum
}
