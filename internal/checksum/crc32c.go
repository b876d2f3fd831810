// Package checksum provides the two hash functions this module's on-disk
// format relies on: CRC32C for frame integrity (§6: every framed table
// entry carries a CRC32C of its payload) and XXH3 for the bloom filter's
// key hash and the setsum's per-entry hash.
package checksum

import (
	"hash/crc32"
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// Value computes the CRC32C checksum of data.
func Value(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// Extend computes the CRC32C of concat(a, data) where initCRC is the CRC32C
// of a.
func Extend(initCRC uint32, data []byte) uint32 {
	return crc32.Update(initCRC, crc32cTable, data)
}
