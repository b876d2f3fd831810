// Package block implements the prefix-compressed key-value block format:
// the builder that accumulates entries into a block, and the cursor that
// seeks/iterates a sealed block's bytes.
package block

import (
	"github.com/nyxdb/sstcore/internal/encoding"
)

// Metadata locates a block (or any other framed byte range) within an SST
// file: its start offset, its limit (end) offset, and the CRC32C of its payload. This is
// the value stored alongside each index-block entry and each trailer extent.
type Metadata struct {
	Start  uint64
	Limit  uint64
	CRC32C uint32
}

// Size returns the number of bytes the block occupies.
func (m Metadata) Size() uint64 {
	return m.Limit - m.Start
}

// EncodeTo appends the varint-encoded handle to dst.
func (m Metadata) EncodeTo(dst []byte) []byte {
	dst = encoding.AppendVarint64(dst, m.Start)
	dst = encoding.AppendVarint64(dst, m.Limit)
	dst = encoding.AppendFixed32(dst, m.CRC32C)
	return dst
}

// DecodeMetadata decodes a handle previously written by EncodeTo, returning
// the handle and the number of bytes consumed.
func DecodeMetadata(src []byte) (Metadata, int, error) {
	start, n1, err := encoding.DecodeVarint64(src)
	if err != nil {
		return Metadata{}, 0, err
	}
	limit, n2, err := encoding.DecodeVarint64(src[n1:])
	if err != nil {
		return Metadata{}, 0, err
	}
	if n1+n2+4 > len(src) {
		return Metadata{}, 0, encoding.ErrBufferTooSmall
	}
	crc := encoding.DecodeFixed32(src[n1+n2:])
	return Metadata{Start: start, Limit: limit, CRC32C: crc}, n1 + n2 + 4, nil
}
