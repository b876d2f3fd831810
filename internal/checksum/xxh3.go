package checksum

import (
	"github.com/zeebo/xxh3"
)

// Hash64 computes the 64-bit XXH3 hash of data using the default seed. The
// split-block bloom filter uses this to derive its per-key block index and
// probe bit positions (§4.2).
func Hash64(data []byte) uint64 {
	return xxh3.Hash(data)
}

// Hash64Seed computes the 64-bit XXH3 hash of data under the given seed.
// Hash256 calls it with four distinct seeds and concatenates the results
// into a 256-bit digest (§4.1), which Setsum splits into eight 32-bit lanes.
func Hash64Seed(data []byte, seed uint64) uint64 {
	return xxh3.HashSeed(data, seed)
}

// Hash256 derives a 256-bit hash of data by concatenating four distinctly
// seeded 64-bit XXH3 hashes, little-endian. It is the building block Setsum
// uses before splitting the result into eight little-endian uint32 words
// and reducing each modulo its lane's prime.
func Hash256(data []byte) [32]byte {
	var out [32]byte
	for i, seed := range [4]uint64{
		0x73657473756d3030, // "setsum00"
		0x73657473756d3031, // "setsum01"
		0x73657473756d3032, // "setsum02"
		0x73657473756d3033, // "setsum03"
	} {
		h := xxh3.HashSeed(data, seed)
		off := i * 8
		out[off+0] = byte(h)
		out[off+1] = byte(h >> 8)
		out[off+2] = byte(h >> 16)
		out[off+3] = byte(h >> 24)
		out[off+4] = byte(h >> 32)
		out[off+5] = byte(h >> 40)
		out[off+6] = byte(h >> 48)
		out[off+7] = byte(h >> 56)
	}
	return out
}
