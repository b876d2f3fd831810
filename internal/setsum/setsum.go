// Package setsum implements an order-independent, invertible multiset
// digest: the running sum of every entry's hash, taken lane-wise modulo
// eight distinct primes below 2^32. Because addition here is commutative
// and has an inverse (modular subtraction), the digest of a set depends
// only on its members, never on the order they were folded in, and the
// digest of a union can be computed from the digests of its disjoint parts
// without re-hashing anything.
package setsum

import (
	"encoding/hex"

	"github.com/nyxdb/sstcore/internal/checksum"
	"github.com/nyxdb/sstcore/internal/encoding"
)

// lanePrimes are the eight largest primes below 2^32, one per lane. Their
// product exceeds 2^255, matching the combined-space requirement. These
// constants are part of the on-disk/wire contract: changing them changes
// every previously computed digest.
var lanePrimes = [8]uint32{
	4294967291,
	4294967279,
	4294967231,
	4294967197,
	4294967189,
	4294967161,
	4294967143,
	4294967111,
}

const (
	tagPut = 0x01
	tagDel = 0x00
)

// Setsum is the 32-byte running state, held as eight 32-bit lanes.
type Setsum struct {
	lanes [8]uint32
}

// New returns the zero (identity) Setsum.
func New() Setsum {
	return Setsum{}
}

func laneAdd(a, b, prime uint32) uint32 {
	return uint32((uint64(a) + uint64(b)) % uint64(prime))
}

func laneSub(a, b, prime uint32) uint32 {
	return uint32((uint64(a) + uint64(prime) - uint64(b)%uint64(prime)) % uint64(prime))
}

func wordsOf(h [32]byte) [8]uint32 {
	var w [8]uint32
	for i := range w {
		off := i * 4
		w[i] = uint32(h[off]) | uint32(h[off+1])<<8 | uint32(h[off+2])<<16 | uint32(h[off+3])<<24
	}
	return w
}

func (s *Setsum) addWords(w [8]uint32) {
	for i := range s.lanes {
		s.lanes[i] = laneAdd(s.lanes[i], w[i]%lanePrimes[i], lanePrimes[i])
	}
}

func (s *Setsum) subWords(w [8]uint32) {
	for i := range s.lanes {
		s.lanes[i] = laneSub(s.lanes[i], w[i]%lanePrimes[i], lanePrimes[i])
	}
}

// canonicalPut encodes (key, timestamp, value) with a domain-separating tag
// distinct from canonicalDel, so a put and a del of the same (key,
// timestamp) never collide.
func canonicalPut(key []byte, ts uint64, value []byte) []byte {
	buf := make([]byte, 0, 1+encoding.MaxVarint32Length+len(key)+8+encoding.MaxVarint32Length+len(value))
	buf = append(buf, tagPut)
	buf = encoding.AppendLengthPrefixedSlice(buf, key)
	buf = encoding.AppendFixed64(buf, ts)
	buf = encoding.AppendLengthPrefixedSlice(buf, value)
	return buf
}

func canonicalDel(key []byte, ts uint64) []byte {
	buf := make([]byte, 0, 1+encoding.MaxVarint32Length+len(key)+8)
	buf = append(buf, tagDel)
	buf = encoding.AppendLengthPrefixedSlice(buf, key)
	buf = encoding.AppendFixed64(buf, ts)
	return buf
}

// Put folds a live value entry into the state.
func (s *Setsum) Put(key []byte, ts uint64, value []byte) {
	h := checksum.Hash256(canonicalPut(key, ts, value))
	s.addWords(wordsOf(h))
}

// Del folds a tombstone entry into the state.
func (s *Setsum) Del(key []byte, ts uint64) {
	h := checksum.Hash256(canonicalDel(key, ts))
	s.addWords(wordsOf(h))
}

// SubtractPut removes a previously-put entry's contribution, the inverse of
// Put.
func (s *Setsum) SubtractPut(key []byte, ts uint64, value []byte) {
	h := checksum.Hash256(canonicalPut(key, ts, value))
	s.subWords(wordsOf(h))
}

// SubtractDel removes a previously-deleted entry's contribution, the
// inverse of Del.
func (s *Setsum) SubtractDel(key []byte, ts uint64) {
	h := checksum.Hash256(canonicalDel(key, ts))
	s.subWords(wordsOf(h))
}

// Compose adds another Setsum's state into this one, yielding the digest of
// the union of the two (disjoint) multisets.
func (s *Setsum) Compose(other Setsum) {
	s.addWords(other.lanes)
}

// Subtract removes another Setsum's state from this one, yielding the
// digest of the set difference.
func (s *Setsum) Subtract(other Setsum) {
	s.subWords(other.lanes)
}

// Digest serializes the lanes in a fixed little-endian byte order.
func (s Setsum) Digest() [32]byte {
	var out [32]byte
	for i, lane := range s.lanes {
		off := i * 4
		out[off+0] = byte(lane)
		out[off+1] = byte(lane >> 8)
		out[off+2] = byte(lane >> 16)
		out[off+3] = byte(lane >> 24)
	}
	return out
}

// Hexdigest is the lowercase hex encoding of Digest.
func (s Setsum) Hexdigest() string {
	d := s.Digest()
	return hex.EncodeToString(d[:])
}

// FromDigest reconstructs a Setsum from a previously serialized digest.
func FromDigest(d [32]byte) Setsum {
	var s Setsum
	for i := range s.lanes {
		off := i * 4
		s.lanes[i] = uint32(d[off]) | uint32(d[off+1])<<8 | uint32(d[off+2])<<16 | uint32(d[off+3])<<24
	}
	return s
}

// IsZero reports whether the state is the identity element.
func (s Setsum) IsZero() bool {
	for _, lane := range s.lanes {
		if lane != 0 {
			return false
		}
	}
	return true
}
