// Package divide synthesizes the index-block separator keys an SST builder
// needs between adjacent data blocks: the shortest key that still sorts
// strictly between the last key of one block and the first key of the
// next, and the least key strictly greater than a given one (used when
// sealing the final block).
package divide

// SharedPrefixLen returns the length of the common byte prefix of a and b.
func SharedPrefixLen(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

// Divider returns the shortest key (D, tD) such that (lastKey, lastTS) <=
// (D, tD) < (nextKey, nextTS) under the (key asc, timestamp desc) order.
//
// It finds the first byte position s where lastKey and nextKey diverge; if
// lastKey's byte there can be incremented without reaching or passing
// nextKey's byte, the divider is lastKey's prefix through s with that byte
// incremented, at timestamp 0 (the largest possible timestamp in this
// order, so it sorts immediately after any real entry with that prefix).
// Otherwise no such short key exists and the divider is (lastKey, lastTS)
// itself.
func Divider(lastKey []byte, lastTS uint64, nextKey []byte, nextTS uint64) ([]byte, uint64) {
	s := SharedPrefixLen(lastKey, nextKey)
	if s < len(lastKey) && s < len(nextKey) && int(lastKey[s])+1 < int(nextKey[s]) {
		d := make([]byte, s+1)
		copy(d, lastKey[:s])
		d[s] = lastKey[s] + 1
		return d, 0
	}
	return append([]byte(nil), lastKey...), lastTS
}

// MinimalSuccessorKey returns a (key, timestamp) strictly greater than
// (key, ts) under the (key asc, timestamp desc) order. For ts > 0 it is the
// least such key: decrementing the timestamp moves to the next key in the
// order (timestamps sort descending within a key). For ts == 0 no smaller
// timestamp exists for key, so it returns key extended with a trailing zero
// byte, at timestamp 0; that is greater than (key, 0) but not the least
// such key, since (key+0x00, t) sorts before it for every t > 0.
func MinimalSuccessorKey(key []byte, ts uint64) ([]byte, uint64) {
	if ts > 0 {
		return append([]byte(nil), key...), ts - 1
	}
	out := make([]byte, len(key)+1)
	copy(out, key)
	out[len(key)] = 0x00
	return out, 0
}
