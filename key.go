package sst

import "bytes"

// Key is an owned logical key: a user-supplied byte string paired with a
// timestamp. Keys are totally ordered ascending by UserKey, then
// descending by Timestamp (newest first) — every comparison in this module
// funnels through Compare so the tie-break is defined in exactly one place.
type Key struct {
	UserKey   []byte
	Timestamp uint64
}

// KeyRef is a Key borrowed from a cursor's internal buffer. It is only
// valid until the cursor's next positioning call; callers who need it to
// outlive that call must take Clone().
type KeyRef struct {
	UserKey   []byte
	Timestamp uint64
}

// Clone copies a KeyRef into an owned Key.
func (k KeyRef) Clone() Key {
	return Key{UserKey: append([]byte(nil), k.UserKey...), Timestamp: k.Timestamp}
}

// AsRef views an owned Key as a KeyRef without copying.
func (k Key) AsRef() KeyRef {
	return KeyRef{UserKey: k.UserKey, Timestamp: k.Timestamp}
}

// Compare implements the total order from §3: ascending by UserKey, then
// descending by Timestamp.
func Compare(a, b KeyRef) int {
	if c := bytes.Compare(a.UserKey, b.UserKey); c != 0 {
		return c
	}
	switch {
	case a.Timestamp > b.Timestamp:
		return -1
	case a.Timestamp < b.Timestamp:
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts strictly before b.
func Less(a, b KeyRef) bool { return Compare(a, b) < 0 }

// KeyValuePair is an owned key paired with its value. A nil Value with
// Tombstone set to false is a valid (empty) live value; Tombstone
// distinguishes a delete marker from an empty value.
type KeyValuePair struct {
	Key       Key
	Value     []byte
	Tombstone bool
}

// KeyValueRef is a KeyValuePair borrowed from a cursor's internal buffer.
type KeyValueRef struct {
	Key       KeyRef
	Value     []byte
	Tombstone bool
}

// Clone copies a KeyValueRef into an owned KeyValuePair.
func (r KeyValueRef) Clone() KeyValuePair {
	kvp := KeyValuePair{Key: r.Key.Clone(), Tombstone: r.Tombstone}
	if r.Value != nil {
		kvp.Value = append([]byte(nil), r.Value...)
	}
	return kvp
}
