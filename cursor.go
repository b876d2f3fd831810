package sst

// Cursor is the abstract position-in-a-sequence contract from §3: a cursor
// sits at BeforeFirst, AfterLast, or on some KeyValueRef. Methods that move
// the cursor (SeekToFirst/SeekToLast/Seek/Next/Prev) never return an error
// directly — any failure is recorded and surfaced through Err(), mirroring
// the sticky-error iterator convention the block-based table package uses
// internally, so error checks don't have to happen after every single
// step.
type Cursor interface {
	// Valid reports whether the cursor currently sits on an entry.
	Valid() bool
	// Key returns the current entry's key. Only valid when Valid() is true.
	Key() KeyRef
	// Value returns the current entry's value, or nil for a tombstone.
	// Only valid when Valid() is true.
	Value() []byte
	// Tombstone reports whether the current entry is a delete marker.
	// Only valid when Valid() is true.
	Tombstone() bool

	// SeekToFirst positions at BeforeFirst; the caller must call Next to
	// reach the first entry.
	SeekToFirst()
	// SeekToLast positions at AfterLast; the caller must call Prev to reach
	// the last entry.
	SeekToLast()
	// Seek positions at the least entry >= (k.UserKey, +inf-timestamp), or
	// AfterLast if none exists.
	Seek(k KeyRef)
	// Next advances to the next entry in ascending order, or to AfterLast.
	Next()
	// Prev moves to the previous entry in descending order, or to
	// BeforeFirst.
	Prev()

	// Err returns the first error encountered, if any. Once set, the
	// cursor's position is unspecified until repositioned with a seek
	// call.
	Err() error
}

// Endpoint describes one side of a BoundsCursor range.
type Endpoint struct {
	Kind EndpointKind
	Key  KeyRef
}

// EndpointKind distinguishes an inclusive bound, an exclusive bound, or no
// bound at all.
type EndpointKind int

const (
	Unbounded EndpointKind = iota
	Included
	Excluded
)
