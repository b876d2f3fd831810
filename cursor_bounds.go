package sst

import "bytes"

// BoundsCursor restricts a child cursor's visible range to user keys in
// [lo, hi], where each endpoint may be Included, Excluded, or Unbounded.
// Like the other adaptors, SeekToFirst/SeekToLast only arm the cursor at
// BeforeFirst/AfterLast; the bound is resolved against the child on the
// first Next/Prev call.
type BoundsCursor struct {
	child  Cursor
	lo, hi Endpoint
	pos    cursorPos
	err    error
}

// NewBoundsCursor wraps child, restricting visibility to [lo, hi].
func NewBoundsCursor(child Cursor, lo, hi Endpoint) *BoundsCursor {
	return &BoundsCursor{child: child, lo: lo, hi: hi}
}

func (b *BoundsCursor) Valid() bool { return b.pos == posAt && b.err == nil }
func (b *BoundsCursor) Key() KeyRef {
	if !b.Valid() {
		return KeyRef{}
	}
	return b.child.Key()
}
func (b *BoundsCursor) Value() []byte {
	if !b.Valid() {
		return nil
	}
	return b.child.Value()
}
func (b *BoundsCursor) Tombstone() bool {
	if !b.Valid() {
		return false
	}
	return b.child.Tombstone()
}
func (b *BoundsCursor) Err() error { return b.err }

func (b *BoundsCursor) setErr() bool {
	if err := b.child.Err(); err != nil {
		b.err = err
		b.pos = posBeforeFirst
		return true
	}
	return false
}

// aboveLo and belowHi compare UserKey only: bounds in this codebase are
// always constructed with a zero Timestamp, which under Compare's
// descending-timestamp tie-break is the maximal member of its UserKey's
// equivalence class, not a UserKey-only boundary. The range [lo, hi]
// restricts visibility by user key, independent of timestamp.
func (b *BoundsCursor) aboveLo(k KeyRef) bool {
	switch b.lo.Kind {
	case Included:
		return bytes.Compare(k.UserKey, b.lo.Key.UserKey) >= 0
	case Excluded:
		return bytes.Compare(k.UserKey, b.lo.Key.UserKey) > 0
	default:
		return true
	}
}

func (b *BoundsCursor) belowHi(k KeyRef) bool {
	switch b.hi.Kind {
	case Included:
		return bytes.Compare(k.UserKey, b.hi.Key.UserKey) <= 0
	case Excluded:
		return bytes.Compare(k.UserKey, b.hi.Key.UserKey) < 0
	default:
		return true
	}
}

func (b *BoundsCursor) clampForward() {
	if b.setErr() {
		return
	}
	if !b.child.Valid() || !b.belowHi(b.child.Key()) {
		b.pos = posAfterLast
		return
	}
	b.pos = posAt
}

func (b *BoundsCursor) clampBackward() {
	if b.setErr() {
		return
	}
	if !b.child.Valid() || !b.aboveLo(b.child.Key()) {
		b.pos = posBeforeFirst
		return
	}
	b.pos = posAt
}

// moveToLo positions the child at the lower bound (the first candidate
// entry the bound admits) and clamps against the upper bound.
func (b *BoundsCursor) moveToLo() {
	switch b.lo.Kind {
	case Unbounded:
		b.child.SeekToFirst()
		b.child.Next()
	default:
		b.child.Seek(b.lo.Key)
		if b.lo.Kind == Excluded && b.child.Valid() && bytes.Equal(b.child.Key().UserKey, b.lo.Key.UserKey) {
			b.child.Next()
		}
	}
	b.clampForward()
}

// moveToHi positions the child at the upper bound and clamps against the
// lower bound.
func (b *BoundsCursor) moveToHi() {
	switch b.hi.Kind {
	case Unbounded:
		b.child.SeekToLast()
		b.child.Prev()
	default:
		b.child.Seek(b.hi.Key)
		if b.hi.Kind == Included {
			// Step past every version of hi so Prev lands on its oldest one.
			for b.child.Valid() && bytes.Equal(b.child.Key().UserKey, b.hi.Key.UserKey) {
				b.child.Next()
			}
		}
		b.child.Prev()
	}
	b.clampBackward()
}

// SeekToFirst arms the cursor at BeforeFirst; the lower bound is resolved
// against the child on the first Next call.
func (b *BoundsCursor) SeekToFirst() {
	b.err = nil
	b.pos = posBeforeFirst
}

// SeekToLast arms the cursor at AfterLast; the upper bound is resolved
// against the child on the first Prev call.
func (b *BoundsCursor) SeekToLast() {
	b.err = nil
	b.pos = posAfterLast
}

func (b *BoundsCursor) Seek(k KeyRef) {
	b.err = nil
	if !b.aboveLo(k) {
		b.moveToLo()
		return
	}
	b.child.Seek(k)
	b.clampForward()
}

func (b *BoundsCursor) Next() {
	if b.pos == posAfterLast {
		return
	}
	if b.pos == posBeforeFirst {
		b.moveToLo()
		return
	}
	b.child.Next()
	b.clampForward()
}

func (b *BoundsCursor) Prev() {
	if b.pos == posBeforeFirst {
		return
	}
	if b.pos == posAfterLast {
		b.moveToHi()
		return
	}
	b.child.Prev()
	b.clampBackward()
}
