package sst

import (
	"bytes"
	"math"
)

// PruningCursor applies MVCC snapshot semantics to a child cursor: only
// entries with Timestamp <= T are visible, and among entries sharing a
// user_key, only the one with the greatest visible timestamp is exposed.
// A tombstone visible at T therefore hides every older put of the same
// key, since it is itself the greatest-timestamp entry <= T.
//
// Following the §3 sentinel discipline, SeekToFirst/SeekToLast only arm the
// cursor (BeforeFirst/AfterLast) without materializing an entry; the first
// Next/Prev call does that.
type PruningCursor struct {
	child Cursor
	ts    uint64
	pos   cursorPos
	err   error
}

// NewPruningCursor wraps child with a snapshot read timestamp ts.
func NewPruningCursor(child Cursor, ts uint64) *PruningCursor {
	return &PruningCursor{child: child, ts: ts}
}

func (p *PruningCursor) Valid() bool { return p.pos == posAt && p.err == nil }
func (p *PruningCursor) Key() KeyRef {
	if !p.Valid() {
		return KeyRef{}
	}
	return p.child.Key()
}
func (p *PruningCursor) Value() []byte {
	if !p.Valid() {
		return nil
	}
	return p.child.Value()
}
func (p *PruningCursor) Tombstone() bool {
	if !p.Valid() {
		return false
	}
	return p.child.Tombstone()
}
func (p *PruningCursor) Err() error { return p.err }

func (p *PruningCursor) setErr() bool {
	if err := p.child.Err(); err != nil {
		p.err = err
		p.pos = posBeforeFirst
		return true
	}
	return false
}

// SeekToFirst arms the child at BeforeFirst; no entry is materialized until
// Next is called.
func (p *PruningCursor) SeekToFirst() {
	p.err = nil
	p.child.SeekToFirst()
	p.pos = posBeforeFirst
}

// SeekToLast arms the child at AfterLast; no entry is materialized until
// Prev is called.
func (p *PruningCursor) SeekToLast() {
	p.err = nil
	p.child.SeekToLast()
	p.pos = posAfterLast
}

func (p *PruningCursor) Seek(k KeyRef) {
	p.err = nil
	p.child.Seek(k)
	p.skipForwardToVisible(nil)
}

func (p *PruningCursor) Next() {
	if p.pos == posAfterLast {
		return
	}
	if p.pos == posBeforeFirst {
		p.child.Next()
		p.skipForwardToVisible(nil)
		return
	}
	lastKey := append([]byte(nil), p.child.Key().UserKey...)
	p.child.Next()
	p.skipForwardToVisible(lastKey)
}

// skipForwardToVisible advances the child, skipping entries that belong to
// excludeKey (the previously emitted key, if any) and entries newer than
// the snapshot, until landing on the first entry with a distinct,
// as-of-T-visible key, or AfterLast.
func (p *PruningCursor) skipForwardToVisible(excludeKey []byte) {
	for {
		if p.setErr() {
			return
		}
		if !p.child.Valid() {
			p.pos = posAfterLast
			return
		}
		if excludeKey != nil && bytes.Equal(p.child.Key().UserKey, excludeKey) {
			p.child.Next()
			continue
		}
		excludeKey = nil
		if p.child.Key().Timestamp > p.ts {
			p.child.Next()
			continue
		}
		p.pos = posAt
		return
	}
}

func (p *PruningCursor) Prev() {
	if p.pos == posBeforeFirst {
		return
	}
	if p.pos == posAfterLast {
		p.child.Prev()
		p.skipBackwardToVisible()
		return
	}
	lastKey := append([]byte(nil), p.child.Key().UserKey...)
	for {
		p.child.Prev()
		if p.setErr() {
			return
		}
		if !p.child.Valid() {
			p.pos = posBeforeFirst
			return
		}
		if bytes.Equal(p.child.Key().UserKey, lastKey) {
			continue
		}
		break
	}
	p.skipBackwardToVisible()
}

// skipBackwardToVisible assumes the child sits somewhere within a key
// group not yet known to have a visible entry, and walks backward through
// key groups until it finds one whose greatest timestamp <= T exists,
// landing exactly on that entry.
func (p *PruningCursor) skipBackwardToVisible() {
	for {
		if p.setErr() {
			return
		}
		if !p.child.Valid() {
			p.pos = posBeforeFirst
			return
		}
		groupKey := append([]byte(nil), p.child.Key().UserKey...)
		p.child.Seek(KeyRef{UserKey: groupKey, Timestamp: math.MaxUint64})
		for p.child.Valid() && p.child.Key().Timestamp > p.ts && bytes.Equal(p.child.Key().UserKey, groupKey) {
			p.child.Next()
		}
		if p.setErr() {
			return
		}
		if p.child.Valid() && bytes.Equal(p.child.Key().UserKey, groupKey) && p.child.Key().Timestamp <= p.ts {
			p.pos = posAt
			return
		}
		// No visible entry in this key group; step back to the previous
		// one and try again.
		p.child.Seek(KeyRef{UserKey: groupKey, Timestamp: math.MaxUint64})
		if p.setErr() {
			return
		}
		for {
			p.child.Prev()
			if p.setErr() {
				return
			}
			if !p.child.Valid() {
				p.pos = posBeforeFirst
				return
			}
			if !bytes.Equal(p.child.Key().UserKey, groupKey) {
				break
			}
		}
	}
}
