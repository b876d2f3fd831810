package sst

// direction tracks which way a MergingCursor's children are currently
// synchronized, since switching between Next and Prev requires
// repositioning every non-selected child relative to the current key.
type direction int

const (
	dirForward direction = iota
	dirReverse
)

type cursorPos int

const (
	posBeforeFirst cursorPos = iota
	posAt
	posAfterLast
)

// MergingCursor merges the order-sorted union of N child cursors. On a tie
// (identical key and timestamp across children), exactly one entry is
// emitted; the lowest-index child wins, deterministically.
//
// Following the §3 sentinel discipline, SeekToFirst/SeekToLast only arm the
// children (calling their own SeekToFirst/SeekToLast) without materializing
// an entry; the first Next/Prev call does that.
type MergingCursor struct {
	children []Cursor
	dir      direction
	current  int // index into children of the currently selected cursor
	pos      cursorPos
	err      error
}

// NewMergingCursor returns a cursor over the merged union of children.
// Children are taken in the priority order used to break ties.
func NewMergingCursor(children []Cursor) *MergingCursor {
	return &MergingCursor{children: children, current: -1}
}

func (m *MergingCursor) Valid() bool { return m.pos == posAt && m.err == nil }

func (m *MergingCursor) Key() KeyRef {
	if !m.Valid() {
		return KeyRef{}
	}
	return m.children[m.current].Key()
}

func (m *MergingCursor) Value() []byte {
	if !m.Valid() {
		return nil
	}
	return m.children[m.current].Value()
}

func (m *MergingCursor) Tombstone() bool {
	if !m.Valid() {
		return false
	}
	return m.children[m.current].Tombstone()
}

func (m *MergingCursor) Err() error { return m.err }

func (m *MergingCursor) SeekToFirst() {
	m.err = nil
	for _, c := range m.children {
		c.SeekToFirst()
	}
	m.dir = dirForward
	m.pos = posBeforeFirst
	m.current = -1
}

func (m *MergingCursor) SeekToLast() {
	m.err = nil
	for _, c := range m.children {
		c.SeekToLast()
	}
	m.dir = dirReverse
	m.pos = posAfterLast
	m.current = -1
}

func (m *MergingCursor) Seek(k KeyRef) {
	m.err = nil
	for _, c := range m.children {
		c.Seek(k)
	}
	m.dir = dirForward
	m.findSmallest()
}

func (m *MergingCursor) Next() {
	if m.pos == posAfterLast {
		return
	}
	if m.pos == posBeforeFirst {
		for _, c := range m.children {
			c.Next()
		}
		m.dir = dirForward
		m.findSmallest()
		return
	}
	if m.dir != dirForward {
		key := m.Key()
		for i, c := range m.children {
			if i == m.current {
				continue
			}
			c.Seek(key)
			if c.Valid() && Compare(c.Key(), key) == 0 {
				c.Next()
			}
		}
		m.dir = dirForward
	}
	cur := m.Key().Clone()
	m.children[m.current].Next()
	// Step every other child off the entry just emitted, so a tie is
	// yielded exactly once.
	for i, c := range m.children {
		if i != m.current && c.Valid() && Compare(c.Key(), cur.AsRef()) == 0 {
			c.Next()
		}
	}
	m.findSmallest()
}

func (m *MergingCursor) Prev() {
	if m.pos == posBeforeFirst {
		return
	}
	if m.pos == posAfterLast {
		for _, c := range m.children {
			c.Prev()
		}
		m.dir = dirReverse
		m.findLargest()
		return
	}
	if m.dir != dirReverse {
		key := m.Key()
		for i, c := range m.children {
			if i == m.current {
				continue
			}
			c.Seek(key)
			if c.Valid() {
				c.Prev()
			} else {
				c.SeekToLast()
				c.Prev()
			}
		}
		m.dir = dirReverse
	}
	cur := m.Key().Clone()
	m.children[m.current].Prev()
	for i, c := range m.children {
		if i != m.current && c.Valid() && Compare(c.Key(), cur.AsRef()) == 0 {
			c.Prev()
		}
	}
	m.findLargest()
}

func (m *MergingCursor) findSmallest() {
	best := -1
	for i, c := range m.children {
		if err := c.Err(); err != nil {
			m.err = err
			m.pos = posBeforeFirst
			return
		}
		if !c.Valid() {
			continue
		}
		if best == -1 || Compare(c.Key(), m.children[best].Key()) < 0 {
			best = i
		}
	}
	m.current = best
	if best == -1 {
		m.pos = posAfterLast
	} else {
		m.pos = posAt
	}
}

func (m *MergingCursor) findLargest() {
	best := -1
	for i, c := range m.children {
		if err := c.Err(); err != nil {
			m.err = err
			m.pos = posAfterLast
			return
		}
		if !c.Valid() {
			continue
		}
		if best == -1 || Compare(c.Key(), m.children[best].Key()) > 0 {
			best = i
		}
	}
	m.current = best
	if best == -1 {
		m.pos = posBeforeFirst
	} else {
		m.pos = posAt
	}
}
