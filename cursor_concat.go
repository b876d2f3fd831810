package sst

// ConcatCursor concatenates N cursors whose key ranges are known to be
// non-overlapping and ascending, switching the active child at its ends.
//
// Following the §3 sentinel discipline, SeekToFirst/SeekToLast only arm the
// cursor at BeforeFirst/AfterLast; no child is touched until the first
// Next/Prev call lands on an entry.
type ConcatCursor struct {
	children []Cursor
	current  int // -1 at BeforeFirst, len(children) at AfterLast
	err      error
}

// NewConcatCursor returns a cursor over children in ascending range order.
func NewConcatCursor(children []Cursor) *ConcatCursor {
	return &ConcatCursor{children: children, current: -1}
}

func (c *ConcatCursor) Valid() bool {
	return c.err == nil && c.current >= 0 && c.current < len(c.children)
}

func (c *ConcatCursor) Key() KeyRef {
	if !c.Valid() {
		return KeyRef{}
	}
	return c.children[c.current].Key()
}
func (c *ConcatCursor) Value() []byte {
	if !c.Valid() {
		return nil
	}
	return c.children[c.current].Value()
}
func (c *ConcatCursor) Tombstone() bool {
	if !c.Valid() {
		return false
	}
	return c.children[c.current].Tombstone()
}
func (c *ConcatCursor) Err() error { return c.err }

// SeekToFirst arms the cursor at BeforeFirst; no child is positioned until
// Next is called.
func (c *ConcatCursor) SeekToFirst() {
	c.err = nil
	c.current = -1
}

// SeekToLast arms the cursor at AfterLast; no child is positioned until Prev
// is called.
func (c *ConcatCursor) SeekToLast() {
	c.err = nil
	c.current = len(c.children)
}

func (c *ConcatCursor) Seek(k KeyRef) {
	c.err = nil
	for i, child := range c.children {
		child.Seek(k)
		if err := child.Err(); err != nil {
			c.err = err
			return
		}
		if child.Valid() {
			c.current = i
			return
		}
	}
	c.current = len(c.children)
}

// advanceFrom scans forward from child index start for the first one that
// has a first entry, landing current on it (or on len(children)).
func (c *ConcatCursor) advanceFrom(start int) {
	c.current = start
	for c.current < len(c.children) {
		c.children[c.current].SeekToFirst()
		c.children[c.current].Next()
		if err := c.children[c.current].Err(); err != nil {
			c.err = err
			return
		}
		if c.children[c.current].Valid() {
			return
		}
		c.current++
	}
}

// retreatFrom scans backward from child index start for the first one that
// has a last entry, landing current on it (or on -1).
func (c *ConcatCursor) retreatFrom(start int) {
	c.current = start
	for c.current >= 0 {
		c.children[c.current].SeekToLast()
		c.children[c.current].Prev()
		if err := c.children[c.current].Err(); err != nil {
			c.err = err
			return
		}
		if c.children[c.current].Valid() {
			return
		}
		c.current--
	}
}

func (c *ConcatCursor) Next() {
	if c.current == len(c.children) {
		// AfterLast: Next stays at AfterLast per the §3 sentinel discipline.
		return
	}
	if c.current < 0 {
		c.advanceFrom(0)
		return
	}
	c.children[c.current].Next()
	if err := c.children[c.current].Err(); err != nil {
		c.err = err
		return
	}
	if c.children[c.current].Valid() {
		return
	}
	c.advanceFrom(c.current + 1)
}

func (c *ConcatCursor) Prev() {
	if c.current < 0 {
		// BeforeFirst: Prev stays at BeforeFirst per the §3 invariant.
		return
	}
	if c.current == len(c.children) {
		c.retreatFrom(len(c.children) - 1)
		return
	}
	c.children[c.current].Prev()
	if err := c.children[c.current].Err(); err != nil {
		c.err = err
		return
	}
	if c.children[c.current].Valid() {
		return
	}
	c.retreatFrom(c.current - 1)
}
