package sst

import (
	"github.com/nyxdb/sstcore/internal/block"
)

// sstCursor pairs a cursor over the SST's index block with the currently
// loaded data block's cursor (if any), per §4.5. The index block's keys are
// synthetic divider keys (§4.8); seeking the index lands on the data block
// whose range may contain the target, which is then loaded and searched
// directly.
//
// Like the other cursors in this module, SeekToFirst/SeekToLast only arm
// the cursor at BeforeFirst/AfterLast; the index is only descended and a
// data block only loaded on the first Next/Prev call, so seeking past a
// file's start without iterating never pays for a pread.
type sstCursor struct {
	sst   *Sst
	index *block.Cursor
	data  *block.Cursor
	pos   cursorPos
	err   error
}

func newSstCursor(sst *Sst, index *block.Cursor) *sstCursor {
	return &sstCursor{sst: sst, index: index}
}

func (c *sstCursor) Valid() bool { return c.pos == posAt && c.err == nil }

func (c *sstCursor) Key() KeyRef {
	if !c.Valid() {
		return KeyRef{}
	}
	e := c.data.Entry()
	return KeyRef{UserKey: e.Key, Timestamp: e.Timestamp}
}

func (c *sstCursor) Value() []byte {
	if !c.Valid() {
		return nil
	}
	return c.data.Entry().Value
}

func (c *sstCursor) Tombstone() bool {
	if !c.Valid() {
		return false
	}
	return c.data.Entry().IsTombstone()
}

func (c *sstCursor) Err() error { return c.err }

// currentBlockMetadata decodes the BlockMetadata value of the index
// cursor's current entry.
func (c *sstCursor) currentBlockMetadata() (block.Metadata, error) {
	m, _, err := block.DecodeMetadata(c.index.Entry().Value)
	if err != nil {
		return block.Metadata{}, err
	}
	return m, nil
}

// loadBlockAtIndex loads the data block the index cursor currently points
// at, replacing c.data.
func (c *sstCursor) loadBlockAtIndex() bool {
	m, err := c.currentBlockMetadata()
	if err != nil {
		c.err = err
		c.data = nil
		return false
	}
	raw, err := c.sst.loadDataBlock(m)
	if err != nil {
		c.err = err
		c.data = nil
		return false
	}
	dc, err := block.NewCursor(raw)
	if err != nil {
		c.err = err
		c.data = nil
		return false
	}
	c.data = dc
	return true
}

// SeekToFirst arms the cursor at BeforeFirst; no index descent or data
// block load happens until Next is called.
func (c *sstCursor) SeekToFirst() {
	c.err = nil
	c.data = nil
	c.pos = posBeforeFirst
}

// SeekToLast arms the cursor at AfterLast; no index descent or data block
// load happens until Prev is called.
func (c *sstCursor) SeekToLast() {
	c.err = nil
	c.data = nil
	c.pos = posAfterLast
}

func (c *sstCursor) landFirst() {
	c.index.SeekToFirst()
	if err := c.index.Next(); err != nil {
		c.err = err
		return
	}
	if !c.index.Valid() {
		c.pos = posAfterLast
		return
	}
	if !c.loadBlockAtIndex() {
		return
	}
	c.data.SeekToFirst()
	if err := c.data.Next(); err != nil {
		c.err = err
		return
	}
	c.pos = posAt
}

func (c *sstCursor) landLast() {
	c.index.SeekToLast()
	if err := c.index.Prev(); err != nil {
		c.err = err
		return
	}
	if !c.index.Valid() {
		c.pos = posBeforeFirst
		return
	}
	if !c.loadBlockAtIndex() {
		return
	}
	c.data.SeekToLast()
	if err := c.data.Prev(); err != nil {
		c.err = err
		return
	}
	c.pos = posAt
}

// Seek positions at the least entry >= (k.UserKey, +inf-timestamp), i.e. the
// newest version of k.UserKey or the first entry of the next greater key;
// k.Timestamp is ignored, per the Cursor.Seek contract. It seeks the index
// cursor for the divider key covering the target, loads that block, and
// searches inside it; if the target is not found there (it can legitimately
// land past the block's last entry, at a seam), it advances to the next
// block, per §4.5. Unlike SeekToFirst/SeekToLast, Seek is eager: it lands
// directly on an entry (or AfterLast).
func (c *sstCursor) Seek(k KeyRef) {
	c.err = nil
	c.data = nil
	c.pos = posAfterLast
	if err := c.index.Seek(k.UserKey); err != nil {
		c.err = err
		return
	}
	if !c.index.Valid() {
		return
	}
	for {
		if !c.loadBlockAtIndex() {
			return
		}
		if err := c.data.Seek(k.UserKey); err != nil {
			c.err = err
			return
		}
		if c.data.Valid() {
			c.pos = posAt
			return
		}
		if err := c.index.Next(); err != nil {
			c.err = err
			return
		}
		if !c.index.Valid() {
			c.data = nil
			return
		}
	}
}

func (c *sstCursor) Next() {
	if c.err != nil || c.pos == posAfterLast {
		return
	}
	if c.pos == posBeforeFirst {
		c.landFirst()
		return
	}
	if err := c.data.Next(); err != nil {
		c.err = err
		return
	}
	if c.data.Valid() {
		return
	}
	// Crossed the current data block's end: drop it, advance the index,
	// load the next block, and position at its first entry.
	c.data = nil
	if err := c.index.Next(); err != nil {
		c.err = err
		return
	}
	if !c.index.Valid() {
		c.pos = posAfterLast
		return
	}
	if !c.loadBlockAtIndex() {
		return
	}
	c.data.SeekToFirst()
	if err := c.data.Next(); err != nil {
		c.err = err
	}
}

func (c *sstCursor) Prev() {
	if c.err != nil || c.pos == posBeforeFirst {
		return
	}
	if c.pos == posAfterLast {
		c.landLast()
		return
	}
	if err := c.data.Prev(); err != nil {
		c.err = err
		return
	}
	if c.data.Valid() {
		return
	}
	c.data = nil
	if err := c.index.Prev(); err != nil {
		c.err = err
		return
	}
	if !c.index.Valid() {
		c.pos = posBeforeFirst
		return
	}
	if !c.loadBlockAtIndex() {
		return
	}
	c.data.SeekToLast()
	if err := c.data.Prev(); err != nil {
		c.err = err
	}
}
