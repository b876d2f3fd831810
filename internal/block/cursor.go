package block

import (
	"bytes"
	"sort"

	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
)

// Entry is one decoded block entry: a key, a timestamp, a tag (Put/Del),
// and — for Put — a value. Value is a borrow into the Cursor's underlying
// block bytes; Key is reassembled into a fresh slice on every decode.
type Entry struct {
	Key       []byte
	Timestamp uint64
	Tag       int
	Value     []byte
}

// IsTombstone reports whether the entry is a Del.
func (e Entry) IsTombstone() bool { return e.Tag == TagDel }

// position mirrors the three-state cursor position from the root package,
// duplicated here so this package has no dependency on it.
type position int

const (
	posBeforeFirst position = iota
	posAt
	posAfterLast
)

// Cursor reads a sealed block's entries. It supports seek/next/prev over
// the restart-compressed byte stream.
type Cursor struct {
	data     []byte // entry bytes only, trailer excluded
	restarts []uint32
	pos      position
	offset   int // byte offset of the current entry within data
	curLen   int // byte length of the currently decoded entry
	cur      Entry
}

// NewCursor parses a sealed block's trailer and returns a Cursor over it.
func NewCursor(block []byte) (*Cursor, error) {
	if len(block) < MinTrailerSize {
		return nil, &errs.BlockTooSmallError{Length: len(block), Required: MinTrailerSize}
	}
	count := encoding.DecodeFixed32(block[len(block)-4:])
	trailerLen := 4 + 4*int(count)
	if trailerLen > len(block) {
		return nil, &errs.CorruptionError{Context: "block restart table exceeds block length"}
	}
	restartsStart := len(block) - trailerLen
	restarts := make([]uint32, count)
	for i := range restarts {
		restarts[i] = encoding.DecodeFixed32(block[restartsStart+4*i:])
	}
	return &Cursor{
		data:     block[:restartsStart],
		restarts: restarts,
		pos:      posBeforeFirst,
	}, nil
}

// Valid reports whether the cursor is positioned at an entry.
func (c *Cursor) Valid() bool { return c.pos == posAt }

// Key returns the current entry's key, or nil if not positioned at an entry.
func (c *Cursor) Key() []byte {
	if !c.Valid() {
		return nil
	}
	return c.cur.Key
}

// Entry returns the current entry. Only valid when Valid() is true.
func (c *Cursor) Entry() Entry { return c.cur }

// decodeAt decodes one entry at byte offset off, given the reconstructed
// key of the entry immediately before it in the same restart chain
// (prevKey may be nil at a restart point, since shared must be 0 there).
func (c *Cursor) decodeAt(off int, prevKey []byte) (Entry, int, error) {
	s := c.data[off:]
	tag, n1, err := encoding.DecodeVarint32(s)
	if err != nil {
		return Entry{}, 0, &errs.UnpackError{Inner: err, Context: "block entry tag"}
	}
	s = s[n1:]
	shared, n2, err := encoding.DecodeVarint32(s)
	if err != nil {
		return Entry{}, 0, &errs.UnpackError{Inner: err, Context: "block entry shared"}
	}
	s = s[n2:]
	frag, n3, err := encoding.DecodeLengthPrefixedSlice(s)
	if err != nil {
		return Entry{}, 0, &errs.UnpackError{Inner: err, Context: "block entry key fragment"}
	}
	s = s[n3:]
	ts, n4, err := encoding.DecodeVarint64(s)
	if err != nil {
		return Entry{}, 0, &errs.UnpackError{Inner: err, Context: "block entry timestamp"}
	}
	s = s[n4:]

	if int(shared) > len(prevKey) {
		return Entry{}, 0, &errs.CorruptionError{Context: "block entry shared prefix exceeds previous key"}
	}
	key := make([]byte, 0, int(shared)+len(frag))
	key = append(key, prevKey[:shared]...)
	key = append(key, frag...)

	consumed := n1 + n2 + n3 + n4
	entry := Entry{Key: key, Timestamp: ts, Tag: int(tag)}
	if tag == TagPut {
		value, n5, err := encoding.DecodeLengthPrefixedSlice(s)
		if err != nil {
			return Entry{}, 0, &errs.UnpackError{Inner: err, Context: "block entry value"}
		}
		entry.Value = value
		consumed += n5
	} else if tag != TagDel {
		return Entry{}, 0, &errs.CorruptionError{Context: "block entry has unknown tag"}
	}
	return entry, consumed, nil
}

// restartKey decodes only the key of the entry at a restart point (shared
// is always 0 there).
func (c *Cursor) restartKey(restartIdx int) ([]byte, error) {
	e, _, err := c.decodeAt(int(c.restarts[restartIdx]), nil)
	if err != nil {
		return nil, err
	}
	return e.Key, nil
}

// SeekToFirst positions before the first entry (per the §3 BeforeFirst
// convention); call Next once to land on it.
func (c *Cursor) SeekToFirst() {
	c.pos = posBeforeFirst
	c.offset = 0
}

// SeekToLast positions after the last entry; call Prev once to land on it.
func (c *Cursor) SeekToLast() {
	c.pos = posAfterLast
}

// Next advances to the next entry, or to AfterLast if none remains.
func (c *Cursor) Next() error {
	if c.pos == posAfterLast {
		return nil
	}
	var off int
	var prevKey []byte
	if c.pos == posBeforeFirst {
		off = 0
		prevKey = nil
	} else {
		off = c.offset + c.entryLen()
		prevKey = c.cur.Key
	}
	if off >= len(c.data) {
		c.pos = posAfterLast
		return nil
	}
	e, n, err := c.decodeAt(off, restartBoundaryKey(c.restarts, off, prevKey))
	if err != nil {
		return err
	}
	c.cur = e
	c.offset = off
	c.curLen = n
	c.pos = posAt
	return nil
}

// restartBoundaryKey returns nil if off is exactly a restart offset
// (meaning shared must be 0 there), otherwise prevKey.
func restartBoundaryKey(restarts []uint32, off int, prevKey []byte) []byte {
	for _, r := range restarts {
		if int(r) == off {
			return nil
		}
	}
	return prevKey
}

// Prev moves to the previous entry, re-decoding from the preceding restart
// since prefix compression only runs forward.
func (c *Cursor) Prev() error {
	if c.pos == posBeforeFirst {
		return nil
	}
	var target int
	if c.pos == posAfterLast {
		if len(c.data) == 0 {
			c.pos = posBeforeFirst
			return nil
		}
		target = len(c.data)
	} else {
		target = c.offset
	}
	if target == 0 {
		c.pos = posBeforeFirst
		return nil
	}

	restartIdx := sort.Search(len(c.restarts), func(i int) bool {
		return int(c.restarts[i]) >= target
	}) - 1
	if restartIdx < 0 {
		restartIdx = 0
	}

	off := int(c.restarts[restartIdx])
	var prevKey []byte
	var last Entry
	var lastOff int
	var lastLen int
	for off < target {
		e, n, err := c.decodeAt(off, restartBoundaryKey(c.restarts, off, prevKey))
		if err != nil {
			return err
		}
		last = e
		lastOff = off
		lastLen = n
		prevKey = e.Key
		off += n
	}
	c.cur = last
	c.offset = lastOff
	c.curLen = lastLen
	c.pos = posAt
	return nil
}

// entryLen returns the byte length of the currently decoded entry.
func (c *Cursor) entryLen() int { return c.curLen }

// Seek positions at the least entry whose (key, timestamp) is >= (key,
// math.MaxUint64) — i.e. the first entry with user_key >= key regardless of
// timestamp — per the §3 seek semantics (ties broken by timestamp
// descending, so "infinite" timestamp sorts first among equal keys).
func (c *Cursor) Seek(key []byte) error {
	if len(c.restarts) == 0 {
		c.pos = posAfterLast
		return nil
	}
	// Binary search restart points for the last one whose key is < target,
	// so versions of target that end the preceding restart group are not
	// skipped.
	lo, hi := 0, len(c.restarts)-1
	idx := 0
	for lo <= hi {
		mid := (lo + hi) / 2
		rk, err := c.restartKey(mid)
		if err != nil {
			return err
		}
		if bytes.Compare(rk, key) < 0 {
			idx = mid
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}

	off := int(c.restarts[idx])
	var prevKey []byte
	for off < len(c.data) {
		e, n, err := c.decodeAt(off, restartBoundaryKey(c.restarts, off, prevKey))
		if err != nil {
			return err
		}
		if bytes.Compare(e.Key, key) >= 0 {
			c.cur = e
			c.offset = off
			c.curLen = n
			c.pos = posAt
			return nil
		}
		prevKey = e.Key
		off += n
	}
	c.pos = posAfterLast
	return nil
}
