package block

import (
	"bytes"
	"fmt"

	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
)

const (
	// TagPut marks a live value entry.
	TagPut = 8
	// TagDel marks a tombstone entry.
	TagDel = 9

	// MaxKeyLen is the largest user_key this format accepts.
	MaxKeyLen = 16 << 10
	// MaxValueLen is the largest value this format accepts.
	MaxValueLen = 32 << 10

	// MinTrailerSize is the smallest a sealed block's trailer may be: zero
	// restart offsets plus the fixed u32 count.
	MinTrailerSize = 4
)

// Options configures a Builder.
type Options struct {
	// TargetEntriesBetweenRestarts bounds how many entries may share a
	// compressed prefix chain before a new restart point is recorded.
	TargetEntriesBetweenRestarts int
	// TargetBlockSize is the size, in bytes, at which the caller should stop
	// adding entries and seal the block. The Builder itself does not enforce
	// this; it only reports CurrentSizeEstimate so the caller can decide.
	TargetBlockSize int
}

// DefaultOptions returns the Options used when a caller supplies none.
func DefaultOptions() Options {
	return Options{
		TargetEntriesBetweenRestarts: 16,
		TargetBlockSize:              4 << 10,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp normalizes out-of-range option values rather than rejecting them.
func (o Options) Clamp() Options {
	o.TargetEntriesBetweenRestarts = clamp(o.TargetEntriesBetweenRestarts, 1, 1<<20)
	o.TargetBlockSize = clamp(o.TargetBlockSize, 4<<10, 16<<20)
	return o
}

// Builder accumulates Put/Del entries, in strictly ascending (key,
// timestamp) order, into one prefix-compressed block.
type Builder struct {
	opts     Options
	buf      bytes.Buffer
	restarts []uint32
	counter  int // entries since the last restart
	lastKey  []byte
	lastTS   uint64
	hasLast  bool
	finished bool
}

// NewBuilder returns a Builder configured with the clamped options.
func NewBuilder(opts Options) *Builder {
	opts = opts.Clamp()
	return &Builder{
		opts:     opts,
		restarts: []uint32{0},
	}
}

// compareKeyTS orders by key ascending, then timestamp descending — the
// total order every layer of this format must agree on.
func compareKeyTS(key1 []byte, ts1 uint64, key2 []byte, ts2 uint64) int {
	if c := bytes.Compare(key1, key2); c != 0 {
		return c
	}
	switch {
	case ts1 > ts2:
		return -1
	case ts1 < ts2:
		return 1
	default:
		return 0
	}
}

func sharedPrefixLen(a, b []byte) int {
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

// Empty reports whether any entries have been added.
func (b *Builder) Empty() bool {
	return !b.hasLast
}

// CurrentSizeEstimate returns the number of bytes the block would occupy if
// sealed right now (entries written so far plus the trailer).
func (b *Builder) CurrentSizeEstimate() int {
	return b.buf.Len() + 4*(len(b.restarts)+1)
}

func (b *Builder) addEntry(tag int, key []byte, ts uint64, value []byte) error {
	if b.finished {
		return fmt.Errorf("block: Put/Del called after Finish")
	}
	if len(key) > MaxKeyLen {
		return &errs.KeyTooLargeError{Length: len(key), Limit: MaxKeyLen}
	}
	if tag == TagPut && len(value) > MaxValueLen {
		return &errs.ValueTooLargeError{Length: len(value), Limit: MaxValueLen}
	}
	if b.hasLast && compareKeyTS(key, ts, b.lastKey, b.lastTS) <= 0 {
		return &errs.SortOrderError{
			LastKey: append([]byte(nil), b.lastKey...), LastTimestamp: b.lastTS,
			NewKey: append([]byte(nil), key...), NewTimestamp: ts,
		}
	}

	restart := b.counter == 0
	shared := 0
	if !restart {
		shared = sharedPrefixLen(b.lastKey, key)
	}
	if restart {
		b.restarts = append(b.restarts[:len(b.restarts)-1], uint32(b.buf.Len()))
	}

	var hdr []byte
	hdr = encoding.AppendVarint32(hdr, uint32(tag))
	hdr = encoding.AppendVarint32(hdr, uint32(shared))
	hdr = encoding.AppendLengthPrefixedSlice(hdr, key[shared:])
	hdr = encoding.AppendVarint64(hdr, ts)
	if tag == TagPut {
		hdr = encoding.AppendLengthPrefixedSlice(hdr, value)
	}
	b.buf.Write(hdr)

	b.lastKey = append(b.lastKey[:0], key...)
	b.lastTS = ts
	b.hasLast = true
	b.counter++
	if b.counter >= b.opts.TargetEntriesBetweenRestarts {
		b.counter = 0
		b.restarts = append(b.restarts, 0)
	}
	return nil
}

// Put appends a live-value entry.
func (b *Builder) Put(key []byte, ts uint64, value []byte) error {
	return b.addEntry(TagPut, key, ts, value)
}

// Del appends a tombstone entry.
func (b *Builder) Del(key []byte, ts uint64) error {
	return b.addEntry(TagDel, key, ts, nil)
}

// Finish appends the restart table and trailer, returning the completed
// block's bytes. The Builder must not be reused afterwards.
func (b *Builder) Finish() ([]byte, error) {
	if b.finished {
		return nil, fmt.Errorf("block: Finish called twice")
	}
	b.finished = true

	restarts := b.restarts
	if b.counter == 0 && len(restarts) > 0 {
		// The in-progress restart slot (reserved for the next entry) was
		// never used; drop it.
		restarts = restarts[:len(restarts)-1]
	}

	out := make([]byte, 0, b.buf.Len()+4*(len(restarts)+1))
	out = append(out, b.buf.Bytes()...)
	for _, r := range restarts {
		out = encoding.AppendFixed32(out, r)
	}
	out = encoding.AppendFixed32(out, uint32(len(restarts)))

	if len(out)-b.buf.Len() < MinTrailerSize {
		return nil, &errs.BlockTooSmallError{Length: len(out), Required: MinTrailerSize}
	}
	return out, nil
}
