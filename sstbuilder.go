package sst

import (
	"bufio"
	"os"

	"github.com/nyxdb/sstcore/internal/block"
	"github.com/nyxdb/sstcore/internal/checksum"
	"github.com/nyxdb/sstcore/internal/compression"
	"github.com/nyxdb/sstcore/internal/divide"
	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
	"github.com/nyxdb/sstcore/internal/sbbf"
	"github.com/nyxdb/sstcore/internal/setsum"
	"github.com/nyxdb/sstcore/internal/table"
)

// trailerSizeEstimate is the approximate byte cost of the FinalBlock frame
// plus its 8-byte footer, used only for the builder's running size
// estimate (§4.7); the exact cost is known only once Seal encodes it.
const trailerSizeEstimate = 160

// BuilderOptions configures an SstBuilder (and, transitively, the
// SstMultiBuilder that wraps one). Every field has a bounded, documented
// range; out-of-range values are clamped rather than rejected (§9).
type BuilderOptions struct {
	// TargetBlockSize is the size, in bytes, at which the builder flushes
	// the current data block on the next write.
	TargetBlockSize int
	// TargetFileSize is the size above which an SstMultiBuilder rotates to
	// a new output file.
	TargetFileSize uint64
	// MinimumFileSize is the size at or above which SplitHint may force a
	// rotation.
	MinimumFileSize uint64
	// WriteBufferSize is the userspace buffer size for the output writer.
	WriteBufferSize int
	// BloomFilterBits is the number of filter bits allotted per key; 0
	// disables negative filtering (Check always reports a possible match).
	BloomFilterBits int
	// BlockCompression selects the algorithm applied to data blocks. None
	// is the only algorithm the base spec exercises; Snappy/LZ4/Zstd are a
	// domain-stack extension under the reserved CompressedBlock frame tag.
	BlockCompression compression.Type
	// Block configures the per-block builder (restart interval).
	Block block.Options
	// Logger narrates block flushes, rotations, and filter sizing.
	Logger Logger
}

// DefaultBuilderOptions returns the options used when a caller supplies
// none.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		TargetBlockSize:  4 << 10,
		TargetFileSize:   64 << 20,
		MinimumFileSize:  32 << 20,
		WriteBufferSize:  64 << 10,
		BloomFilterBits:  10,
		BlockCompression: compression.None,
		Block:            block.DefaultOptions(),
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampU64(v, lo, hi uint64) uint64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp normalizes out-of-range option values rather than rejecting
// construction (§9).
func (o BuilderOptions) Clamp() BuilderOptions {
	o.TargetBlockSize = clampInt(o.TargetBlockSize, 4<<10, 16<<20)
	o.TargetFileSize = clampU64(o.TargetFileSize, 4<<10, 960<<20)
	o.MinimumFileSize = clampU64(o.MinimumFileSize, 4<<10, 960<<20)
	if o.WriteBufferSize <= 0 {
		o.WriteBufferSize = 64 << 10
	}
	if o.BloomFilterBits < 0 {
		o.BloomFilterBits = 0
	}
	o.Block = o.Block.Clamp()
	if o.Logger == nil {
		o.Logger = DiscardLogger{}
	}
	return o
}

// SstBuilder incrementally constructs a single sealed SST file. Exactly one
// logical writer may drive it, from the first Put/Del to Seal; see the
// concurrency model in §5. A builder that fails must be dropped without
// calling Seal — its partially written output file is left for the caller
// to remove (§7).
type SstBuilder struct {
	opts BuilderOptions

	file *os.File
	w    *bufio.Writer
	fw   *table.Writer

	block        *block.Builder
	indexBuilder *block.Builder

	lastKey []byte
	lastTS  uint64
	hasLast bool

	bloomHashes []uint64
	numKeys     int

	sum        setsum.Setsum
	smallestTS uint64
	biggestTS  uint64
	hasTS      bool

	approxSize uint64
	sealed     bool
}

// NewSstBuilder creates path with create-new semantics (it must not already
// exist) and returns a builder that writes to it.
func NewSstBuilder(path string, opts BuilderOptions) (*SstBuilder, error) {
	opts = opts.Clamp()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, &errs.SystemError{What: "create sst " + path, Inner: err}
	}
	w := bufio.NewWriterSize(f, opts.WriteBufferSize)
	b := &SstBuilder{
		opts:         opts,
		file:         f,
		w:            w,
		fw:           table.NewWriter(w),
		block:        block.NewBuilder(opts.Block),
		indexBuilder: block.NewBuilder(block.DefaultOptions()),
	}
	return b, nil
}

// NumKeys reports how many entries have been written so far.
func (b *SstBuilder) NumKeys() int { return b.numKeys }

// Abandon closes the output file without writing an index, filter, or
// trailer, leaving an incomplete file on disk for the caller to remove.
// SstMultiBuilder uses this to discard a rotated-to file that never
// received a write before Seal.
func (b *SstBuilder) Abandon() error {
	if b.sealed {
		return nil
	}
	b.sealed = true
	return b.file.Close()
}

// ApproxSize reports the builder's current approximate on-disk size
// (§4.7): bytes already written, plus the open block, plus the
// not-yet-flushed index, plus a trailer estimate. SstMultiBuilder uses this
// to decide when to rotate.
func (b *SstBuilder) ApproxSize() uint64 { return b.approxSize }

func (b *SstBuilder) computeApproxSize() uint64 {
	return b.fw.Offset() + uint64(b.block.CurrentSizeEstimate()) + uint64(b.indexBuilder.CurrentSizeEstimate()) + trailerSizeEstimate
}

// Put appends a live-value entry. key/ts must be strictly greater than the
// previously written entry's (key, ts) under §3's order.
func (b *SstBuilder) Put(key []byte, ts uint64, value []byte) error {
	return b.add(key, ts, value, false)
}

// Del appends a tombstone entry.
func (b *SstBuilder) Del(key []byte, ts uint64) error {
	return b.add(key, ts, nil, true)
}

func (b *SstBuilder) add(key []byte, ts uint64, value []byte, tombstone bool) error {
	if b.sealed {
		return &errs.LogicError{Context: "put/del called after seal"}
	}
	if len(key) > block.MaxKeyLen {
		return &errs.KeyTooLargeError{Length: len(key), Limit: block.MaxKeyLen}
	}
	if !tombstone && len(value) > block.MaxValueLen {
		return &errs.ValueTooLargeError{Length: len(value), Limit: block.MaxValueLen}
	}
	if b.hasLast && Compare(KeyRef{UserKey: key, Timestamp: ts}, KeyRef{UserKey: b.lastKey, Timestamp: b.lastTS}) <= 0 {
		return &errs.SortOrderError{
			LastKey: append([]byte(nil), b.lastKey...), LastTimestamp: b.lastTS,
			NewKey: append([]byte(nil), key...), NewTimestamp: ts,
		}
	}

	if !b.block.Empty() && b.block.CurrentSizeEstimate() > b.opts.TargetBlockSize {
		if err := b.flushBlock(key, ts); err != nil {
			return err
		}
	}

	// Reject the write before it touches the block, setsum or filter if it
	// would push the file's approximate size past TableFullSize (§4.7, §7
	// TableFull). A full block may already have been flushed above.
	projected := b.computeApproxSize() + uint64(len(key)) + uint64(len(value)) + 32
	if projected > TableFullSize {
		return &errs.TableFullError{Size: projected, Limit: TableFullSize}
	}

	if tombstone {
		if err := b.block.Del(key, ts); err != nil {
			return err
		}
		b.sum.Del(key, ts)
	} else {
		if err := b.block.Put(key, ts, value); err != nil {
			return err
		}
		b.sum.Put(key, ts, value)
	}

	b.bloomHashes = append(b.bloomHashes, checksum.Hash64(key))
	b.numKeys++

	b.lastKey = append(b.lastKey[:0], key...)
	b.lastTS = ts
	b.hasLast = true
	if !b.hasTS || ts < b.smallestTS {
		b.smallestTS = ts
	}
	if !b.hasTS || ts > b.biggestTS {
		b.biggestTS = ts
	}
	b.hasTS = true

	b.approxSize = b.computeApproxSize()
	return nil
}

// flushBlock seals the currently open data block, writes it (optionally
// compressed), and records an index entry for it keyed by the shortest
// divider between the block's last key and the next key about to be
// written (§4.8).
func (b *SstBuilder) flushBlock(nextKey []byte, nextTS uint64) error {
	sealed, err := b.block.Finish()
	if err != nil {
		return err
	}

	var meta block.Metadata
	if b.opts.BlockCompression == compression.None {
		meta, err = b.fw.WriteFrame(table.TagPlainBlock, sealed)
	} else {
		var payload []byte
		payload, err = encodeCompressedBlock(b.opts.BlockCompression, sealed)
		if err == nil {
			meta, err = b.fw.WriteFrame(table.TagCompressedBlock, payload)
		}
	}
	if err != nil {
		return err
	}

	divKey, divTS := divide.Divider(b.lastKey, b.lastTS, nextKey, nextTS)
	if err := b.indexBuilder.Put(divKey, divTS, meta.EncodeTo(nil)); err != nil {
		return err
	}
	b.opts.Logger.Debugf("sst: flushed data block [%d,%d) divider=%x@%d", meta.Start, meta.Limit, divKey, divTS)

	b.block = block.NewBuilder(b.opts.Block)
	return nil
}

// encodeCompressedBlock compresses raw sealed block bytes under algo,
// prefixing the uncompressed length when the format doesn't embed its own
// (LZ4's raw block format).
func encodeCompressedBlock(algo compression.Type, raw []byte) ([]byte, error) {
	compressed, err := compression.Compress(algo, raw)
	if err != nil {
		return nil, err
	}
	var payload []byte
	if !algo.EmbedsSize() {
		payload = encoding.AppendVarint64(payload, uint64(len(raw)))
	}
	payload = append(payload, compressed...)
	return payload, nil
}

// Seal flushes any open block (synthesizing a successor-key divider for
// it), writes the index block, the bloom filter block, and the trailer,
// then fsyncs and closes the file (§4.7). The builder must not be reused
// afterwards.
func (b *SstBuilder) Seal() error {
	if b.sealed {
		return &errs.LogicError{Context: "seal called twice"}
	}
	b.sealed = true

	if !b.block.Empty() {
		succKey, succTS := divide.MinimalSuccessorKey(b.lastKey, b.lastTS)
		if err := b.flushBlock(succKey, succTS); err != nil {
			return err
		}
	}

	indexBytes, err := b.indexBuilder.Finish()
	if err != nil {
		return err
	}
	indexMeta, err := b.fw.WriteFrame(table.TagPlainBlock, indexBytes)
	if err != nil {
		return err
	}

	filter := newSealedFilter(b.numKeys, b.opts.BloomFilterBits, b.bloomHashes)
	filterMeta, err := b.fw.WriteFrame(table.TagFilterBlock, filter.ToBytes())
	if err != nil {
		return err
	}
	b.opts.Logger.Debugf("sst: sealed filter with %d keys at %d bits/key", b.numKeys, b.opts.BloomFilterBits)

	fb := table.FinalBlock{
		IndexExtent:      indexMeta,
		FilterExtent:     filterMeta,
		Setsum:           b.sum.Digest(),
		SmallestTS:       b.smallestTS,
		BiggestTS:        b.biggestTS,
		BlockCompression: uint8(b.opts.BlockCompression),
	}
	finalOffset := b.fw.Offset()
	fb.FinalBlockOffset = finalOffset
	if _, err := b.fw.WriteFrame(table.TagFinalBlock, fb.Encode()); err != nil {
		return err
	}

	var footer [8]byte
	encoding.EncodeFixed64(footer[:], finalOffset)
	if _, err := b.w.Write(footer[:]); err != nil {
		return &errs.SystemError{What: "write trailer footer", Inner: err}
	}
	if err := b.w.Flush(); err != nil {
		return &errs.SystemError{What: "flush sst writer", Inner: err}
	}
	if err := b.file.Sync(); err != nil {
		return &errs.SystemError{What: "fsync sst file", Inner: err}
	}
	if err := b.file.Close(); err != nil {
		return &errs.SystemError{What: "close sst file", Inner: err}
	}
	b.opts.Logger.Debugf("sst: sealed %d keys, setsum=%s", b.numKeys, b.sum.Hexdigest())
	return nil
}

// newSealedFilter builds the bloom filter from every deferred hash
// collected during Put/Del. bitsPerKey <= 0 disables negative filtering:
// the filter is built with every bit set so Check always reports a
// possible match, rather than being omitted (which would need a second
// code path at read time).
func newSealedFilter(numKeys, bitsPerKey int, hashes []uint64) *sbbf.Filter {
	if bitsPerKey <= 0 {
		f := sbbf.New(sbbf.BlockBits)
		f.Fill()
		return f
	}
	f := sbbf.NewForKeys(numKeys, bitsPerKey)
	for _, h := range hashes {
		f.DeferredInsert(h)
	}
	return f
}
