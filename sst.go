package sst

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/nyxdb/sstcore/internal/block"
	"github.com/nyxdb/sstcore/internal/compression"
	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
	"github.com/nyxdb/sstcore/internal/sbbf"
	"github.com/nyxdb/sstcore/internal/setsum"
	"github.com/nyxdb/sstcore/internal/table"
)

// TableFullSize is the approximate file-size ceiling a builder enforces
// (§6): 1 GiB minus 64 MiB, leaving headroom for the index, filter, and
// trailer that are only sized exactly at seal time.
const TableFullSize = (1 << 30) - (64 << 20)

// MaxBatchLen is the largest batch-oriented caller payload this module's
// surrounding write-ahead log and memtable collaborators are expected to
// hand the core in one shot; the core itself does not enforce it, but
// EmptyBatchError exists for callers that do.
const MaxBatchLen = (1 << 20) - (64 << 10)

// randomAccessFile is the minimal file contract an opened Sst needs: preads
// by offset and a close on drop. *os.File satisfies it directly.
type randomAccessFile interface {
	io.ReaderAt
	io.Closer
}

// SstOptions configures how an Sst is opened. The format is entirely
// self-describing, so there is little to configure; Logger is the ambient
// seam future read-path diagnostics (e.g. a data-block cache in front of
// this layer) can hang messages on.
type SstOptions struct {
	Logger Logger
}

// Clamp normalizes the options, filling in defaults for zero values.
func (o SstOptions) Clamp() SstOptions {
	if o.Logger == nil {
		o.Logger = DiscardLogger{}
	}
	return o
}

// Sst is an opened, immutable sorted-string table: a file handle plus its
// fully decoded index block and bloom filter, which are cheap enough to
// keep resident for the file's lifetime. Many independent cursors may be
// derived from one Sst; none of them mutate this shared state.
type Sst struct {
	path        string
	file        randomAccessFile
	size        uint64
	final       table.FinalBlock
	indexBytes  []byte
	filter      *sbbf.Filter
	compression compression.Type
	opts        SstOptions
}

// New opens the SST file at path. The returned Sst owns the file handle
// until Close.
func New(path string, opts SstOptions) (*Sst, error) {
	opts = opts.Clamp()
	f, err := os.Open(path)
	if err != nil {
		return nil, &errs.SystemError{What: "open sst " + path, Inner: err}
	}
	s, err := open(path, f, opts)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

func open(path string, f randomAccessFile, opts SstOptions) (*Sst, error) {
	size, err := fileSize(f)
	if err != nil {
		return nil, err
	}
	if size < 8 {
		return nil, &errs.CorruptionError{Context: "sst file shorter than the trailer offset footer"}
	}

	var footer [8]byte
	if _, err := f.ReadAt(footer[:], int64(size-8)); err != nil {
		return nil, &errs.SystemError{What: "pread trailer offset footer", Inner: err}
	}
	offset := encoding.DecodeFixed64(footer[:])
	if offset < 8 || offset >= size-8 {
		return nil, &errs.CorruptionError{Context: "trailer offset out of range"}
	}

	hdr, payload, err := table.ReadFrameAt(f, offset, size-8)
	if err != nil {
		return nil, err
	}
	if hdr.Tag != table.TagFinalBlock {
		return nil, &errs.CorruptionError{Context: fmt.Sprintf("expected FinalBlock frame, found %s", table.TagName(hdr.Tag))}
	}
	fb, err := table.DecodeFinalBlock(payload)
	if err != nil {
		return nil, err
	}
	if fb.FinalBlockOffset != offset {
		return nil, &errs.CorruptionError{Context: "final block offset does not match its own trailer footer"}
	}

	ix, fl := fb.IndexExtent, fb.FilterExtent
	if !(0 < ix.Start && ix.Start < ix.Limit && ix.Limit <= fl.Start && fl.Start < fl.Limit && fl.Limit <= offset) {
		return nil, &errs.CorruptionError{Context: "index/filter extents are out of order"}
	}

	indexBytes, err := table.ReadPayload(f, ix)
	if err != nil {
		return nil, err
	}
	filterBytes, err := table.ReadPayload(f, fl)
	if err != nil {
		return nil, err
	}
	filter, err := sbbf.FromBytes(filterBytes)
	if err != nil {
		return nil, &errs.UnpackError{Inner: err, Context: "sst filter block"}
	}

	return &Sst{
		path:        path,
		file:        f,
		size:        size,
		final:       fb,
		indexBytes:  indexBytes,
		filter:      filter,
		compression: compression.Type(fb.BlockCompression),
		opts:        opts,
	}, nil
}

func fileSize(f randomAccessFile) (uint64, error) {
	if sizer, ok := f.(interface{ Stat() (os.FileInfo, error) }); ok {
		st, err := sizer.Stat()
		if err != nil {
			return 0, &errs.SystemError{What: "stat sst file", Inner: err}
		}
		return uint64(st.Size()), nil
	}
	return 0, &errs.LogicError{Context: "randomAccessFile does not support Stat"}
}

// Close releases the underlying file handle.
func (s *Sst) Close() error {
	return s.file.Close()
}

// Path returns the filesystem path the Sst was opened from.
func (s *Sst) Path() string { return s.path }

func (s *Sst) newIndexCursor() (*block.Cursor, error) {
	return block.NewCursor(s.indexBytes)
}

// loadDataBlock preads and, if the file was built with compression, expands
// the data block addressed by m, returning the raw sealed block bytes a
// block.Cursor can be built over.
func (s *Sst) loadDataBlock(m block.Metadata) ([]byte, error) {
	raw, err := table.ReadPayload(s.file, m)
	if err != nil {
		return nil, err
	}
	if s.compression == compression.None {
		return raw, nil
	}
	data := raw
	uncompressedLen := 0
	if !s.compression.EmbedsSize() {
		n, consumed, err := encoding.DecodeVarint64(raw)
		if err != nil {
			return nil, &errs.UnpackError{Inner: err, Context: "compressed block uncompressed-length prefix"}
		}
		uncompressedLen = int(n)
		data = raw[consumed:]
	}
	out, err := compression.Decompress(s.compression, data, uncompressedLen)
	if err != nil {
		return nil, &errs.CorruptionError{Context: fmt.Sprintf("data block decompression failed: %v", err)}
	}
	return out, nil
}

// Cursor returns a new, independently positioned cursor over every entry in
// the file, in ascending §3 order. It carries no MVCC or range restriction;
// wrap it in PruningCursor/BoundsCursor for those.
func (s *Sst) Cursor() Cursor {
	ic, err := s.newIndexCursor()
	if err != nil {
		return &erroredCursor{err: err}
	}
	return newSstCursor(s, ic)
}

// erroredCursor is a Cursor stub that surfaces a single construction-time
// error through Err() without panicking on the rest of the interface.
type erroredCursor struct{ err error }

func (e *erroredCursor) Valid() bool      { return false }
func (e *erroredCursor) Key() KeyRef      { return KeyRef{} }
func (e *erroredCursor) Value() []byte    { return nil }
func (e *erroredCursor) Tombstone() bool  { return false }
func (e *erroredCursor) Err() error       { return e.err }
func (e *erroredCursor) SeekToFirst()     {}
func (e *erroredCursor) SeekToLast()      {}
func (e *erroredCursor) Seek(k KeyRef)    {}
func (e *erroredCursor) Next()            {}
func (e *erroredCursor) Prev()            {}

// RangeScan returns a cursor restricted to user keys in [lo, hi] as of
// snapshot timestamp ts: PruningCursor(ts) wrapped in BoundsCursor(lo, hi),
// per §4.6.
func (s *Sst) RangeScan(lo, hi Endpoint, ts uint64) Cursor {
	return NewBoundsCursor(NewPruningCursor(s.Cursor(), ts), lo, hi)
}

// Load performs a point lookup for (key, ts): the bloom filter is checked
// first; on a hit, a cursor seeks to the least entry with user_key >= key
// at the given timestamp, skipping newer versions of the same key (which,
// per the total order, sort first). isTombstone reports whether the found
// entry is a delete marker; value is nil in that case.
func (s *Sst) Load(key []byte, ts uint64) (value []byte, isTombstone bool, err error) {
	if !s.filter.Check(key) {
		return nil, false, nil
	}
	c := s.Cursor()
	c.Seek(KeyRef{UserKey: key, Timestamp: ts})
	if err := c.Err(); err != nil {
		return nil, false, err
	}
	// Seek lands on the newest version of key regardless of ts (§4.4); walk
	// past any versions newer than the snapshot, which sort first.
	for c.Valid() && bytes.Equal(c.Key().UserKey, key) && c.Key().Timestamp > ts {
		c.Next()
		if err := c.Err(); err != nil {
			return nil, false, err
		}
	}
	if !c.Valid() {
		return nil, false, nil
	}
	k := c.Key()
	if !bytes.Equal(k.UserKey, key) {
		// Either a bloom false positive (key is not present) or every
		// version of key is newer than ts.
		return nil, false, nil
	}
	if c.Tombstone() {
		return nil, true, nil
	}
	return append([]byte(nil), c.Value()...), false, nil
}

// SstMetadata summarizes an opened Sst: its content digest, its key range,
// its timestamp bounds, and its size on disk.
type SstMetadata struct {
	Setsum          setsum.Setsum
	FirstKey        Key
	LastKey         Key
	SmallestTS      uint64
	BiggestTS       uint64
	FileSize        uint64
	HasEntries      bool
}

// String renders first/last key and timestamp bounds for logs, in the
// style of a debug-dump helper rather than a wire format.
func (m SstMetadata) String() string {
	if !m.HasEntries {
		return fmt.Sprintf("SstMetadata{empty, size=%d}", m.FileSize)
	}
	return fmt.Sprintf("SstMetadata{first=%q@%d, last=%q@%d, ts=[%d,%d], setsum=%s, size=%d}",
		m.FirstKey.UserKey, m.FirstKey.Timestamp,
		m.LastKey.UserKey, m.LastKey.Timestamp,
		m.SmallestTS, m.BiggestTS, m.Setsum.Hexdigest(), m.FileSize)
}

// Metadata computes the Sst's derived summary by positioning a cursor at
// both ends; the setsum and timestamp bounds come directly from the
// trailer, which is exact, not approximate.
func (s *Sst) Metadata() (SstMetadata, error) {
	md := SstMetadata{
		Setsum:     setsum.FromDigest(s.final.Setsum),
		SmallestTS: s.final.SmallestTS,
		BiggestTS:  s.final.BiggestTS,
		FileSize:   s.size,
	}
	c := s.Cursor()
	c.SeekToFirst()
	c.Next()
	if err := c.Err(); err != nil {
		return SstMetadata{}, err
	}
	if !c.Valid() {
		return md, nil
	}
	md.HasEntries = true
	md.FirstKey = c.Key().Clone()

	c.SeekToLast()
	c.Prev()
	if err := c.Err(); err != nil {
		return SstMetadata{}, err
	}
	md.LastKey = c.Key().Clone()
	return md, nil
}

// FastSetsum returns the content digest recorded in the trailer without
// re-scanning any data block.
func (s *Sst) FastSetsum() setsum.Setsum {
	return setsum.FromDigest(s.final.Setsum)
}

// Verify walks every framed entry in the file in sequential disk order,
// recomputing each payload's CRC32C, and returns the first corruption or
// checksum mismatch found. It does not require the caller to build a
// separate scan tool, mirroring the original implementation's inspect
// entry point.
func (s *Sst) Verify() error {
	var offset uint64
	for offset < s.final.FinalBlockOffset {
		hdr, _, err := table.ReadFrameAt(s.file, offset, s.size-8)
		if err != nil {
			return err
		}
		switch hdr.Tag {
		case table.TagPlainBlock, table.TagCompressedBlock, table.TagFilterBlock:
		default:
			return &errs.CorruptionError{Context: fmt.Sprintf("unexpected frame tag %s mid-file", table.TagName(hdr.Tag))}
		}
		offset = hdr.End
	}
	if offset != s.final.FinalBlockOffset {
		return &errs.CorruptionError{Context: "frame sequence did not land exactly on the final block offset"}
	}
	hdr, payload, err := table.ReadFrameAt(s.file, offset, s.size-8)
	if err != nil {
		return err
	}
	if hdr.Tag != table.TagFinalBlock {
		return &errs.CorruptionError{Context: "final frame is not tagged FinalBlock"}
	}
	if _, err := table.DecodeFinalBlock(payload); err != nil {
		return err
	}
	return nil
}
