// Package table implements the on-disk SST framing: the tag/length/payload
// /crc32c envelope every block is wrapped in, and the tagged-field FinalBlock
// that closes a file.
package table

import (
	"fmt"
	"io"

	"github.com/nyxdb/sstcore/internal/block"
	"github.com/nyxdb/sstcore/internal/checksum"
	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
)

// Frame tags.
const (
	TagPlainBlock      = 10
	TagCompressedBlock = 11 // reserved extension point; see internal/compression.
	TagFinalBlock      = 12
	TagFilterBlock     = 13
)

// Writer wraps a sequential io.Writer and frames payloads, tracking the
// running file offset so callers can record the Metadata handles they need
// for index entries and the trailer.
type Writer struct {
	w      io.Writer
	offset uint64
}

// NewWriter returns a Writer starting at file offset 0.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Offset returns the current end-of-file offset.
func (fw *Writer) Offset() uint64 { return fw.offset }

// WriteFrame writes tag || varint(len(payload)) || payload || crc32c(payload)
// and returns a Metadata handle addressing the payload bytes directly (so a
// later pread need not re-parse the tag/length header).
func (fw *Writer) WriteFrame(tag uint32, payload []byte) (block.Metadata, error) {
	var hdr []byte
	hdr = encoding.AppendVarint32(hdr, tag)
	hdr = encoding.AppendVarint32(hdr, uint32(len(payload)))
	if _, err := fw.w.Write(hdr); err != nil {
		return block.Metadata{}, &errs.SystemError{What: "write frame header", Inner: err}
	}
	start := fw.offset + uint64(len(hdr))

	if len(payload) > 0 {
		if _, err := fw.w.Write(payload); err != nil {
			return block.Metadata{}, &errs.SystemError{What: "write frame payload", Inner: err}
		}
	}
	crc := checksum.Value(payload)
	var crcBuf [4]byte
	encoding.EncodeFixed32(crcBuf[:], crc)
	if _, err := fw.w.Write(crcBuf[:]); err != nil {
		return block.Metadata{}, &errs.SystemError{What: "write frame crc", Inner: err}
	}

	limit := start + uint64(len(payload))
	fw.offset = limit + 4
	return block.Metadata{Start: start, Limit: limit, CRC32C: crc}, nil
}

// ReadPayload preads the payload addressed by m and verifies it against the
// stored CRC32C.
func ReadPayload(r io.ReaderAt, m block.Metadata) ([]byte, error) {
	size := m.Size()
	buf := make([]byte, size)
	if size > 0 {
		if _, err := r.ReadAt(buf, int64(m.Start)); err != nil {
			return nil, &errs.SystemError{What: "pread frame payload", Inner: err}
		}
	}
	if got := checksum.Value(buf); got != m.CRC32C {
		return nil, &errs.Crc32cFailureError{Start: m.Start, Limit: m.Limit, Computed: got, Stored: m.CRC32C}
	}
	return buf, nil
}

// FrameHeader describes a decoded tag/length header, used when scanning a
// file sequentially (e.g. Verify) rather than jumping to a known offset.
type FrameHeader struct {
	Tag     uint32
	Payload block.Metadata
	End     uint64 // offset immediately after this frame's trailing crc32c
}

// ReadFrameAt preads and decodes the frame beginning at byte offset start,
// verifying its CRC32C.
func ReadFrameAt(r io.ReaderAt, start uint64, maxLen uint64) (FrameHeader, []byte, error) {
	// Read a conservative header window; varint tag+length are at most
	// 5 bytes each.
	headWindow := uint64(10)
	if start+headWindow > maxLen {
		headWindow = maxLen - start
	}
	head := make([]byte, headWindow)
	if _, err := r.ReadAt(head, int64(start)); err != nil && err != io.EOF {
		return FrameHeader{}, nil, &errs.SystemError{What: "pread frame header", Inner: err}
	}
	tag, n1, err := encoding.DecodeVarint32(head)
	if err != nil {
		return FrameHeader{}, nil, &errs.UnpackError{Inner: err, Context: "frame tag"}
	}
	length, n2, err := encoding.DecodeVarint32(head[n1:])
	if err != nil {
		return FrameHeader{}, nil, &errs.UnpackError{Inner: err, Context: "frame length"}
	}
	payloadStart := start + uint64(n1+n2)
	payloadLimit := payloadStart + uint64(length)
	if payloadLimit+4 > maxLen {
		return FrameHeader{}, nil, &errs.CorruptionError{Context: "frame extends past end of region"}
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := r.ReadAt(payload, int64(payloadStart)); err != nil {
			return FrameHeader{}, nil, &errs.SystemError{What: "pread frame payload", Inner: err}
		}
	}
	var crcBuf [4]byte
	if _, err := r.ReadAt(crcBuf[:], int64(payloadLimit)); err != nil {
		return FrameHeader{}, nil, &errs.SystemError{What: "pread frame crc", Inner: err}
	}
	storedCRC := encoding.DecodeFixed32(crcBuf[:])
	gotCRC := checksum.Value(payload)
	if gotCRC != storedCRC {
		return FrameHeader{}, nil, &errs.Crc32cFailureError{Start: payloadStart, Limit: payloadLimit, Computed: gotCRC, Stored: storedCRC}
	}

	hdr := FrameHeader{
		Tag:     tag,
		Payload: block.Metadata{Start: payloadStart, Limit: payloadLimit, CRC32C: storedCRC},
		End:     payloadLimit + 4,
	}
	return hdr, payload, nil
}

// TagName renders a frame tag for diagnostics.
func TagName(tag uint32) string {
	switch tag {
	case TagPlainBlock:
		return "PlainBlock"
	case TagCompressedBlock:
		return "CompressedBlock"
	case TagFinalBlock:
		return "FinalBlock"
	case TagFilterBlock:
		return "FilterBlock"
	default:
		return fmt.Sprintf("Unknown(%d)", tag)
	}
}
