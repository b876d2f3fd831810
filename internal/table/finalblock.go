package table

import (
	"github.com/nyxdb/sstcore/internal/block"
	"github.com/nyxdb/sstcore/internal/encoding"
	"github.com/nyxdb/sstcore/internal/errs"
)

// Field tags within a FinalBlock payload.
const (
	fieldIndexExtent      = 16
	fieldFilterExtent     = 17
	fieldFinalBlockOffset = 18 // must be written last
	fieldSetsum           = 19
	fieldSmallestTS       = 20
	fieldBiggestTS        = 21
	// fieldBlockCompression is a domain-stack addition beyond the base
	// spec's trailer fields (§6 lists 16-21 only): it records the
	// compression.Type applied uniformly to every data block in the file.
	// It is omitted entirely when compression is None, so a
	// compression-free file's trailer bytes are identical to the base
	// format's.
	fieldBlockCompression = 22
)

// FinalBlock is the trailer closing every SST file.
type FinalBlock struct {
	IndexExtent      block.Metadata
	FilterExtent     block.Metadata
	Setsum           [32]byte
	SmallestTS       uint64
	BiggestTS        uint64
	FinalBlockOffset uint64
	// BlockCompression is 0 (None) for every file the base format
	// describes; see fieldBlockCompression.
	BlockCompression uint8
}

// Encode serializes fb as a sequence of tagged fields, FinalBlockOffset
// written last as required by the format.
func (fb FinalBlock) Encode() []byte {
	var out []byte
	out = encoding.AppendVarint32(out, fieldIndexExtent)
	out = fb.IndexExtent.EncodeTo(out)

	out = encoding.AppendVarint32(out, fieldFilterExtent)
	out = fb.FilterExtent.EncodeTo(out)

	out = encoding.AppendVarint32(out, fieldSetsum)
	out = append(out, fb.Setsum[:]...)

	out = encoding.AppendVarint32(out, fieldSmallestTS)
	out = encoding.AppendVarint64(out, fb.SmallestTS)

	out = encoding.AppendVarint32(out, fieldBiggestTS)
	out = encoding.AppendVarint64(out, fb.BiggestTS)

	if fb.BlockCompression != 0 {
		out = encoding.AppendVarint32(out, fieldBlockCompression)
		out = append(out, fb.BlockCompression)
	}

	out = encoding.AppendVarint32(out, fieldFinalBlockOffset)
	out = encoding.AppendFixed64(out, fb.FinalBlockOffset)
	return out
}

// DecodeFinalBlock parses a FinalBlock payload previously produced by
// Encode.
func DecodeFinalBlock(data []byte) (FinalBlock, error) {
	var fb FinalBlock
	var sawOffset bool
	for len(data) > 0 {
		tag, n, err := encoding.DecodeVarint32(data)
		if err != nil {
			return FinalBlock{}, &errs.UnpackError{Inner: err, Context: "final block field tag"}
		}
		data = data[n:]
		switch tag {
		case fieldIndexExtent:
			m, n, err := block.DecodeMetadata(data)
			if err != nil {
				return FinalBlock{}, &errs.UnpackError{Inner: err, Context: "final block index extent"}
			}
			fb.IndexExtent = m
			data = data[n:]
		case fieldFilterExtent:
			m, n, err := block.DecodeMetadata(data)
			if err != nil {
				return FinalBlock{}, &errs.UnpackError{Inner: err, Context: "final block filter extent"}
			}
			fb.FilterExtent = m
			data = data[n:]
		case fieldSetsum:
			if len(data) < 32 {
				return FinalBlock{}, &errs.CorruptionError{Context: "final block setsum truncated"}
			}
			copy(fb.Setsum[:], data[:32])
			data = data[32:]
		case fieldSmallestTS:
			v, n, err := encoding.DecodeVarint64(data)
			if err != nil {
				return FinalBlock{}, &errs.UnpackError{Inner: err, Context: "final block smallest_timestamp"}
			}
			fb.SmallestTS = v
			data = data[n:]
		case fieldBiggestTS:
			v, n, err := encoding.DecodeVarint64(data)
			if err != nil {
				return FinalBlock{}, &errs.UnpackError{Inner: err, Context: "final block biggest_timestamp"}
			}
			fb.BiggestTS = v
			data = data[n:]
		case fieldBlockCompression:
			if len(data) < 1 {
				return FinalBlock{}, &errs.CorruptionError{Context: "final block compression marker truncated"}
			}
			fb.BlockCompression = data[0]
			data = data[1:]
		case fieldFinalBlockOffset:
			if len(data) < 8 {
				return FinalBlock{}, &errs.CorruptionError{Context: "final block offset truncated"}
			}
			fb.FinalBlockOffset = encoding.DecodeFixed64(data[:8])
			data = data[8:]
			sawOffset = true
		default:
			return FinalBlock{}, &errs.CorruptionError{Context: "final block has unknown field tag"}
		}
	}
	if !sawOffset {
		return FinalBlock{}, &errs.CorruptionError{Context: "final block missing final_block_offset"}
	}
	return fb, nil
}
