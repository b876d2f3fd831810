// Package compression implements the optional data-block compression
// algorithms a builder may select: Snappy, LZ4, and Zstandard. Data blocks
// are written under the reserved CompressedBlock frame tag with no per-block
// algorithm marker; the algorithm is recorded once for the whole file in the
// FinalBlock. None never reaches this package at all, since uncompressed
// blocks are framed as PlainBlock.
package compression

import (
	"fmt"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type identifies a data-block compression algorithm.
type Type uint8

const (
	// None means the block is stored uncompressed.
	None Type = 0x0

	// Snappy uses Google's Snappy block format, which embeds its own
	// decompressed length and therefore needs no external size hint.
	Snappy Type = 0x1

	// LZ4 uses the LZ4 raw block format, which requires the decompressor
	// to be told the original length.
	LZ4 Type = 0x4

	// Zstd uses the Zstandard frame format, which embeds its own length.
	Zstd Type = 0x7
)

// String returns the human-readable name of the compression type.
func (t Type) String() string {
	switch t {
	case None:
		return "None"
	case Snappy:
		return "Snappy"
	case LZ4:
		return "LZ4"
	case Zstd:
		return "Zstd"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// EmbedsSize reports whether the compressed format carries its own
// decompressed length, making an external varint size prefix unnecessary.
func (t Type) EmbedsSize() bool {
	return t == Snappy || t == Zstd
}

// Compress compresses data using the specified algorithm. None returns data
// unchanged.
func Compress(t Type, data []byte) ([]byte, error) {
	switch t {
	case None:
		return data, nil
	case Snappy:
		return snappy.Encode(nil, data), nil
	case LZ4:
		return compressLZ4(data)
	case Zstd:
		return compressZstd(data)
	default:
		return nil, fmt.Errorf("compression: unsupported type %s", t)
	}
}

func compressLZ4(data []byte) ([]byte, error) {
	dst := make([]byte, lz4.CompressBlockBound(len(data)))
	var ht [1 << 16]int
	n, err := lz4.CompressBlock(data, dst, ht[:])
	if err != nil {
		return nil, fmt.Errorf("compression: lz4 compress: %w", err)
	}
	if n == 0 {
		// Incompressible input; lz4 signals this by writing nothing.
		return nil, fmt.Errorf("compression: lz4 produced no output")
	}
	return dst[:n], nil
}

func compressZstd(data []byte) ([]byte, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("compression: zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(data, nil), nil
}

// Decompress decompresses data with a known uncompressed size. expectedSize
// is required for LZ4 (its raw block format carries no length) and ignored
// by formats that embed their own length.
func Decompress(t Type, data []byte, expectedSize int) ([]byte, error) {
	switch t {
	case None:
		return data, nil
	case Snappy:
		return snappy.Decode(nil, data)
	case LZ4:
		return decompressLZ4(data, expectedSize)
	case Zstd:
		return decompressZstd(data)
	default:
		return nil, fmt.Errorf("compression: unsupported type %s", t)
	}
}

func decompressLZ4(data []byte, expectedSize int) ([]byte, error) {
	if expectedSize <= 0 {
		return nil, fmt.Errorf("compression: lz4 decompress requires a known size")
	}
	dst := make([]byte, expectedSize)
	n, err := lz4.UncompressBlock(data, dst)
	if err != nil {
		return nil, fmt.Errorf("compression: lz4 uncompress: %w", err)
	}
	return dst[:n], nil
}

func decompressZstd(data []byte) ([]byte, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("compression: zstd decoder: %w", err)
	}
	defer decoder.Close()
	return decoder.DecodeAll(data, nil)
}
