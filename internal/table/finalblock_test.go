package table

import (
	"testing"

	"github.com/nyxdb/sstcore/internal/block"
)

func TestFinalBlockRoundTrip(t *testing.T) {
	fb := FinalBlock{
		IndexExtent:      block.Metadata{Start: 10, Limit: 20, CRC32C: 0xdeadbeef},
		FilterExtent:     block.Metadata{Start: 20, Limit: 30, CRC32C: 0xcafef00d},
		Setsum:           [32]byte{1, 2, 3, 4},
		SmallestTS:       7,
		BiggestTS:        99,
		FinalBlockOffset: 1234,
	}
	encoded := fb.Encode()
	got, err := DecodeFinalBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeFinalBlock: %v", err)
	}
	if got != fb {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, fb)
	}
}

func TestFinalBlockRoundTripWithCompression(t *testing.T) {
	fb := FinalBlock{
		IndexExtent:      block.Metadata{Start: 10, Limit: 20, CRC32C: 0xdeadbeef},
		FilterExtent:     block.Metadata{Start: 20, Limit: 30, CRC32C: 0xcafef00d},
		Setsum:           [32]byte{1, 2, 3, 4},
		SmallestTS:       7,
		BiggestTS:        99,
		FinalBlockOffset: 1234,
		BlockCompression: 2,
	}
	encoded := fb.Encode()
	got, err := DecodeFinalBlock(encoded)
	if err != nil {
		t.Fatalf("DecodeFinalBlock: %v", err)
	}
	if got != fb {
		t.Fatalf("round trip mismatch:\ngot  %+v\nwant %+v", got, fb)
	}
}

func TestFinalBlockOmitsCompressionFieldWhenNone(t *testing.T) {
	withNone := FinalBlock{FinalBlockOffset: 1}.Encode()
	withZero := FinalBlock{FinalBlockOffset: 1, BlockCompression: 0}.Encode()
	if len(withNone) != len(withZero) {
		t.Fatalf("expected identical encodings for an unset compression field")
	}
	for i := range withNone {
		if withNone[i] != withZero[i] {
			t.Fatalf("byte %d differs: %x vs %x", i, withNone[i], withZero[i])
		}
	}
}

func TestFinalBlockRejectsUnknownField(t *testing.T) {
	fb := FinalBlock{FinalBlockOffset: 1}
	encoded := fb.Encode()
	// Corrupt the very first field tag (16) into something unrecognized.
	encoded[0] = 99
	if _, err := DecodeFinalBlock(encoded); err == nil {
		t.Fatal("expected an error for an unknown field tag")
	}
}

func TestFinalBlockRejectsMissingOffset(t *testing.T) {
	var out []byte
	out = append(out, 20) // fieldSmallestTS tag, varint-encoded single byte
	out = append(out, 5)
	if _, err := DecodeFinalBlock(out); err == nil {
		t.Fatal("expected an error when final_block_offset is missing")
	}
}
