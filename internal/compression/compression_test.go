package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("the quick brown fox jumps over the lazy dog "), 64)

	for _, typ := range []Type{None, Snappy, LZ4, Zstd} {
		t.Run(typ.String(), func(t *testing.T) {
			compressed, err := Compress(typ, data)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			got, err := Decompress(typ, compressed, len(data))
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d", len(got), len(data))
			}
		})
	}
}

func TestEmptyInput(t *testing.T) {
	for _, typ := range []Type{None, Snappy, LZ4, Zstd} {
		compressed, err := Compress(typ, nil)
		if err != nil {
			t.Fatalf("%s: Compress(nil): %v", typ, err)
		}
		got, err := Decompress(typ, compressed, 0)
		if err != nil {
			t.Fatalf("%s: Decompress: %v", typ, err)
		}
		if len(got) != 0 {
			t.Fatalf("%s: expected empty output, got %d bytes", typ, len(got))
		}
	}
}

func TestEmbedsSize(t *testing.T) {
	if !Snappy.EmbedsSize() {
		t.Error("Snappy should embed its own decompressed length")
	}
	if !Zstd.EmbedsSize() {
		t.Error("Zstd should embed its own decompressed length")
	}
	if LZ4.EmbedsSize() {
		t.Error("LZ4 raw blocks do not embed their decompressed length")
	}
}

func TestLZ4RequiresSize(t *testing.T) {
	compressed, err := Compress(LZ4, []byte("hello world"))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if _, err := Decompress(LZ4, compressed, 0); err == nil {
		t.Fatal("expected an error decompressing LZ4 without a known size")
	}
}

func TestUnsupportedType(t *testing.T) {
	const bogus Type = 0x2
	if _, err := Compress(bogus, []byte("x")); err == nil {
		t.Error("expected Compress to reject an unknown type")
	}
	if _, err := Decompress(bogus, []byte("x"), 1); err == nil {
		t.Error("expected Decompress to reject an unknown type")
	}
}

func TestTypeString(t *testing.T) {
	if !strings.Contains(Type(0x2).String(), "Unknown") {
		t.Error("unknown type should stringify with an Unknown marker")
	}
}
