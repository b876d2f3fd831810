package sst

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/nyxdb/sstcore/internal/block"
	"github.com/nyxdb/sstcore/internal/compression"
	"github.com/nyxdb/sstcore/internal/errs"
)

func buildSst(t *testing.T, opts BuilderOptions, entries []sliceEntry) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, opts)
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	for _, e := range entries {
		if e.tombstone {
			if err := b.Del(e.key.UserKey, e.key.Timestamp); err != nil {
				t.Fatalf("Del(%q): %v", e.key.UserKey, err)
			}
			continue
		}
		if err := b.Put(e.key.UserKey, e.key.Timestamp, e.value); err != nil {
			t.Fatalf("Put(%q): %v", e.key.UserKey, err)
		}
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	return path
}

func TestSstBuilderRejectsSortOrderViolation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, DefaultBuilderOptions())
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	if err := b.Put([]byte("b"), 1, []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	err = b.Put([]byte("a"), 1, []byte("y"))
	if _, ok := err.(*errs.SortOrderError); !ok {
		t.Fatalf("expected *errs.SortOrderError, got %T: %v", err, err)
	}
	// A rejected write must leave the builder usable for a valid one.
	if err := b.Put([]byte("c"), 1, []byte("z")); err != nil {
		t.Fatalf("builder should remain usable after a rejected write: %v", err)
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
}

func TestSstBuilderRejectsOversizedKeyAndValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, DefaultBuilderOptions())
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	big := make([]byte, block.MaxKeyLen+1)
	if _, ok := b.Put(big, 1, []byte("v")).(*errs.KeyTooLargeError); !ok {
		t.Fatalf("expected *errs.KeyTooLargeError")
	}
	bigVal := make([]byte, block.MaxValueLen+1)
	if _, ok := b.Put([]byte("k"), 1, bigVal).(*errs.ValueTooLargeError); !ok {
		t.Fatalf("expected *errs.ValueTooLargeError")
	}
}

func TestSstBuilderSealTwiceFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, DefaultBuilderOptions())
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	if err := b.Put([]byte("a"), 1, []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
	if _, ok := b.Seal().(*errs.LogicError); !ok {
		t.Fatalf("expected *errs.LogicError on double seal")
	}
}

func TestSstBuilderRoundTripThroughMultipleBlocks(t *testing.T) {
	opts := DefaultBuilderOptions()
	opts.Block = block.Options{TargetEntriesBetweenRestarts: 4, TargetBlockSize: 64}
	opts.TargetBlockSize = 64

	var entries []sliceEntry
	for i := 0; i < 1000; i++ {
		entries = append(entries, put(fmt.Sprintf("key%04d", i), 1, "v"))
	}
	path := buildSst(t, opts, entries)

	s, err := New(path, SstOptions{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer s.Close()

	c := s.Cursor()
	c.SeekToFirst()
	for i, want := range entries {
		c.Next()
		if err := c.Err(); err != nil {
			t.Fatalf("entry %d: Next: %v", i, err)
		}
		if !c.Valid() {
			t.Fatalf("entry %d: expected valid", i)
		}
		if string(c.Key().UserKey) != string(want.key.UserKey) {
			t.Fatalf("entry %d: got %q, want %q", i, c.Key().UserKey, want.key.UserKey)
		}
	}
	c.Next()
	if c.Valid() {
		t.Fatal("expected AfterLast once every entry has been consumed")
	}
}

func TestSstBuilderApproxSizeStaysWithinTableFullSize(t *testing.T) {
	// TABLE_FULL_SIZE (1 GiB - 64 MiB) is too large to actually exhaust in a
	// unit test; this instead checks P9's invariant holds across ordinary
	// writes well short of the limit.
	opts := DefaultBuilderOptions()
	opts.TargetFileSize = 4 << 10
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, opts)
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	for i := 0; i < 500; i++ {
		if err := b.Put([]byte(fmt.Sprintf("key%06d", i)), 1, []byte("value-payload")); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
		if b.ApproxSize() > TableFullSize {
			t.Fatalf("approx size exceeded TableFullSize at entry %d", i)
		}
	}
	if err := b.Seal(); err != nil {
		t.Fatalf("Seal: %v", err)
	}
}

func TestSstBuilderAbandonLeavesFileRemovable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.sst")
	b, err := NewSstBuilder(path, DefaultBuilderOptions())
	if err != nil {
		t.Fatalf("NewSstBuilder: %v", err)
	}
	if err := b.Put([]byte("a"), 1, []byte("x")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := b.Abandon(); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("expected an abandoned builder's file to be removable: %v", err)
	}
}

func TestSstBuilderCompressedRoundTrip(t *testing.T) {
	for _, algo := range []compression.Type{compression.Snappy, compression.Zstd} {
		t.Run(algo.String(), func(t *testing.T) {
			opts := DefaultBuilderOptions()
			opts.BlockCompression = algo
			opts.TargetBlockSize = 64
			opts.Block = block.Options{TargetEntriesBetweenRestarts: 4, TargetBlockSize: 64}

			var entries []sliceEntry
			for i := 0; i < 100; i++ {
				entries = append(entries, put(fmt.Sprintf("key%04d", i), 1, "a-repeating-value-a-repeating-value"))
			}
			path := buildSst(t, opts, entries)

			s, err := New(path, SstOptions{})
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer s.Close()

			c := s.Cursor()
			c.SeekToFirst()
			count := 0
			for {
				c.Next()
				if err := c.Err(); err != nil {
					t.Fatalf("Next: %v", err)
				}
				if !c.Valid() {
					break
				}
				if string(c.Key().UserKey) != string(entries[count].key.UserKey) {
					t.Fatalf("entry %d: got %q, want %q", count, c.Key().UserKey, entries[count].key.UserKey)
				}
				count++
			}
			if count != len(entries) {
				t.Fatalf("got %d entries, want %d", count, len(entries))
			}
		})
	}
}
