package sst

import (
	"errors"
	"testing"
)

func TestLazyCursorDefersConstruction(t *testing.T) {
	built := false
	l := NewLazyCursor(func() (Cursor, error) {
		built = true
		return newSliceCursor([]sliceEntry{put("a", 1, "A")}), nil
	})
	if built {
		t.Fatal("producer must not run before first positioning call")
	}
	l.SeekToFirst()
	if !built {
		t.Fatal("producer must run on first positioning call")
	}
	l.Next()
	if !l.Valid() || string(l.Key().UserKey) != "a" {
		t.Fatalf("expected to land on a, got valid=%v key=%q", l.Valid(), l.Key().UserKey)
	}
}

func TestLazyCursorSurfacesProducerError(t *testing.T) {
	wantErr := errors.New("boom")
	l := NewLazyCursor(func() (Cursor, error) { return nil, wantErr })
	l.SeekToFirst()
	if l.Err() != wantErr {
		t.Fatalf("expected producer error to surface, got %v", l.Err())
	}
	if l.Valid() {
		t.Fatal("a cursor with a producer error must never be valid")
	}
}

func TestLazyCursorBuildsOnce(t *testing.T) {
	calls := 0
	l := NewLazyCursor(func() (Cursor, error) {
		calls++
		return newSliceCursor([]sliceEntry{put("a", 1, "A"), put("b", 1, "B")}), nil
	})
	l.SeekToFirst()
	l.Next()
	l.Next()
	l.SeekToFirst()
	l.Next()
	if calls != 1 {
		t.Fatalf("expected the producer to run exactly once, ran %d times", calls)
	}
}
