package sst

import "testing"

func TestPruningCursorKeepsOnlyLatestAtOrBeforeT(t *testing.T) {
	// Scenario 4: ("k", 1, "a"), ("k", 3, "c"), ("k", 5, "e") stored newest
	// first, per §3 order.
	entries := []sliceEntry{put("k", 5, "e"), put("k", 3, "c"), put("k", 1, "a")}

	check := func(ts uint64, wantTS uint64, wantVal string, wantAny bool) {
		t.Helper()
		p := NewPruningCursor(newSliceCursor(entries), ts)
		p.SeekToFirst()
		p.Next()
		if !wantAny {
			if p.Valid() {
				t.Fatalf("ts=%d: expected no visible entry, got %q@%d", ts, p.Key().UserKey, p.Key().Timestamp)
			}
			return
		}
		if !p.Valid() {
			t.Fatalf("ts=%d: expected a visible entry", ts)
		}
		if p.Key().Timestamp != wantTS || string(p.Value()) != wantVal {
			t.Fatalf("ts=%d: got %q@%d, want %q@%d", ts, p.Value(), p.Key().Timestamp, wantVal, wantTS)
		}
		p.Next()
		if p.Valid() {
			t.Fatalf("ts=%d: expected exactly one visible entry for the key, got a second", ts)
		}
	}

	check(4, 3, "c", true)
	check(5, 5, "e", true)
	check(0, 0, "", false)
}

func TestPruningCursorTombstoneShadowsOlderPut(t *testing.T) {
	entries := []sliceEntry{del("k", 20), put("k", 10, "old")}
	p := NewPruningCursor(newSliceCursor(entries), 25)
	p.SeekToFirst()
	p.Next()
	if !p.Valid() {
		t.Fatal("expected the tombstone to be visible")
	}
	if !p.Tombstone() {
		t.Fatal("expected a tombstone, got a live value")
	}

	p2 := NewPruningCursor(newSliceCursor(entries), 15)
	p2.SeekToFirst()
	p2.Next()
	if !p2.Valid() || p2.Tombstone() || string(p2.Value()) != "old" {
		t.Fatalf("ts=15 should see the older put, got valid=%v tombstone=%v value=%q", p2.Valid(), p2.Tombstone(), p2.Value())
	}
}

func TestPruningCursorSentinelDiscipline(t *testing.T) {
	entries := []sliceEntry{put("a", 1, "A"), put("b", 1, "B")}
	p := NewPruningCursor(newSliceCursor(entries), 10)

	p.SeekToFirst()
	if p.Valid() {
		t.Fatal("SeekToFirst must only arm BeforeFirst")
	}
	p.Prev()
	if p.Valid() {
		t.Fatal("Prev from BeforeFirst must stay put")
	}

	p.SeekToLast()
	if p.Valid() {
		t.Fatal("SeekToLast must only arm AfterLast")
	}
	p.Next()
	if p.Valid() {
		t.Fatal("Next from AfterLast must stay put")
	}
}

func TestPruningCursorBackwardMatchesForward(t *testing.T) {
	entries := []sliceEntry{
		put("a", 5, "A2"), put("a", 1, "A1"),
		put("b", 3, "B"),
		del("c", 4),
		put("d", 2, "D"),
	}
	ts := uint64(5)
	p := NewPruningCursor(newSliceCursor(entries), ts)
	p.SeekToFirst()
	var forward []string
	for {
		p.Next()
		if !p.Valid() {
			break
		}
		forward = append(forward, string(p.Key().UserKey))
	}
	want := []string{"a", "b", "c", "d"}
	if len(forward) != len(want) {
		t.Fatalf("forward got %v, want %v", forward, want)
	}
	for i := range want {
		if forward[i] != want[i] {
			t.Fatalf("forward got %v, want %v", forward, want)
		}
	}

	p.SeekToLast()
	var backward []string
	for {
		p.Prev()
		if !p.Valid() {
			break
		}
		backward = append(backward, string(p.Key().UserKey))
	}
	for i, j := 0, len(forward)-1; i < len(backward); i, j = i+1, j-1 {
		if backward[i] != forward[j] {
			t.Fatalf("backward walk %v is not the reverse of forward walk %v", backward, forward)
		}
	}
}
