package sst

import "testing"

func TestMergingCursorTieBreaksByChildIndex(t *testing.T) {
	a := newSliceCursor([]sliceEntry{put("a", 1, "A")})
	b := newSliceCursor([]sliceEntry{put("a", 1, "B")})

	m := NewMergingCursor([]Cursor{a, b})
	m.SeekToFirst()
	m.Next()
	if !m.Valid() || string(m.Value()) != "A" {
		t.Fatalf("expected the lower-index child (A) to win the tie, got %q", m.Value())
	}
	m.Next()
	if m.Valid() {
		t.Fatal("expected exactly one merged entry for the tie")
	}

	// Swap the child order: the winner follows.
	a2 := newSliceCursor([]sliceEntry{put("a", 1, "A")})
	b2 := newSliceCursor([]sliceEntry{put("a", 1, "B")})
	m2 := NewMergingCursor([]Cursor{b2, a2})
	m2.SeekToFirst()
	m2.Next()
	if !m2.Valid() || string(m2.Value()) != "B" {
		t.Fatalf("expected the lower-index child (B) to win the tie, got %q", m2.Value())
	}
}

func TestMergingCursorUnionIsOrderMerged(t *testing.T) {
	a := newSliceCursor([]sliceEntry{put("a", 1, "A"), put("c", 1, "C")})
	b := newSliceCursor([]sliceEntry{put("b", 1, "B"), put("d", 1, "D")})
	m := NewMergingCursor([]Cursor{a, b})

	m.SeekToFirst()
	var got []string
	for {
		m.Next()
		if !m.Valid() {
			break
		}
		got = append(got, string(m.Key().UserKey))
	}
	want := []string{"a", "b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMergingCursorReverseMatchesForward(t *testing.T) {
	a := newSliceCursor([]sliceEntry{put("a", 1, "A"), put("c", 1, "C"), put("e", 1, "E")})
	b := newSliceCursor([]sliceEntry{put("b", 1, "B"), put("d", 1, "D")})
	m := NewMergingCursor([]Cursor{a, b})

	m.SeekToFirst()
	var forward []string
	for {
		m.Next()
		if !m.Valid() {
			break
		}
		forward = append(forward, string(m.Key().UserKey))
	}

	m.SeekToLast()
	var backward []string
	for {
		m.Prev()
		if !m.Valid() {
			break
		}
		backward = append(backward, string(m.Key().UserKey))
	}

	if len(backward) != len(forward) {
		t.Fatalf("backward %v does not match forward %v in length", backward, forward)
	}
	for i, j := 0, len(forward)-1; i < len(backward); i, j = i+1, j-1 {
		if backward[i] != forward[j] {
			t.Fatalf("backward %v is not the reverse of forward %v", backward, forward)
		}
	}
}

func TestMergingCursorSentinelDiscipline(t *testing.T) {
	a := newSliceCursor([]sliceEntry{put("a", 1, "A")})
	m := NewMergingCursor([]Cursor{a})

	m.SeekToFirst()
	if m.Valid() {
		t.Fatal("SeekToFirst must only arm BeforeFirst")
	}
	m.Prev()
	if m.Valid() {
		t.Fatal("Prev from BeforeFirst must stay put")
	}

	m.SeekToLast()
	if m.Valid() {
		t.Fatal("SeekToLast must only arm AfterLast")
	}
	m.Next()
	if m.Valid() {
		t.Fatal("Next from AfterLast must stay put")
	}
}
