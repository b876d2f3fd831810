package sst

import "testing"

func keysOf(entries []sliceEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.key.UserKey)
	}
	return out
}

func TestBoundsCursorIncludedExcludedUnbounded(t *testing.T) {
	entries := []sliceEntry{
		put("a", 1, "A"), put("b", 1, "B"), put("c", 1, "C"),
		put("d", 1, "D"), put("e", 1, "E"),
	}

	cases := []struct {
		name     string
		lo, hi   Endpoint
		expected []string
	}{
		{
			name:     "unbounded both sides",
			lo:       Endpoint{Kind: Unbounded},
			hi:       Endpoint{Kind: Unbounded},
			expected: []string{"a", "b", "c", "d", "e"},
		},
		{
			name:     "included both sides",
			lo:       Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("b")}},
			hi:       Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("d")}},
			expected: []string{"b", "c", "d"},
		},
		{
			name:     "excluded both sides",
			lo:       Endpoint{Kind: Excluded, Key: KeyRef{UserKey: []byte("b")}},
			hi:       Endpoint{Kind: Excluded, Key: KeyRef{UserKey: []byte("d")}},
			expected: []string{"c"},
		},
		{
			name:     "excluded lo, unbounded hi",
			lo:       Endpoint{Kind: Excluded, Key: KeyRef{UserKey: []byte("d")}},
			hi:       Endpoint{Kind: Unbounded},
			expected: []string{"e"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBoundsCursor(newSliceCursor(entries), tc.lo, tc.hi)
			b.SeekToFirst()
			if b.Valid() {
				t.Fatal("SeekToFirst must only arm BeforeFirst")
			}
			var got []string
			for {
				b.Next()
				if !b.Valid() {
					break
				}
				got = append(got, string(b.Key().UserKey))
			}
			if len(got) != len(tc.expected) {
				t.Fatalf("got %v, want %v", got, tc.expected)
			}
			for i := range tc.expected {
				if got[i] != tc.expected[i] {
					t.Fatalf("got %v, want %v", got, tc.expected)
				}
			}
		})
	}
}

func TestBoundsCursorBackwardMatchesRange(t *testing.T) {
	entries := []sliceEntry{
		put("a", 1, "A"), put("b", 1, "B"), put("c", 1, "C"), put("d", 1, "D"),
	}
	lo := Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("b")}}
	hi := Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("c")}}
	b := NewBoundsCursor(newSliceCursor(entries), lo, hi)

	b.SeekToLast()
	if b.Valid() {
		t.Fatal("SeekToLast must only arm AfterLast")
	}
	var got []string
	for {
		b.Prev()
		if !b.Valid() {
			break
		}
		got = append(got, string(b.Key().UserKey))
	}
	want := []string{"c", "b"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBoundsCursorSeekOutsideRangeClamps(t *testing.T) {
	entries := []sliceEntry{put("a", 1, "A"), put("b", 1, "B"), put("c", 1, "C")}
	lo := Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("b")}}
	hi := Endpoint{Kind: Included, Key: KeyRef{UserKey: []byte("c")}}
	b := NewBoundsCursor(newSliceCursor(entries), lo, hi)

	b.Seek(KeyRef{UserKey: []byte("a")})
	if !b.Valid() || string(b.Key().UserKey) != "b" {
		t.Fatalf("Seek below lo should clamp to lo, got valid=%v key=%q", b.Valid(), b.Key().UserKey)
	}

	b.Seek(KeyRef{UserKey: []byte("z")})
	if b.Valid() {
		t.Fatalf("Seek past hi should land AfterLast, got %q", b.Key().UserKey)
	}
}
