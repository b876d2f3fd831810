package divide

import (
	"bytes"
	"testing"
)

func TestDivider(t *testing.T) {
	tests := []struct {
		name             string
		lastKey, nextKey []byte
		lastTS, nextTS   uint64
		wantKey          []byte
		wantTS           uint64
	}{
		{
			name: "empty_timestamp",
			lastKey: nil, lastTS: 0,
			nextKey: nil, nextTS: 5,
			wantKey: nil, wantTS: 0,
		},
		{
			name: "shared_prefix_no_diff",
			lastKey: []byte{0xaa, 0x00}, lastTS: 0,
			nextKey: []byte{0xaa, 0x05, 0xaa}, nextTS: 0,
			wantKey: []byte{0xaa, 0x01}, wantTS: 0,
		},
		{
			name: "shared_prefix_0xff",
			lastKey: []byte{0xff, 0xff, 0x00}, lastTS: 0,
			nextKey: []byte{0xff, 0xff, 0x05, 0xff, 0xff}, nextTS: 0,
			wantKey: []byte{0xff, 0xff, 0x01}, wantTS: 0,
		},
		{
			name: "adjacent_shared",
			lastKey: []byte{0xaa}, lastTS: 3,
			nextKey: []byte{0xaa, 0x00}, nextTS: 0,
			wantKey: []byte{0xaa}, wantTS: 3,
		},
		{
			name: "bug_1",
			lastKey: []byte{54}, lastTS: 4025094399440583762,
			nextKey: []byte{56}, nextTS: 16919648803326809016,
			wantKey: []byte{55}, wantTS: 0,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotKey, gotTS := Divider(tc.lastKey, tc.lastTS, tc.nextKey, tc.nextTS)
			if !bytes.Equal(gotKey, tc.wantKey) || gotTS != tc.wantTS {
				t.Fatalf("Divider(%v, %d, %v, %d) = (%v, %d), want (%v, %d)",
					tc.lastKey, tc.lastTS, tc.nextKey, tc.nextTS, gotKey, gotTS, tc.wantKey, tc.wantTS)
			}
			// Only the exact divider is checked here; P5 ordering is not
			// asserted, since empty_timestamp passes last > next.
		})
	}
}

func TestMinimalSuccessorKey(t *testing.T) {
	tests := []struct {
		name    string
		key     []byte
		ts      uint64
		wantKey []byte
		wantTS  uint64
	}{
		{"empty_zero_ts", nil, 0, []byte{0x00}, 0},
		{"empty_nonzero_ts", nil, 1, []byte{}, 0},
		{"aa_zero_ts", []byte{0xaa}, 0, []byte{0xaa, 0x00}, 0},
		{"aa_five", []byte{0xaa}, 5, []byte{0xaa}, 4},
		{"ff_ff_ff_zero", []byte{0xff, 0xff, 0xff}, 0, []byte{0xff, 0xff, 0xff, 0x00}, 0},
		{"ff_ff_ff_seven", []byte{0xff, 0xff, 0xff}, 7, []byte{0xff, 0xff, 0xff}, 6},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			gotKey, gotTS := MinimalSuccessorKey(tc.key, tc.ts)
			if !bytes.Equal(gotKey, tc.wantKey) || gotTS != tc.wantTS {
				t.Fatalf("MinimalSuccessorKey(%v, %d) = (%v, %d), want (%v, %d)",
					tc.key, tc.ts, gotKey, gotTS, tc.wantKey, tc.wantTS)
			}
		})
	}
}
