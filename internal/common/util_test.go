package common

import (
	"testing"
)

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte{1, 2, 3, 4, 5}
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf := GenerateRandByteArray(n)
	if buf == nil {
		t.Fatalf("expected non-nil slice")
	}
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)

	if len(a) != n || len(b) != n {
		t.Fatalf("unexpected lengths: %d, %d", len(a), len(b))
	}

	identical := true
	for i := range a {
		if a[i] != b[i] {
			identical = false
			break
		}
	}
	if identical {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}

// ---------- addresses ----------

func TestIsHexAddress(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0xa0Ee7A142d267C1f36714E4a8F75612F20a79720", true},
		{"0xa0ee7a142d267c1f36714e4a8f75612f20a79720", true},
		{"a0ee7a142d267c1f36714e4a8f75612f20a79720", false},
		{"0xa0ee7a142d267c1f36714e4a8f75612f20a7972", false},
		{"0xzzee7a142d267c1f36714e4a8f75612f20a79720", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsHexAddress(tt.in); got != tt.want {
			t.Fatalf("IsHexAddress(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalAddress(t *testing.T) {
	got := CanonicalAddress(" 0xA0Ee7A142d267C1f36714E4a8F75612F20a79720 ")
	if got != "0xa0ee7a142d267c1f36714e4a8f75612f20a79720" {
		t.Fatalf("unexpected canonical form %q", got)
	}
}
