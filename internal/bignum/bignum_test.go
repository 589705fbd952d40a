package bignum

import (
	"bytes"
	"testing"
)

func TestBigNumber_BytesRoundTrip(t *testing.T) {
	n := FromBytes([]byte{0xDE, 0xAD, 0xBE, 0xEF})
	got := n.Bytes(8)
	want := []byte{0, 0, 0, 0, 0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
	back := FromBytes(got)
	if back.String() != n.String() {
		t.Fatalf("round-trip mismatch: got %s, want %s", back.String(), n.String())
	}
}

func TestBigNumber_FromHex(t *testing.T) {
	n, err := FromHex("deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := n.Bytes(4)
	want := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestBigNumber_FromHexInvalid(t *testing.T) {
	if _, err := FromHex("not-hex"); err == nil {
		t.Fatal("expected error for invalid hex string")
	}
}

func TestBigNumber_RandFillsExactBits(t *testing.T) {
	n, err := Rand(128)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := n.Bytes(16)
	if len(got) != 16 {
		t.Fatalf("got %d bytes, want 16", len(got))
	}
}

func TestBigNumber_BytesZeroPadsHighSide(t *testing.T) {
	n := FromBytes([]byte{0x01})
	got := n.Bytes(40)
	if len(got) != 40 {
		t.Fatalf("got %d bytes, want 40", len(got))
	}
	for i := 0; i < 39; i++ {
		if got[i] != 0 {
			t.Fatalf("byte %d = %x, want 0", i, got[i])
		}
	}
	if got[39] != 0x01 {
		t.Fatalf("last byte = %x, want 0x01", got[39])
	}
}
