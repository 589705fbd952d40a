package wowcrypto

import (
	"bytes"
	"crypto/sha1"
	"testing"

	"github.com/avalon-core/worldnode/internal/bignum"
)

func TestHasher_MatchesStdlibSHA1(t *testing.T) {
	h := NewHasher()
	h.Update([]byte("TESTER"))
	got := h.Sum()

	want := sha1.Sum([]byte("TESTER"))
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestHasher_UpdateBigNum(t *testing.T) {
	n := bignum.FromBytes([]byte{0x01, 0x02})
	h := NewHasher()
	h.UpdateBigNum(4, n)
	got := h.Sum()

	want := sha1.Sum([]byte{0x00, 0x00, 0x01, 0x02})
	if !bytes.Equal(got[:], want[:]) {
		t.Fatalf("got %x, want %x", got, want)
	}
}

func TestHMACKey_KnownVector(t *testing.T) {
	key := []byte("key")
	data := []byte("The quick brown fox jumps over the lazy dog")
	got := HMACKey(key, data)

	want := [20]byte{
		0xde, 0x7c, 0x9b, 0x85, 0xb8, 0xb7, 0x8a, 0xa6,
		0xbc, 0x8a, 0x7a, 0x36, 0xf7, 0x0a, 0x90, 0x70,
		0x1c, 0x9d, 0xb4, 0xd9,
	}
	if got != want {
		t.Fatalf("got %x, want %x", got, want)
	}
}
