package wowcrypto

import (
	"bytes"
	"testing"

	"github.com/avalon-core/worldnode/internal/bignum"
)

func TestCipher_PassThroughBeforeFinalize(t *testing.T) {
	c := New()
	original := []byte{0x01, 0x02, 0x03}
	data := append([]byte(nil), original...)

	c.ProcessOut(data)
	if !bytes.Equal(data, original) {
		t.Fatalf("pass-through ProcessOut must be a no-op: got %x, want %x", data, original)
	}

	c.ProcessIn(data)
	if !bytes.Equal(data, original) {
		t.Fatalf("pass-through ProcessIn must be a no-op: got %x, want %x", data, original)
	}

	if c.EncPosition() != 0 || c.DecPosition() != 0 {
		t.Fatal("pass-through cipher must not advance position counters")
	}
}

// peerCiphers returns a (server, client) pair keyed from the same session
// key. The client derives with the seed roles swapped, so its inbound key
// equals the server's outbound key and vice versa.
func peerCiphers(t *testing.T) (*Cipher, *Cipher) {
	t.Helper()

	sessionKey := bignum.FromBytes([]byte{0xAA, 0xBB, 0xCC, 0xDD})
	seed1 := [16]byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	seed2 := [16]byte{16, 17, 18, 19, 20, 21, 22, 23, 24, 25, 26, 27, 28, 29, 30, 31}

	server := New()
	server.Finalize(sessionKey, seed1, seed2)

	client := New()
	client.Finalize(sessionKey, seed2, seed1)

	return server, client
}

func TestCipher_FinalizeActivates(t *testing.T) {
	server, client := peerCiphers(t)
	if !server.IsActive() || !client.IsActive() {
		t.Fatal("Finalize must activate the cipher")
	}
}

func TestCipher_ServerToClientRoundTrip(t *testing.T) {
	server, client := peerCiphers(t)

	original := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	data := append([]byte(nil), original...)

	server.ProcessOut(data)
	if bytes.Equal(data, original) {
		t.Fatal("active ProcessOut must transform the bytes")
	}

	client.ProcessIn(data)
	if !bytes.Equal(data, original) {
		t.Fatalf("decrypt(encrypt(x)) = %x, want %x", data, original)
	}
}

func TestCipher_ClientToServerRoundTrip(t *testing.T) {
	server, client := peerCiphers(t)

	original := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x42, 0x00}
	data := append([]byte(nil), original...)

	client.ProcessOut(data)
	server.ProcessIn(data)
	if !bytes.Equal(data, original) {
		t.Fatalf("decrypt(encrypt(x)) = %x, want %x", data, original)
	}
}

// The ciphertext feedback chain spans frames: a second header must still
// decode after the first, with both sides keeping their positions in step.
func TestCipher_FeedbackChainAcrossFrames(t *testing.T) {
	server, client := peerCiphers(t)

	frames := [][]byte{
		{0x00, 0x06, 0xEE, 0x01},
		{0x00, 0x08, 0xDD, 0x01},
		{0x80, 0x00, 0x02, 0x01, 0x00},
	}

	var total uint64
	for i, original := range frames {
		data := append([]byte(nil), original...)
		server.ProcessOut(data)
		client.ProcessIn(data)
		if !bytes.Equal(data, original) {
			t.Fatalf("frame %d: got %x, want %x", i, data, original)
		}
		total += uint64(len(original))
		if server.EncPosition() != total || client.DecPosition() != total {
			t.Fatalf("frame %d: positions enc=%d dec=%d, want %d", i, server.EncPosition(), client.DecPosition(), total)
		}
	}
}

func TestCipher_PositionsAdvanceMonotonically(t *testing.T) {
	server, _ := peerCiphers(t)

	buf := make([]byte, 6)
	server.ProcessOut(buf)
	if server.EncPosition() != 6 {
		t.Fatalf("EncPosition = %d, want 6", server.EncPosition())
	}
	server.ProcessOut(buf[:4])
	if server.EncPosition() != 10 {
		t.Fatalf("EncPosition = %d, want 10", server.EncPosition())
	}
	if server.DecPosition() != 0 {
		t.Fatalf("DecPosition = %d, want 0 (independent of enc)", server.DecPosition())
	}
}
