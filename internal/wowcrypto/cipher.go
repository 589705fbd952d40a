package wowcrypto

import (
	"sync/atomic"

	"github.com/avalon-core/worldnode/internal/bignum"
)

// directionState holds the rolling state for one direction of the stream
// cipher: a 20-byte key derived from the session key, plus the previous
// ciphertext byte fed back into the XOR chain. Position is tracked so
// callers can assert the counter only ever advances.
type directionState struct {
	key  [20]byte
	prev byte
	pos  uint64
}

// encrypt transforms buf in place: out[i] = in[i] XOR key[pos%20] XOR prev,
// then prev = out[i]. The feedback byte is the ciphertext just produced.
func (d *directionState) encrypt(buf []byte) {
	for i, b := range buf {
		x := b ^ d.key[d.pos%uint64(len(d.key))] ^ d.prev
		d.prev = x
		buf[i] = x
		d.pos++
	}
}

// decrypt inverts encrypt: out[i] = in[i] XOR key[pos%20] XOR prev, then
// prev = in[i]. The feedback byte is the ciphertext just consumed, so the
// decrypting side tracks the exact chain the encrypting side produced and
// decrypt(encrypt(p)) == p byte for byte.
func (d *directionState) decrypt(buf []byte) {
	for i, b := range buf {
		x := b ^ d.key[d.pos%uint64(len(d.key))] ^ d.prev
		d.prev = b
		buf[i] = x
		d.pos++
	}
}

// cipherState is the active variant: both directional states, built and
// published together so there is no window where only one direction is
// keyed.
type cipherState struct {
	enc directionState // outbound (this side -> peer)
	dec directionState // inbound (peer -> this side)
}

// Cipher is either pass-through or active. Before handshake success every
// header travels in the clear; Finalize publishes the active variant with a
// single atomic store, so the write pump and read loop each observe either
// the pass-through cipher or the fully keyed one, never a half-built state.
type Cipher struct {
	state atomic.Pointer[cipherState]
}

// New returns a pass-through cipher: Process is a no-op until Finalize.
func New() *Cipher {
	return &Cipher{}
}

// IsActive reports whether Finalize has been called.
func (c *Cipher) IsActive() bool { return c.state.Load() != nil }

// ProcessOut transforms an outbound header in place.
func (c *Cipher) ProcessOut(buf []byte) {
	if s := c.state.Load(); s != nil {
		s.enc.encrypt(buf)
	}
}

// ProcessIn transforms an inbound header in place.
func (c *Cipher) ProcessIn(buf []byte) {
	if s := c.state.Load(); s != nil {
		s.dec.decrypt(buf)
	}
}

// Finalize derives the two directional keys from the session key and the
// two connection seeds, then activates the cipher:
//
//	outbound key = SHA1(zero[64] || HMAC-SHA1(seed2, sessionKeyBytes))
//	inbound key  = SHA1(zero[64] || HMAC-SHA1(seed1, sessionKeyBytes))
//
// The peer runs the same derivation with the seed roles swapped, so its
// inbound key equals this side's outbound key and vice versa; each
// directional pair shares one key and one ciphertext feedback chain.
// sessionKeyBytes uses the same 40-byte fixed width as the digest check,
// so one session-key serialization feeds both.
func (c *Cipher) Finalize(sessionKey *bignum.BigNumber, seed1, seed2 [16]byte) {
	skBytes := sessionKey.Bytes(40)

	hmac2 := HMACKey(seed2[:], skBytes)
	hmac1 := HMACKey(seed1[:], skBytes)

	var zero [64]byte
	encHasher := NewHasher()
	encHasher.Update(zero[:])
	encHasher.Update(hmac2[:])
	encDigest := encHasher.Sum()

	decHasher := NewHasher()
	decHasher.Update(zero[:])
	decHasher.Update(hmac1[:])
	decDigest := decHasher.Sum()

	s := &cipherState{}
	copy(s.enc.key[:], encDigest[:])
	copy(s.dec.key[:], decDigest[:])
	c.state.Store(s)
}

// EncPosition and DecPosition expose the monotonic per-direction counters.
// Both are zero while the cipher is pass-through.
func (c *Cipher) EncPosition() uint64 {
	if s := c.state.Load(); s != nil {
		return s.enc.pos
	}
	return 0
}

func (c *Cipher) DecPosition() uint64 {
	if s := c.state.Load(); s != nil {
		return s.dec.pos
	}
	return 0
}
