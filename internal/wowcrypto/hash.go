// Package wowcrypto implements the session handshake's primitive crypto:
// an incremental SHA-1/HMAC-SHA-1 hasher that also accepts big-integer
// operands, and the per-direction stream cipher derived from the resulting
// session key.
package wowcrypto

import (
	"crypto/hmac"
	"crypto/sha1"
	"hash"

	"github.com/avalon-core/worldnode/internal/bignum"
)

// Hasher is an incremental SHA-1 accumulator: plain byte updates plus a
// helper for hashing a fixed-width big-integer serialization.
type Hasher struct {
	h hash.Hash
}

// NewHasher returns a fresh SHA-1 accumulator.
func NewHasher() *Hasher {
	return &Hasher{h: sha1.New()}
}

// Update feeds b into the running hash.
func (h *Hasher) Update(b []byte) {
	h.h.Write(b)
}

// UpdateBigNum feeds the width-padded big-endian serialization of n into the
// running hash.
func (h *Hasher) UpdateBigNum(width int, n *bignum.BigNumber) {
	h.Update(n.Bytes(width))
}

// Sum finalizes and returns the 20-byte digest. The Hasher must not be
// reused afterward.
func (h *Hasher) Sum() [20]byte {
	var out [20]byte
	copy(out[:], h.h.Sum(nil))
	return out
}

// HMACKey computes HMAC-SHA1(key, data).
func HMACKey(key, data []byte) [20]byte {
	mac := hmac.New(sha1.New, key)
	mac.Write(data)
	var out [20]byte
	copy(out[:], mac.Sum(nil))
	return out
}
