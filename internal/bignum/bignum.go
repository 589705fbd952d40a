// Package bignum provides the fixed-width unsigned big integer the session
// handshake needs: random generation for seeds, hex parsing for session
// keys stored in the accounts table, and zero-padded fixed-width
// big-endian serialization for hashing.
package bignum

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// BigNumber wraps math/big.Int, exposing only the operations the crypto
// layer actually needs.
type BigNumber struct {
	v *big.Int
}

// Rand returns a BigNumber filled with exactly bits of cryptographic
// randomness.
func Rand(bits int) (*BigNumber, error) {
	if bits <= 0 || bits%8 != 0 {
		return nil, fmt.Errorf("bignum: Rand bits must be a positive multiple of 8, got %d", bits)
	}
	buf := make([]byte, bits/8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("bignum: reading random bytes: %w", err)
	}
	return &BigNumber{v: new(big.Int).SetBytes(buf)}, nil
}

// FromHex parses a hex string (as stored in accounts.sessionKey) into a
// BigNumber.
func FromHex(s string) (*BigNumber, error) {
	v, ok := new(big.Int).SetString(s, 16)
	if !ok {
		return nil, fmt.Errorf("bignum: invalid hex string %q", s)
	}
	return &BigNumber{v: v}, nil
}

// FromBytes interprets b as a big-endian unsigned integer.
func FromBytes(b []byte) *BigNumber {
	return &BigNumber{v: new(big.Int).SetBytes(b)}
}

// Bytes returns the big-endian serialization of n, zero-padded on the high
// side to exactly width bytes. Panics if n does not fit in width bytes;
// callers control width and must pick one large enough for their domain
// (e.g. 40 bytes for a session key).
func (n *BigNumber) Bytes(width int) []byte {
	raw := n.v.Bytes()
	if len(raw) > width {
		panic(fmt.Sprintf("bignum: value needs %d bytes, width is %d", len(raw), width))
	}
	out := make([]byte, width)
	copy(out[width-len(raw):], raw)
	return out
}

// String returns the hex representation of n.
func (n *BigNumber) String() string {
	return n.v.Text(16)
}
