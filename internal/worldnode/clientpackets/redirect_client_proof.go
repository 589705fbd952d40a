package clientpackets

import (
	"fmt"

	"github.com/avalon-core/worldnode/internal/buffer"
)

// RedirectClientProof is AuthSession's sibling for a client continuing an
// already-established session after a connection redirect.
//
// Body layout: cstring username, u64 dos_response, 20-byte digest.
type RedirectClientProof struct {
	Username string
	Digest   [20]byte
}

// ParseRedirectClientProof parses a REDIRECT_CLIENT_PROOF body.
func ParseRedirectClientProof(data []byte) (*RedirectClientProof, error) {
	b := buffer.NewFromBytes(data)

	username, err := b.ReadCString()
	if err != nil {
		return nil, fmt.Errorf("reading username: %w", err)
	}
	if _, err := b.ReadUint64(); err != nil { // dos_response
		return nil, fmt.Errorf("reading dos response: %w", err)
	}
	digestBytes, err := b.ReadBytesCopy(20)
	if err != nil {
		return nil, fmt.Errorf("reading digest: %w", err)
	}

	p := &RedirectClientProof{Username: username}
	copy(p.Digest[:], digestBytes)
	return p, nil
}
