// Package clientpackets contains one type per client-to-server message the
// world node parses itself. The frame opcode is stripped by the framing
// layer before these parsers run, so every Parse here consumes body bytes
// only. Opcodes outside this closed set are never parsed; they are
// forwarded to the world handler as-is.
package clientpackets

import (
	"fmt"

	"github.com/avalon-core/worldnode/internal/buffer"
)

// AuthSession is the client's proof of the session key it negotiated with
// the upstream auth server, plus the compressed addon manifest trailing it.
//
// Body layout: u32 build, u32 login_server_id, cstring account_name,
// u32 login_server_type, u32 local_challenge, u32 region_id,
// u32 battlegroup_id, u32 realm_id, u64 dos_response, 20-byte digest,
// addon blob (rest of body).
type AuthSession struct {
	Build          uint32
	AccountName    string
	LocalChallenge uint32
	Digest         [20]byte
	AddonRaw       []byte
}

// ParseAuthSession parses an AUTH_SESSION body.
func ParseAuthSession(data []byte) (*AuthSession, error) {
	b := buffer.NewFromBytes(data)

	build, err := b.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading build: %w", err)
	}
	if _, err := b.ReadUint32(); err != nil { // login_server_id
		return nil, fmt.Errorf("reading login server id: %w", err)
	}
	accountName, err := b.ReadCString()
	if err != nil {
		return nil, fmt.Errorf("reading account name: %w", err)
	}
	if _, err := b.ReadUint32(); err != nil { // login_server_type
		return nil, fmt.Errorf("reading login server type: %w", err)
	}
	localChallenge, err := b.ReadUint32()
	if err != nil {
		return nil, fmt.Errorf("reading local challenge: %w", err)
	}
	if _, err := b.ReadUint32(); err != nil { // region_id
		return nil, fmt.Errorf("reading region id: %w", err)
	}
	if _, err := b.ReadUint32(); err != nil { // battlegroup_id
		return nil, fmt.Errorf("reading battlegroup id: %w", err)
	}
	if _, err := b.ReadUint32(); err != nil { // realm_id
		return nil, fmt.Errorf("reading realm id: %w", err)
	}
	if _, err := b.ReadUint64(); err != nil { // dos_response
		return nil, fmt.Errorf("reading dos response: %w", err)
	}
	digestBytes, err := b.ReadBytesCopy(20)
	if err != nil {
		return nil, fmt.Errorf("reading digest: %w", err)
	}

	p := &AuthSession{
		Build:          build,
		AccountName:    accountName,
		LocalChallenge: localChallenge,
		AddonRaw:       append([]byte(nil), b.Bytes()...),
	}
	copy(p.Digest[:], digestBytes)
	return p, nil
}
