package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// AuthResponse reports the handshake verdict. This node only ever sends it
// on success (a failed digest closes the socket with no body reply), so
// Result is always AuthOK in practice, but the field is kept explicit to
// match the wire contract.
type AuthResponse struct {
	Result    uint8
	Expansion uint8
}

// Write serializes the AuthResponse payload: result code, billing filler,
// and the account's expansion level.
func (p *AuthResponse) Write() []byte {
	b := buffer.New(15)
	b.WriteUint8(p.Result)
	b.WriteUint32(0) // billing time remaining
	b.WriteUint8(0)  // billing flags
	b.WriteUint32(0) // billing time rested
	b.WriteUint8(p.Expansion)
	return b.Bytes()
}
