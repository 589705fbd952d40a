package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// AuthChallenge carries the handshake seeds to the client: the 32-bit
// connection seed it must mix into its digest, and the two 128-bit server
// seeds that later key the stream cipher.
type AuthChallenge struct {
	ConnSeed uint32
	Seed1    [16]byte
	Seed2    [16]byte
}

// Write serializes the AuthChallenge payload.
func (p *AuthChallenge) Write() []byte {
	b := buffer.New(40)
	b.WriteUint32(1) // unk
	b.WriteUint32(p.ConnSeed)
	b.WriteBytes(p.Seed1[:])
	b.WriteBytes(p.Seed2[:])
	return b.Bytes()
}
