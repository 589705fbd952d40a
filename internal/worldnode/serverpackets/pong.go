package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// Pong answers a client PING.
type Pong struct {
	Sequence uint32
}

// Write serializes the Pong payload.
func (p *Pong) Write() []byte {
	b := buffer.New(4)
	b.WriteUint32(p.Sequence)
	return b.Bytes()
}
