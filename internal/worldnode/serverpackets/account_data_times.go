package serverpackets

import (
	"math/bits"

	"github.com/avalon-core/worldnode/internal/buffer"
)

// AccountDataTimes reports the server-side timestamps of the account-data
// slots selected by Mask: one zero u32 per set mask bit, since this node
// stores no account data.
type AccountDataTimes struct {
	Now  uint32
	Mask uint32
}

// Write serializes the AccountDataTimes payload.
func (p *AccountDataTimes) Write() []byte {
	b := buffer.New(4 + 1 + 4 + 4*bits.OnesCount32(p.Mask))
	b.WriteUint32(p.Now)
	b.WriteUint8(1) // activation flag
	b.WriteUint32(p.Mask)
	for i := 0; i < 32; i++ {
		if p.Mask&(1<<uint(i)) != 0 {
			b.WriteUint32(0)
		}
	}
	return b.Bytes()
}
