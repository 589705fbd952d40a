package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// UpdateAccountDataComplete acknowledges a client account-data upload of the
// given type.
type UpdateAccountDataComplete struct {
	DataType uint32
}

// Write serializes the UpdateAccountDataComplete payload.
func (p *UpdateAccountDataComplete) Write() []byte {
	b := buffer.New(8)
	b.WriteUint32(p.DataType)
	b.WriteUint32(0) // result
	return b.Bytes()
}
