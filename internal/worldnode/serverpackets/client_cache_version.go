package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// ClientCacheVersion tells the client which server-side cache epoch to
// validate its local cache against.
type ClientCacheVersion struct {
	Version uint32
}

// Write serializes the ClientCacheVersion payload.
func (p *ClientCacheVersion) Write() []byte {
	b := buffer.New(4)
	b.WriteUint32(p.Version)
	return b.Bytes()
}
