package serverpackets

import "github.com/avalon-core/worldnode/internal/buffer"

// AddonInfoEntry is one addon record in SMSG_ADDON_INFO. UsePublicKey is set
// when the client reported a CRC diverging from the canonical value, asking
// it to re-verify against the server's public key.
type AddonInfoEntry struct {
	UsePublicKey bool
}

// AddonInfo lists the server's verdict on every well-known addon, followed
// by a banned-addon count (always zero here).
type AddonInfo struct {
	Entries []AddonInfoEntry
}

// Write serializes the AddonInfo payload.
func (p *AddonInfo) Write() []byte {
	b := buffer.New(len(p.Entries)*8 + 4)
	for _, e := range p.Entries {
		b.WriteUint8(2) // state
		b.WriteUint8(1) // use_key_or_crc
		if e.UsePublicKey {
			b.WriteUint8(1)
		} else {
			b.WriteUint8(0)
		}
		b.WriteUint32(0)
		b.WriteUint8(0) // uses_url
	}
	b.WriteUint32(0) // banned addon count
	return b.Bytes()
}
