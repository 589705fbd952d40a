package worldnode

import (
	"bytes"
	"errors"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zlib"

	"github.com/avalon-core/worldnode/internal/buffer"
	"github.com/avalon-core/worldnode/internal/opcode"
	"github.com/avalon-core/worldnode/internal/worldnode/serverpackets"
)

// maxAddonDecompressedSize bounds the decompressed addon blob.
const maxAddonDecompressedSize = 0xFFFFF

// addonEntry is one parsed CMSG_AUTH_SESSION addon record. Validated but
// never persisted.
type addonEntry struct {
	name    string
	enabled uint8
	crc     uint32
}

// parseAddonBlob decodes the trailing addon manifest of an AUTH_SESSION
// body: a 4-byte little-endian decompressed size, then zlib-deflated data
// holding a u32 count followed by that many entries. A malformed or
// oversized blob is logged and treated as empty; zlib failures are
// non-fatal, the post-auth preamble still proceeds from the canonical
// addon table.
func parseAddonBlob(raw []byte, logger *slog.Logger) []addonEntry {
	if len(raw) < 4 {
		return nil
	}
	b := buffer.NewFromBytes(raw)
	size, err := b.ReadUint32()
	if err != nil {
		return nil
	}
	if size == 0 || size >= maxAddonDecompressedSize {
		logger.Warn("addon blob size out of range", "size", size, "error", ErrZlib)
		return nil
	}

	zr, err := zlib.NewReader(bytes.NewReader(b.Bytes()))
	if err != nil {
		logger.Warn("addon blob zlib header invalid", "error", errors.Join(ErrZlib, err))
		return nil
	}
	defer zr.Close()

	decompressed := make([]byte, size)
	if _, err := io.ReadFull(zr, decompressed); err != nil {
		logger.Warn("addon blob decompression failed", "error", errors.Join(ErrZlib, err))
		return nil
	}

	db := buffer.NewFromBytes(decompressed)
	count, err := db.ReadUint32()
	if err != nil {
		return nil
	}

	entries := make([]addonEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := db.ReadCString()
		if err != nil {
			break
		}
		enabled, err := db.ReadUint8()
		if err != nil {
			break
		}
		crc, err := db.ReadUint32()
		if err != nil {
			break
		}
		if _, err := db.ReadUint32(); err != nil { // reserved
			break
		}
		entries = append(entries, addonEntry{name: name, enabled: enabled, crc: crc})
	}
	return entries
}

// knownAddonCRC looks up the canonical CRC declared for a well-known addon
// name. All well-known addons share the one canonical value, so this simply
// reports membership.
func knownAddonCRC(name string) (uint32, bool) {
	for _, n := range opcode.WellKnownAddons {
		if n == name {
			return opcode.CanonicalAddonCRC, true
		}
	}
	return 0, false
}

// addonVerdicts produces the SMSG_ADDON_INFO entry per well-known addon,
// matching each against the CRC the client reported. A divergent CRC asks
// the client to re-verify against the public key and is logged; it never
// rejects the client.
func (c *Connection) addonVerdicts(reported []addonEntry) []serverpackets.AddonInfoEntry {
	reportedCRC := make(map[string]uint32, len(reported))
	for _, e := range reported {
		reportedCRC[e.name] = e.crc
	}

	entries := make([]serverpackets.AddonInfoEntry, 0, len(opcode.WellKnownAddons))
	for _, name := range opcode.WellKnownAddons {
		canonical, _ := knownAddonCRC(name)
		crc, reportedByClient := reportedCRC[name]

		mismatch := reportedByClient && crc != canonical
		if mismatch {
			c.logger.Info("addon CRC mismatch", "addon", name, "crc", crc, "canonical", canonical)
			if c.metrics != nil {
				c.metrics.RecordAddonCRCMismatch()
			}
		}
		entries = append(entries, serverpackets.AddonInfoEntry{UsePublicKey: mismatch})
	}
	return entries
}
