// Package protocol implements the client and server packet header framing:
// the 6-byte, partially-encrypted client header and the 4-5 byte server
// header with its continuation-length bit.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ClientHeaderSize is the fixed wire size of a client packet header.
const ClientHeaderSize = 6

// MinFrameSize and MaxFrameSize bound the declared size field of a client
// header. The size covers the 4 opcode bytes, so it can never be below 4;
// anything above 10240 is treated as a corrupted or hostile stream.
const (
	MinFrameSize = 4
	MaxFrameSize = 10240
)

// Header validation failures: a size field outside
// [MinFrameSize, MaxFrameSize], or an opcode at or above the dispatcher's
// maximum.
var (
	ErrUndersizedFrame  = errors.New("protocol: frame size below minimum")
	ErrOversizedFrame   = errors.New("protocol: frame size above maximum")
	ErrOpcodeOutOfRange = errors.New("protocol: opcode out of range")
)

// ClientHeader is a client packet header after decryption: a 2-byte
// big-endian size (covering opcode + payload) followed by a 4-byte
// little-endian opcode.
type ClientHeader struct {
	Size   uint16
	Opcode uint32
}

// DecodeClientHeader parses a decrypted 6-byte header. opcodeMax is the
// exclusive upper bound an opcode must satisfy.
func DecodeClientHeader(b []byte, opcodeMax uint32) (ClientHeader, error) {
	if len(b) != ClientHeaderSize {
		return ClientHeader{}, fmt.Errorf("protocol: client header must be %d bytes, got %d", ClientHeaderSize, len(b))
	}
	h := ClientHeader{
		Size:   binary.BigEndian.Uint16(b[0:2]),
		Opcode: binary.LittleEndian.Uint32(b[2:6]),
	}
	if h.Size < MinFrameSize || h.Size > MaxFrameSize {
		if h.Size < MinFrameSize {
			return ClientHeader{}, fmt.Errorf("protocol: size %d: %w", h.Size, ErrUndersizedFrame)
		}
		return ClientHeader{}, fmt.Errorf("protocol: size %d: %w", h.Size, ErrOversizedFrame)
	}
	if h.Opcode >= opcodeMax {
		return ClientHeader{}, fmt.Errorf("opcode %d exceeds max %d: %w", h.Opcode, opcodeMax, ErrOpcodeOutOfRange)
	}
	return h, nil
}

// PayloadSize returns the number of body bytes following the opcode field,
// i.e. Size minus the 4 opcode bytes already consumed from the header.
func (h ClientHeader) PayloadSize() int {
	return int(h.Size) - 4
}

// serverHeaderContinuationBit marks a 3-byte server header's size field.
const serverHeaderContinuationBit = 0x80

// EncodeServerHeader builds a variable-length server header for a payload
// of payloadLen bytes tagged with opcode. The size field covers the 2-byte
// opcode plus the payload; if that exceeds 0x7FFF it is written as 3 bytes
// with the top bit of the first byte set, otherwise 2 bytes.
func EncodeServerHeader(payloadLen int, opcode uint16) []byte {
	size := payloadLen + 2

	if size > 0x7FFF {
		header := make([]byte, 5)
		header[0] = serverHeaderContinuationBit | byte(size>>16)
		header[1] = byte(size >> 8)
		header[2] = byte(size)
		binary.LittleEndian.PutUint16(header[3:5], opcode)
		return header
	}

	header := make([]byte, 4)
	header[0] = byte(size >> 8)
	header[1] = byte(size)
	binary.LittleEndian.PutUint16(header[2:4], opcode)
	return header
}
