package protocol

import (
	"fmt"
	"io"

	"github.com/avalon-core/worldnode/internal/wowcrypto"
)

// ReadClientFrame performs the header-then-body staging read: read exactly
// ClientHeaderSize bytes, decrypt and validate the header, then read its
// declared payload. One blocking call per frame; each connection owns a
// dedicated goroutine, so there is no partial-read state to carry between
// calls.
func ReadClientFrame(r io.Reader, cipher *wowcrypto.Cipher, opcodeMax uint32) (ClientHeader, []byte, error) {
	var headerStage [ClientHeaderSize]byte
	if _, err := io.ReadFull(r, headerStage[:]); err != nil {
		return ClientHeader{}, nil, fmt.Errorf("protocol: reading client header: %w", err)
	}

	cipher.ProcessIn(headerStage[:])

	header, err := DecodeClientHeader(headerStage[:], opcodeMax)
	if err != nil {
		return ClientHeader{}, nil, err
	}

	body := make([]byte, header.PayloadSize())
	if len(body) > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return ClientHeader{}, nil, fmt.Errorf("protocol: reading client body: %w", err)
		}
	}

	return header, body, nil
}

// WriteServerFrame encrypts a freshly built server header and writes it
// followed by payload in one contiguous send, preserving strict
// per-connection send ordering.
func WriteServerFrame(w io.Writer, cipher *wowcrypto.Cipher, opcode uint16, payload []byte) error {
	header := EncodeServerHeader(len(payload), opcode)
	cipher.ProcessOut(header)

	frame := make([]byte, 0, len(header)+len(payload))
	frame = append(frame, header...)
	frame = append(frame, payload...)

	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("protocol: writing server frame: %w", err)
	}
	return nil
}
