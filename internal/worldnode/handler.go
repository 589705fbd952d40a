package worldnode

import (
	"context"
	"errors"
	"time"

	"github.com/avalon-core/worldnode/internal/bus"
	"github.com/avalon-core/worldnode/internal/opcode"
	"github.com/avalon-core/worldnode/internal/protocol"
	"github.com/avalon-core/worldnode/internal/worldnode/clientpackets"
	"github.com/avalon-core/worldnode/internal/worldnode/serverpackets"
)

// accountDataMask is the per-character cache mask echoed in
// SMSG_ACCOUNT_DATA_TIMES.
const accountDataMask = 0x15

// handlePacket is the flat opcode -> handler dispatch: a small closed set
// of built-ins runs synchronously here; everything else becomes a
// FORWARD_PACKET message on the bus.
func (c *Connection) handlePacket(ctx context.Context, header protocol.ClientHeader, body []byte) error {
	switch header.Opcode {
	case opcode.CMSGSuspendCommsAck:
		return nil // body already consumed as the frame's 4-byte payload
	case opcode.CMSGPing:
		return c.handlePing()
	case opcode.CMSGKeepAlive:
		return nil
	case opcode.CMSGAuthSession:
		return c.handleAuthSession(ctx, body)
	case opcode.CMSGRedirectClientProof:
		return c.handleRedirectClientProof(ctx, body)
	case opcode.CMSGReadyForAccountDataTimes:
		return c.handleReadyForAccountDataTimes()
	case opcode.CMSGUpdateAccountData:
		return c.handleUpdateAccountData(body)
	default:
		return c.forwardPacket(header.Opcode, body)
	}
}

func (c *Connection) handlePing() error {
	pong := serverpackets.Pong{Sequence: 0}
	c.Send(opcode.SMSGPong, pong.Write())
	return nil
}

func (c *Connection) handleReadyForAccountDataTimes() error {
	p := serverpackets.AccountDataTimes{
		Now:  uint32(time.Now().Unix()),
		Mask: accountDataMask,
	}
	c.Send(opcode.SMSGAccountDataTimes, p.Write())
	return nil
}

func (c *Connection) handleUpdateAccountData(body []byte) error {
	parsed, err := clientpackets.ParseUpdateAccountData(body)
	if err != nil {
		return errors.Join(ErrProtocol, err)
	}

	if parsed.DataType > 8 {
		return nil // silently ignored, not a protocol error
	}

	ack := serverpackets.UpdateAccountDataComplete{DataType: parsed.DataType}
	c.Send(opcode.SMSGUpdateAccountDataComplete, ack.Write())
	return nil
}

// forwardPacket hands an opcode the connection has no built-in handler for
// to the world handler's message bus, copying the payload so the
// connection's own buffers can be reused afterward. Every dispatchable
// opcode fits the bus envelope's 16-bit field: the header validation
// already bounded it below OPCODEMax.
func (c *Connection) forwardPacket(op uint32, payload []byte) error {
	payloadCopy := append([]byte(nil), payload...)
	c.bus.Push(bus.Message{
		Code:       bus.ForwardPacket,
		Opcode:     uint16(op),
		Account:    c.Account(),
		Payload:    payloadCopy,
		Connection: c,
		Generation: c.Generation(),
	})
	if c.metrics != nil {
		c.metrics.RecordForwardedPacket()
	}
	return nil
}
