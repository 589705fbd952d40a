// Package bus implements the many-producer, single-consumer message queue
// that carries every non-built-in opcode from a connection to the world
// handler, and the generation-stamped connection handle that keeps a late
// async callback from touching a connection that has since closed.
package bus

import "fmt"

// Code identifies the kind of message carried on the bus. FORWARD_PACKET is
// the only type connections produce.
type Code int

const (
	ForwardPacket Code = iota
)

// ConnectionHandle is the narrow interface a forwarded message needs back
// into its originating connection: enough to reply, and enough to check
// that the connection is still the same logical one that produced the
// message. internal/worldnode.Connection implements this; bus does not
// import worldnode, avoiding a cycle.
type ConnectionHandle interface {
	// Account returns the authenticated account id, or 0.
	Account() uint32
	// Generation returns the connection's current generation counter.
	// A consumer holding a handle captured at an earlier generation can
	// compare against this to detect that the connection has since closed
	// and been retired.
	Generation() uint64
	// Send enqueues opcode/payload as an outbound frame. Returns false if
	// the connection's send queue is full or already closed.
	Send(opcode uint16, payload []byte) bool
}

// Message is the envelope carried on the bus. For FORWARD_PACKET messages,
// Opcode/Account/Payload/Connection are all populated.
type Message struct {
	Code       Code
	Opcode     uint16
	Account    uint32
	Payload    []byte
	Connection ConnectionHandle
	Generation uint64
}

// Bus is a many-producer, single-consumer queue. Push never blocks: a full
// bus drops the message and reports failure, so a slow or stalled world
// handler cannot stall connection goroutines.
type Bus struct {
	messages chan Message
}

// New returns a Bus with the given buffer capacity.
func New(capacity int) *Bus {
	return &Bus{messages: make(chan Message, capacity)}
}

// Push enqueues msg without blocking. Returns false if the bus is full.
func (b *Bus) Push(msg Message) bool {
	select {
	case b.messages <- msg:
		return true
	default:
		return false
	}
}

// Messages returns the consumer-side channel. Exactly one goroutine should
// range over it.
func (b *Bus) Messages() <-chan Message {
	return b.messages
}

// Stale reports whether msg.Connection is no longer at the generation the
// message was produced for; i.e. whether the connection has since closed
// and its slot possibly reused. Consumers should call this immediately
// before acting on msg.Connection.
func (msg Message) Stale() bool {
	return msg.Connection.Generation() != msg.Generation
}

func (msg Message) String() string {
	return fmt.Sprintf("bus.Message{opcode=%#x account=%d payload=%dB}", msg.Opcode, msg.Account, len(msg.Payload))
}
