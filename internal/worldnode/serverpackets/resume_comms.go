// Package serverpackets contains one type per server-to-client message the
// world node emits, each serializing its own payload. The frame opcode is
// not part of the payload (the framing layer writes it into the encrypted
// server header), so every Write here produces body bytes only.
package serverpackets

// ResumeComms is the first frame of a connection: no payload, its arrival
// alone tells the client the world node is ready to talk.
type ResumeComms struct{}

// Write serializes the ResumeComms payload (empty).
func (p *ResumeComms) Write() []byte {
	return nil
}
