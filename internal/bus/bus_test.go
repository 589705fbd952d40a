package bus

import "testing"

type fakeHandle struct {
	account    uint32
	generation uint64
	sent       []uint16
	full       bool
}

func (f *fakeHandle) Account() uint32    { return f.account }
func (f *fakeHandle) Generation() uint64 { return f.generation }
func (f *fakeHandle) Send(opcode uint16, payload []byte) bool {
	if f.full {
		return false
	}
	f.sent = append(f.sent, opcode)
	return true
}

func TestBus_PushAndConsume(t *testing.T) {
	b := New(4)
	handle := &fakeHandle{account: 7, generation: 1}

	ok := b.Push(Message{Code: ForwardPacket, Opcode: 99, Account: 7, Connection: handle, Generation: 1})
	if !ok {
		t.Fatal("Push on a non-full bus must succeed")
	}

	msg := <-b.Messages()
	if msg.Opcode != 99 || msg.Account != 7 {
		t.Fatalf("got %+v, want opcode=99 account=7", msg)
	}
	if msg.Stale() {
		t.Fatal("message must not be stale: generation matches")
	}
}

func TestBus_PushNonBlockingWhenFull(t *testing.T) {
	b := New(1)
	handle := &fakeHandle{}

	if !b.Push(Message{Connection: handle}) {
		t.Fatal("first push into capacity-1 bus must succeed")
	}
	if b.Push(Message{Connection: handle}) {
		t.Fatal("second push into a full bus must fail, not block")
	}
}

func TestMessage_StaleDetectsGenerationMismatch(t *testing.T) {
	handle := &fakeHandle{generation: 2}
	msg := Message{Connection: handle, Generation: 1}
	if !msg.Stale() {
		t.Fatal("message captured at generation 1 must be stale against a generation-2 handle")
	}
}
