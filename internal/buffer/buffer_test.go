package buffer

import (
	"bytes"
	"testing"
)

func TestBuffer_Uint8RoundTrip(t *testing.T) {
	b := New(4)
	b.WriteUint8(0x42)
	got, err := b.ReadUint8()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0x42 {
		t.Fatalf("got %x, want 0x42", got)
	}
}

func TestBuffer_Uint16RoundTrip(t *testing.T) {
	b := New(4)
	b.WriteUint16(0xBEEF)
	got, err := b.ReadUint16()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0xBEEF {
		t.Fatalf("got %x, want 0xBEEF", got)
	}
}

func TestBuffer_Uint16BERoundTrip(t *testing.T) {
	b := New(4)
	b.WriteUint16BE(0x1234)
	got, err := b.ReadUint16BE()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0x1234 {
		t.Fatalf("got %x, want 0x1234", got)
	}
}

func TestBuffer_Uint32RoundTrip(t *testing.T) {
	b := New(8)
	b.WriteUint32(0xDEADBEEF)
	got, err := b.ReadUint32()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0xDEADBEEF {
		t.Fatalf("got %x, want 0xDEADBEEF", got)
	}
}

func TestBuffer_Uint64RoundTrip(t *testing.T) {
	b := New(8)
	b.WriteUint64(0x0123456789ABCDEF)
	got, err := b.ReadUint64()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 0x0123456789ABCDEF {
		t.Fatalf("got %x, want 0x0123456789ABCDEF", got)
	}
}

func TestBuffer_CStringRoundTrip(t *testing.T) {
	b := New(16)
	b.WriteCString("TESTER")
	got, err := b.ReadCString()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "TESTER" {
		t.Fatalf("got %q, want %q", got, "TESTER")
	}
}

func TestBuffer_ReadBytesShortRead(t *testing.T) {
	b := New(4)
	b.WriteUint8(1)
	if _, err := b.ReadBytes(4); err == nil {
		t.Fatal("expected ErrShortRead, got nil")
	}
}

func TestBuffer_ReadCStringWithoutTerminator(t *testing.T) {
	b := New(4)
	b.WriteBytes([]byte("abc"))
	if _, err := b.ReadCString(); err == nil {
		t.Fatal("expected error reading unterminated cstring")
	}
}

func TestBuffer_ClearRetainsCapacity(t *testing.T) {
	b := New(4)
	b.WriteBytes([]byte{1, 2, 3, 4})
	capBefore := b.Capacity()
	b.Clear()
	if b.Remaining() != 0 {
		t.Fatalf("Remaining after Clear = %d, want 0", b.Remaining())
	}
	if b.Capacity() != capBefore {
		t.Fatalf("Capacity changed after Clear: got %d, want %d", b.Capacity(), capBefore)
	}
}

func TestBuffer_GrowsOnWrite(t *testing.T) {
	b := New(2)
	payload := bytes.Repeat([]byte{0xAB}, 1000)
	b.WriteBytes(payload)
	got, err := b.ReadBytesCopy(len(payload))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatal("round-trip of grown buffer mismatch")
	}
}

func TestBuffer_SpaceLeftAndRemaining(t *testing.T) {
	b := New(10)
	b.WriteBytes([]byte{1, 2, 3})
	if b.Remaining() != 3 {
		t.Fatalf("Remaining = %d, want 3", b.Remaining())
	}
	if b.SpaceLeft() != 7 {
		t.Fatalf("SpaceLeft = %d, want 7", b.SpaceLeft())
	}
	if _, err := b.ReadUint8(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Remaining() != 2 {
		t.Fatalf("Remaining after read = %d, want 2", b.Remaining())
	}
}
