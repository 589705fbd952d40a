// Package buffer implements the growable byte buffer every wire-level
// package in this repository reads and writes through: a single region with
// independent read and write cursors, typed little-endian accessors, and
// cheap resizing for framed reads.
package buffer

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when a read would advance past writePos.
var ErrShortRead = errors.New("buffer: short read")

// Buffer is a contiguous byte region with 0 <= readPos <= writePos <= cap(data).
// It never shrinks during its lifetime; Clear resets both cursors but keeps
// the underlying array.
type Buffer struct {
	data     []byte
	readPos  int
	writePos int
}

// New returns an empty Buffer with the given initial capacity.
func New(capacity int) *Buffer {
	return &Buffer{data: make([]byte, capacity)}
}

// NewFromBytes wraps b as an already-written buffer ready for reading.
// The slice is used directly, not copied.
func NewFromBytes(b []byte) *Buffer {
	return &Buffer{data: b, writePos: len(b)}
}

// Len returns the number of unread bytes (alias for Remaining).
func (b *Buffer) Len() int { return b.Remaining() }

// Remaining returns writePos - readPos.
func (b *Buffer) Remaining() int { return b.writePos - b.readPos }

// SpaceLeft returns cap(data) - writePos.
func (b *Buffer) SpaceLeft() int { return cap(b.data) - b.writePos }

// Capacity returns the current backing array length.
func (b *Buffer) Capacity() int { return cap(b.data) }

// Resize grows capacity to at least n without touching existing contents or
// cursors. Shrinking is a no-op.
func (b *Buffer) Resize(n int) {
	if n <= cap(b.data) {
		return
	}
	grown := make([]byte, n)
	copy(grown, b.data[:b.writePos])
	b.data = grown
}

// Clear resets both cursors to zero; capacity is retained.
func (b *Buffer) Clear() {
	b.readPos = 0
	b.writePos = 0
}

// Bytes returns the unread portion of the buffer. The slice aliases the
// buffer's backing array and is only valid until the next mutating call.
func (b *Buffer) Bytes() []byte {
	return b.data[b.readPos:b.writePos]
}

// grow ensures SpaceLeft() >= n, doubling capacity as needed.
func (b *Buffer) grow(n int) {
	need := b.writePos + n
	if need <= cap(b.data) {
		return
	}
	newCap := cap(b.data)
	if newCap == 0 {
		newCap = 64
	}
	for newCap < need {
		newCap *= 2
	}
	b.Resize(newCap)
}

// WriteBytes appends p, growing the buffer as needed.
func (b *Buffer) WriteBytes(p []byte) {
	b.grow(len(p))
	b.data = b.data[:cap(b.data)]
	copy(b.data[b.writePos:], p)
	b.writePos += len(p)
}

// ReadBytes reads exactly n bytes. The returned slice aliases the buffer.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if b.Remaining() < n {
		return nil, fmt.Errorf("reading %d bytes: %w", n, ErrShortRead)
	}
	out := b.data[b.readPos : b.readPos+n]
	b.readPos += n
	return out, nil
}

// ReadBytesCopy is ReadBytes but returns an owned copy.
func (b *Buffer) ReadBytesCopy(n int) ([]byte, error) {
	raw, err := b.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, raw)
	return out, nil
}

// WriteUint8 appends a single byte.
func (b *Buffer) WriteUint8(v uint8) { b.WriteBytes([]byte{v}) }

// ReadUint8 reads a single byte.
func (b *Buffer) ReadUint8() (uint8, error) {
	raw, err := b.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return raw[0], nil
}

// WriteUint16 appends v little-endian.
func (b *Buffer) WriteUint16(v uint16) {
	var tmp [2]byte
	binary.LittleEndian.PutUint16(tmp[:], v)
	b.WriteBytes(tmp[:])
}

// ReadUint16 reads a little-endian uint16.
func (b *Buffer) ReadUint16() (uint16, error) {
	raw, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(raw), nil
}

// WriteUint16BE appends v big-endian (used only for wire headers).
func (b *Buffer) WriteUint16BE(v uint16) {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	b.WriteBytes(tmp[:])
}

// ReadUint16BE reads a big-endian uint16.
func (b *Buffer) ReadUint16BE() (uint16, error) {
	raw, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(raw), nil
}

// WriteUint32 appends v little-endian.
func (b *Buffer) WriteUint32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	b.WriteBytes(tmp[:])
}

// ReadUint32 reads a little-endian uint32.
func (b *Buffer) ReadUint32() (uint32, error) {
	raw, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(raw), nil
}

// WriteUint64 appends v little-endian.
func (b *Buffer) WriteUint64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	b.WriteBytes(tmp[:])
}

// ReadUint64 reads a little-endian uint64.
func (b *Buffer) ReadUint64() (uint64, error) {
	raw, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(raw), nil
}

// WriteCString appends s followed by a NUL terminator.
func (b *Buffer) WriteCString(s string) {
	b.WriteBytes([]byte(s))
	b.WriteUint8(0)
}

// ReadCString reads bytes up to and including the next NUL, returning the
// string without the terminator.
func (b *Buffer) ReadCString() (string, error) {
	start := b.readPos
	for i := b.readPos; i < b.writePos; i++ {
		if b.data[i] == 0 {
			s := string(b.data[start:i])
			b.readPos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("reading cstring: %w", ErrShortRead)
}
