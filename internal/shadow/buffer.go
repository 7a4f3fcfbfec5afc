package shadow

import "bytes"

// ByteBuffer is an owned, resizable byte sequence. Values passed in or handed
// out are copied so a buffer never aliases caller memory.
type ByteBuffer struct {
	b []byte
}

// NewByteBuffer returns a zero-filled buffer of n bytes.
func NewByteBuffer(n int) ByteBuffer {
	if n <= 0 {
		return ByteBuffer{}
	}
	return ByteBuffer{b: make([]byte, n)}
}

// ByteBufferFrom copies p into a new buffer.
func ByteBufferFrom(p []byte) ByteBuffer {
	if len(p) == 0 {
		return ByteBuffer{}
	}
	return ByteBuffer{b: bytes.Clone(p)}
}

// Bytes returns a copy of the contents.
func (b ByteBuffer) Bytes() []byte { return bytes.Clone(b.b) }

func (b ByteBuffer) Len() int { return len(b.b) }

func (b ByteBuffer) String() string { return string(b.b) }

// Resize grows (zero-filling) or truncates the buffer to n bytes.
func (b *ByteBuffer) Resize(n int) {
	switch {
	case n <= 0:
		b.b = nil
	case n <= len(b.b):
		b.b = b.b[:n:n]
	default:
		nb := make([]byte, n)
		copy(nb, b.b)
		b.b = nb
	}
}

// Clone copies the receiver into a new buffer.
func (b ByteBuffer) Clone() ByteBuffer { return ByteBufferFrom(b.b) }

func (b ByteBuffer) Equal(o ByteBuffer) bool { return bytes.Equal(b.b, o.b) }

func (b *ByteBuffer) Reset() { b.b = nil }
