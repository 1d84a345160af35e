package bitio

import "testing"

func TestReadWriteRoundTrip(t *testing.T) {
	w := NewWriter(4)
	w.PutUint32(12, 0xABC)
	w.PutUint32(4, 0x5)
	w.PutBytes([]byte{0x42})

	r := NewReader(w.Bytes())
	if got := r.ReadUint32(12); got != 0xABC {
		t.Fatalf("ReadUint32(12) = %#x, want 0xABC", got)
	}
	if got := r.ReadUint32(4); got != 0x5 {
		t.Fatalf("ReadUint32(4) = %#x, want 0x5", got)
	}
	if got := r.ReadBytes(1); got[0] != 0x42 {
		t.Fatalf("ReadBytes = %#x, want 0x42", got[0])
	}
}

func TestReaderOverflow(t *testing.T) {
	r := NewReader([]byte{0xFF})
	r.ReadUint32(8)
	if r.Overflow() {
		t.Fatal("overflow set before overrun")
	}
	r.ReadBit()
	if !r.Overflow() {
		t.Fatal("overflow not set after overrun")
	}
}

func TestSkipAndBytePos(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03})
	r.Skip(16)
	if r.BytePos() != 2 {
		t.Fatalf("BytePos = %d, want 2", r.BytePos())
	}
	if got := r.ReadUint32(8); got != 0x03 {
		t.Fatalf("ReadUint32(8) = %#x, want 0x03", got)
	}
}

func TestBitsLeft(t *testing.T) {
	r := NewReader(make([]byte, 2))
	if r.BitsLeft() != 16 {
		t.Fatalf("BitsLeft = %d, want 16", r.BitsLeft())
	}
	r.Skip(20)
	if r.BitsLeft() != 0 {
		t.Fatalf("BitsLeft after overrun = %d, want 0", r.BitsLeft())
	}
}
