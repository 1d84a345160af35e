// Package cc608 implements the CEA-608 byte pair and its two carrier wire
// formats: raw 608 (spec.md §3 "CEA-608 raw") and S334-1A triplets.
package cc608

import "math/bits"

// Field identifies which of the two interlaced CEA-608 fields a byte pair
// belongs to.
type Field int

const (
	Field1 Field = iota
	Field2
)

// NullByte is the canonical CEA-608 null/padding byte (SPEC_FULL.md
// supplement #2, sliced.h): odd parity already applied to 0x00.
const NullByte = 0x80

// Pair is one CEA-608 byte pair as it appears on the wire, parity bits
// included.
type Pair [2]byte

// NullPair is the canonical padding pair used when a buffer underruns and
// padding is requested (spec.md §4.3 "Take").
var NullPair = Pair{NullByte, NullByte}

// StripParity clears bit 7 of both bytes, returning the two 7-bit data
// values. Decoders that do not care about parity errors call this before
// interpreting control codes.
func StripParity(p Pair) (byte, byte) {
	return p[0] &^ 0x80, p[1] &^ 0x80
}

// ApplyParity sets bit 7 of each byte so the byte carries odd parity
// (spec.md §3: "Bytes include odd parity"), the inverse of StripParity.
func ApplyParity(lo, hi byte) Pair {
	return Pair{oddParity(lo & 0x7F), oddParity(hi & 0x7F)}
}

func oddParity(b byte) byte {
	if bits.OnesCount8(b)%2 == 0 {
		return b | 0x80
	}
	return b
}

// HasOddParity reports whether byte b carries correct odd parity over all
// 8 bits.
func HasOddParity(b byte) bool {
	return bits.OnesCount8(b)%2 == 1
}

// EncodeRaw608 serializes pairs as back-to-back 2-byte raw CEA-608
// (spec.md §3: "2 bytes/field/frame ... byte-field association either
// implicit ... or absent"); field association is not recoverable from
// this format alone.
func EncodeRaw608(pairs []Pair) []byte {
	out := make([]byte, 0, len(pairs)*2)
	for _, p := range pairs {
		out = append(out, p[0], p[1])
	}
	return out
}

// DecodeRaw608 splits a raw 608 byte stream back into pairs.
func DecodeRaw608(data []byte) []Pair {
	pairs := make([]Pair, 0, len(data)/2)
	for i := 0; i+1 < len(data); i += 2 {
		pairs = append(pairs, Pair{data[i], data[i+1]})
	}
	return pairs
}

// S334Triplet is one S334-1A framed CEA-608 pair: byte 0 bit 7 carries the
// field flag, bytes 1-2 are the pair (spec.md §3).
type S334Triplet [3]byte

// EncodeS334 frames one (field, pair) as an S334-1A triplet.
func EncodeS334(field Field, p Pair) S334Triplet {
	b0 := byte(0)
	if field == Field1 {
		b0 = 0x80
	}
	return S334Triplet{b0, p[0], p[1]}
}

// DecodeS334 extracts the field and pair from an S334-1A triplet.
func DecodeS334(t S334Triplet) (Field, Pair) {
	field := Field2
	if t[0]&0x80 != 0 {
		field = Field1
	}
	return field, Pair{t[1], t[2]}
}

// EncodeS334Stream frames a sequence of (field, pair) values as
// concatenated S334-1A triplets.
func EncodeS334Stream(fields []Field, pairs []Pair) []byte {
	n := len(pairs)
	if len(fields) < n {
		n = len(fields)
	}
	out := make([]byte, 0, n*3)
	for i := 0; i < n; i++ {
		t := EncodeS334(fields[i], pairs[i])
		out = append(out, t[:]...)
	}
	return out
}

// DecodeS334Stream splits a concatenated S334-1A byte stream back into
// triplets.
func DecodeS334Stream(data []byte) []S334Triplet {
	out := make([]S334Triplet, 0, len(data)/3)
	for i := 0; i+2 < len(data); i += 3 {
		out = append(out, S334Triplet{data[i], data[i+1], data[i+2]})
	}
	return out
}
