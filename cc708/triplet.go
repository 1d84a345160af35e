// Package cc708 implements the CEA-708 cc_data triplet wire format and
// the CDP (Caption Distribution Packet) framing built on top of it
// (spec.md §3).
package cc708

import "github.com/zsiec/mxfcap/internal/bitio"

// CCType is the 2-bit cc_type field of a cc_data triplet.
type CCType byte

const (
	CCType608F1       CCType = 0b00
	CCType608F2       CCType = 0b01
	CCType708CCPAdd   CCType = 0b10
	CCType708CCPStart CCType = 0b11
)

// marker5 is the fixed 5-bit marker prefix GStreamer-family encoders set
// on every triplet byte 0 (all-ones, per common practice).
const marker5 = 0b11111

// NullTriplet708 is the canonical 708 padding triplet (SPEC_FULL.md
// supplement #2, sliced.h): cc_valid clear, cc_type CCPAdd, zero payload.
var NullTriplet708 = Triplet{Valid: false, Type: CCType708CCPAdd}

// Triplet is one decoded cc_data triplet (spec.md §3 "CEA-708 raw
// (cc_data)").
type Triplet struct {
	Valid bool
	Type  CCType
	B1    byte
	B2    byte
}

// Encode serializes t as its 3-byte wire form. Byte 0 packs three bit
// fields (5-bit marker, 1-bit cc_valid, 2-bit cc_type) MSB-first.
func (t Triplet) Encode() [3]byte {
	w := bitio.NewWriter(1)
	w.PutUint32(5, marker5)
	w.PutBit(t.Valid)
	w.PutUint32(2, uint32(t.Type&0x03))
	return [3]byte{w.Bytes()[0], t.B1, t.B2}
}

// DecodeTriplet parses a 3-byte cc_data triplet.
func DecodeTriplet(b [3]byte) Triplet {
	r := bitio.NewReader(b[:1])
	r.Skip(5) // marker, not validated
	valid := r.ReadBit()
	typ := CCType(r.ReadUint32(2))
	return Triplet{
		Valid: valid,
		Type:  typ,
		B1:    b[1],
		B2:    b[2],
	}
}

// EncodeTriplets concatenates a sequence of triplets into cc_data bytes.
func EncodeTriplets(triplets []Triplet) []byte {
	out := make([]byte, 0, len(triplets)*3)
	for _, t := range triplets {
		e := t.Encode()
		out = append(out, e[:]...)
	}
	return out
}

// DecodeTriplets splits a cc_data byte stream back into triplets,
// ignoring a trailing partial triplet.
func DecodeTriplets(data []byte) []Triplet {
	out := make([]Triplet, 0, len(data)/3)
	for i := 0; i+2 < len(data); i += 3 {
		out = append(out, DecodeTriplet([3]byte{data[i], data[i+1], data[i+2]}))
	}
	return out
}

// IsCaption608 reports whether t carries a CEA-608 pair (cc_type 00 or
// 01), as opposed to a CEA-708 CCP triplet.
func (t Triplet) IsCaption608() bool {
	return t.Type == CCType608F1 || t.Type == CCType608F2
}
