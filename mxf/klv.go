package mxf

import (
	"bytes"
	"fmt"

	"github.com/zsiec/mxfcap/internal/ber"
)

// KLV is one Key-Length-Value triple, the fundamental unit of an MXF
// bytestream (spec.md §6: "All KLVs: {key(16), BER-encoded length(1-9),
// value}").
type KLV struct {
	Key   UL
	Value []byte
}

// Encode serializes k as key + BER length + value.
func (k KLV) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(k.Key[:])
	buf.Write(ber.Encode(len(k.Value)))
	buf.Write(k.Value)
	return buf.Bytes()
}

// EncodeFixed4Length serializes k using a fixed 4-octet long-form BER
// length, the convention partition packs and Generic Container essence
// elements use so the length field can be patched in place once the
// value size is known (spec.md §4.7.5).
func (k KLV) EncodeFixed4Length() []byte {
	var buf bytes.Buffer
	buf.Write(k.Key[:])
	buf.Write(ber.EncodeFixed4(len(k.Value)))
	buf.Write(k.Value)
	return buf.Bytes()
}

// DecodeKLV reads one KLV triple from the front of data, returning the
// triple and the number of bytes consumed.
func DecodeKLV(data []byte) (KLV, int, error) {
	if len(data) < 16 {
		return KLV{}, 0, fmt.Errorf("mxf: short read for KLV key")
	}
	var key UL
	copy(key[:], data[:16])
	length, lenConsumed, err := ber.Decode(data[16:])
	if err != nil {
		return KLV{}, 0, fmt.Errorf("mxf: KLV length: %w", err)
	}
	start := 16 + lenConsumed
	end := start + length
	if end > len(data) {
		return KLV{}, 0, fmt.Errorf("mxf: truncated KLV value, want %d bytes have %d", length, len(data)-start)
	}
	return KLV{Key: key, Value: data[start:end]}, end, nil
}

// Local-tag/UL primer pack: maps 2-byte local tags used inside metadata
// set values to their full 16-byte property ULs (spec.md §6: "Primer
// Pack (maps 2-byte local tags to 16-byte ULs)").
type Primer struct {
	tagToUL map[uint16]UL
	ulToTag map[UL]uint16
	next    uint16
}

// NewPrimer creates an empty Primer, local tags starting at 0x8000 (the
// conventional start of the dynamically-assigned range; tags below that
// are reserved by SMPTE baseline sets).
func NewPrimer() *Primer {
	return &Primer{
		tagToUL: make(map[uint16]UL),
		ulToTag: make(map[UL]uint16),
		next:    0x8000,
	}
}

// TagFor returns the local tag for propertyUL, assigning a new one if
// this is the first time propertyUL has been seen.
func (p *Primer) TagFor(propertyUL UL) uint16 {
	if tag, ok := p.ulToTag[propertyUL]; ok {
		return tag
	}
	tag := p.next
	p.next++
	p.tagToUL[tag] = propertyUL
	p.ulToTag[propertyUL] = tag
	return tag
}

// ULFor resolves a local tag back to its property UL.
func (p *Primer) ULFor(tag uint16) (UL, bool) {
	ul, ok := p.tagToUL[tag]
	return ul, ok
}

// Encode serializes the Primer Pack's batch-of-pairs body (a 4-byte
// local-tag entry count, a 4-byte entry size of 18, then {tag(2), UL(16)}
// pairs), matching SMPTE 377M's PrimerPack layout.
func (p *Primer) Encode() []byte {
	var buf bytes.Buffer
	count := len(p.tagToUL)
	buf.WriteByte(byte(count >> 24))
	buf.WriteByte(byte(count >> 16))
	buf.WriteByte(byte(count >> 8))
	buf.WriteByte(byte(count))
	const entrySize = 18
	buf.WriteByte(byte(entrySize >> 24))
	buf.WriteByte(byte(entrySize >> 16))
	buf.WriteByte(byte(entrySize >> 8))
	buf.WriteByte(byte(entrySize))
	for tag, ul := range p.tagToUL {
		buf.WriteByte(byte(tag >> 8))
		buf.WriteByte(byte(tag))
		buf.Write(ul[:])
	}
	return buf.Bytes()
}
