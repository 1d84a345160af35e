package mxf

import (
	"bytes"
	"encoding/binary"

	"github.com/zsiec/mxfcap/internal/ber"
)

// PartitionType distinguishes the three partition roles spec.md §3
// names for a partition pack.
type PartitionType int

const (
	PartitionHeader PartitionType = iota
	PartitionBody
	PartitionFooter
)

// PartitionPack mirrors spec.md §3's "MXF Partition Pack" fields.
type PartitionPack struct {
	Type                  PartitionType
	Closed                bool
	Complete              bool
	MajorVersion          uint16
	MinorVersion          uint16
	KAGSize               uint32
	ThisPartitionOffset   uint64
	PrevPartitionOffset   uint64
	FooterPartitionOffset uint64
	HeaderByteCount       uint64
	IndexByteCount        uint64
	IndexSID              uint32
	BodyOffset            uint64
	BodySID               uint32
	OperationalPattern    UL
	EssenceContainers     []UL
}

// partitionPackUL builds the partition-pack key: SMPTE 377M varies byte
// 13 (partition kind) and byte 14 (status: closed/complete) from a fixed
// template.
func partitionPackUL(p PartitionPack) UL {
	ul := mustUL("060e2b34020501010d01020101000000")
	switch p.Type {
	case PartitionHeader:
		ul[13] = 0x02
	case PartitionBody:
		ul[13] = 0x03
	case PartitionFooter:
		ul[13] = 0x04
	}
	status := byte(0)
	if !p.Closed {
		status |= 0x01
	}
	if !p.Complete {
		status |= 0x02
	}
	// SMPTE encodes status as one of 1..4 in byte 14 (open-incomplete=1,
	// closed-incomplete=2, open-complete=3, closed-complete=4).
	switch {
	case !p.Closed && !p.Complete:
		ul[14] = 0x01
	case p.Closed && !p.Complete:
		ul[14] = 0x02
	case !p.Closed && p.Complete:
		ul[14] = 0x03
	default:
		ul[14] = 0x04
	}
	return ul
}

// Encode serializes the partition pack body (everything after the KLV
// key+length that DecodeKLV/KLV.Encode handle).
func (p PartitionPack) Encode() []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, p.MajorVersion)
	binary.Write(&buf, binary.BigEndian, p.MinorVersion)
	binary.Write(&buf, binary.BigEndian, p.KAGSize)
	binary.Write(&buf, binary.BigEndian, p.ThisPartitionOffset)
	binary.Write(&buf, binary.BigEndian, p.PrevPartitionOffset)
	binary.Write(&buf, binary.BigEndian, p.FooterPartitionOffset)
	binary.Write(&buf, binary.BigEndian, p.HeaderByteCount)
	binary.Write(&buf, binary.BigEndian, p.IndexByteCount)
	binary.Write(&buf, binary.BigEndian, p.IndexSID)
	binary.Write(&buf, binary.BigEndian, p.BodyOffset)
	binary.Write(&buf, binary.BigEndian, p.BodySID)
	buf.Write(p.OperationalPattern[:])
	binary.Write(&buf, binary.BigEndian, uint32(len(p.EssenceContainers)))
	binary.Write(&buf, binary.BigEndian, uint32(16))
	for _, ul := range p.EssenceContainers {
		buf.Write(ul[:])
	}
	return buf.Bytes()
}

// KLV wraps the partition pack as a full KLV triple, using the fixed
// 4-byte length form so its header_byte_count can be computed before the
// metadata batch that follows is finalized.
func (p PartitionPack) KLV() KLV {
	return KLV{Key: partitionPackUL(p), Value: p.Encode()}
}

// RIPEntry is one entry of the Random Index Pack footer table (spec.md
// §4.7.7: "a Random Index Pack listing {(0, 0), (body_offset, body_sid),
// (footer_offset, 0)}").
type RIPEntry struct {
	BodySID uint32
	Offset  uint64
}

// RandomIndexPack is the final fixed-format structure in an MXF file,
// letting a reader seek directly to any partition without a linear scan.
type RandomIndexPack struct {
	Entries []RIPEntry
}

var randomIndexPackUL = mustUL("060e2b34020501010d01020101110100")

// Encode serializes the RIP body: a sequence of {body_sid(4),
// offset(8)} pairs followed by a trailing uint32 giving the pack's total
// length as written by KLV().Encode() (key, BER length and value, itself
// included), the SMPTE 377M convention that lets a reader locate the RIP
// by seeking from EOF.
func (r RandomIndexPack) Encode() []byte {
	var buf bytes.Buffer
	for _, e := range r.Entries {
		binary.Write(&buf, binary.BigEndian, e.BodySID)
		binary.Write(&buf, binary.BigEndian, e.Offset)
	}
	valueLen := buf.Len() + 4
	total := uint32(16 + len(ber.Encode(valueLen)) + valueLen)
	binary.Write(&buf, binary.BigEndian, total)
	return buf.Bytes()
}

func (r RandomIndexPack) KLV() KLV {
	return KLV{Key: randomIndexPackUL, Value: r.Encode()}
}
