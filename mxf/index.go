package mxf

import (
	"bytes"
	"encoding/binary"
)

// maxIndexEntriesPerSegment is `floor(65535/11)`, the hard cap from
// spec.md §3 ("MXF Index Table Segment").
const maxIndexEntriesPerSegment = 65535 / 11

const (
	indexFlagKeyFrame = 0x80
	indexFlagInterFrame = 0x20
)

// IndexEntry is one edit unit's index record (spec.md §3).
type IndexEntry struct {
	TemporalOffset int8
	KeyFrameOffset int8
	Flags          byte
	StreamOffset   uint64
}

// IndexSegment holds up to maxIndexEntriesPerSegment IndexEntry records
// for one contiguous range of edit units (spec.md §4.7.6).
type IndexSegment struct {
	InstanceUID       [16]byte
	IndexEditRate     Rational
	IndexStartPosition int64
	IndexDuration     int64
	EditUnitByteCount uint32 // 0 when edit units are variable length
	IndexSID          uint32
	BodySID           uint32
	Entries           []IndexEntry
}

// IndexTable accumulates index entries across one or more IndexSegments,
// spilling to a new segment when the current one is full (spec.md §4.7.6
// "spill to the next segment on overflow").
type IndexTable struct {
	IndexSID       uint32
	BodySID        uint32
	EditRate       Rational
	Segments       []*IndexSegment
	lastKeyframePos int64
}

// NewIndexTable creates an IndexTable for the given sids/edit rate.
func NewIndexTable(indexSID, bodySID uint32, editRate Rational) *IndexTable {
	return &IndexTable{IndexSID: indexSID, BodySID: bodySID, EditRate: editRate}
}

func (it *IndexTable) currentSegment() *IndexSegment {
	if len(it.Segments) == 0 || len(it.Segments[len(it.Segments)-1].Entries) >= maxIndexEntriesPerSegment {
		seg := &IndexSegment{
			IndexEditRate:      it.EditRate,
			IndexSID:           it.IndexSID,
			BodySID:            it.BodySID,
			IndexStartPosition: it.totalEntries(),
		}
		it.Segments = append(it.Segments, seg)
	}
	return it.Segments[len(it.Segments)-1]
}

func (it *IndexTable) totalEntries() int64 {
	var n int64
	for _, s := range it.Segments {
		n += int64(len(s.Entries))
	}
	return n
}

// AppendEntry records one edit unit's index entry, computing
// key_frame_offset and flags per spec.md §4.7.6.
func (it *IndexTable) AppendEntry(position int64, isKeyframe bool, streamOffset uint64) {
	seg := it.currentSegment()
	if isKeyframe {
		it.lastKeyframePos = position
	}
	offset := position - it.lastKeyframePos
	if offset > 127 {
		offset = 127
	}
	flags := byte(indexFlagInterFrame)
	if isKeyframe {
		flags = indexFlagKeyFrame
	}
	seg.Entries = append(seg.Entries, IndexEntry{
		KeyFrameOffset: int8(offset),
		Flags:          flags,
		StreamOffset:   streamOffset,
	})
	seg.IndexDuration = int64(len(seg.Entries))
}

// BackpatchTemporalOffset writes temporal_offset into the entry at
// absolute edit-unit position, clamped to [-127, 127] (spec.md §4.7.6,
// Open Question #1: "support it ... the patch targets that later
// segment" when the position has spilled past the segment that was
// current when the PTS/DTS skew was observed).
func (it *IndexTable) BackpatchTemporalOffset(position int64, offset int64) bool {
	if offset > 127 {
		offset = 127
	}
	if offset < -127 {
		offset = -127
	}
	for _, seg := range it.Segments {
		start := seg.IndexStartPosition
		end := start + int64(len(seg.Entries))
		if position >= start && position < end {
			seg.Entries[position-start].TemporalOffset = int8(offset)
			return true
		}
	}
	return false
}

// Encode serializes one index segment's body.
func (s *IndexSegment) Encode() []byte {
	var buf bytes.Buffer
	buf.Write(s.InstanceUID[:])
	binary.Write(&buf, binary.BigEndian, uint32(s.IndexEditRate.Numerator))
	binary.Write(&buf, binary.BigEndian, uint32(s.IndexEditRate.Denominator))
	binary.Write(&buf, binary.BigEndian, s.IndexStartPosition)
	binary.Write(&buf, binary.BigEndian, s.IndexDuration)
	binary.Write(&buf, binary.BigEndian, s.EditUnitByteCount)
	binary.Write(&buf, binary.BigEndian, s.IndexSID)
	binary.Write(&buf, binary.BigEndian, s.BodySID)
	binary.Write(&buf, binary.BigEndian, uint8(0)) // slice_count
	binary.Write(&buf, binary.BigEndian, uint8(0)) // pos_table_count
	binary.Write(&buf, binary.BigEndian, uint32(len(s.Entries)))
	binary.Write(&buf, binary.BigEndian, uint32(11)) // entry size: 1+1+1+8
	for _, e := range s.Entries {
		buf.WriteByte(byte(e.TemporalOffset))
		buf.WriteByte(byte(e.KeyFrameOffset))
		buf.WriteByte(e.Flags)
		binary.Write(&buf, binary.BigEndian, e.StreamOffset)
	}
	return buf.Bytes()
}

var indexTableSegmentUL = mustUL("060e2b34025301010d01020101100100")

func (s *IndexSegment) KLV() KLV {
	return KLV{Key: indexTableSegmentUL, Value: s.Encode()}
}

// TotalByteSize returns the combined encoded size of every segment's
// KLV, used for the footer partition's index_byte_count (spec.md
// §4.7.4: "index_byte_count = sum of index segment byte sizes").
func (it *IndexTable) TotalByteSize() int {
	total := 0
	for _, s := range it.Segments {
		total += len(s.KLV().EncodeFixed4Length())
	}
	return total
}
