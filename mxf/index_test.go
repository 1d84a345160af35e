package mxf

import "testing"

func TestIndexTableSpillsAtSegmentCap(t *testing.T) {
	it := NewIndexTable(2, 1, Rational{Numerator: 25, Denominator: 1})
	for i := 0; i < maxIndexEntriesPerSegment+5; i++ {
		it.AppendEntry(int64(i), i == 0, uint64(i*100))
	}
	if len(it.Segments) != 2 {
		t.Fatalf("len(Segments) = %d, want 2", len(it.Segments))
	}
	if len(it.Segments[0].Entries) != maxIndexEntriesPerSegment {
		t.Fatalf("first segment has %d entries, want %d", len(it.Segments[0].Entries), maxIndexEntriesPerSegment)
	}
	if len(it.Segments[1].Entries) != 5 {
		t.Fatalf("second segment has %d entries, want 5", len(it.Segments[1].Entries))
	}
	if it.Segments[1].IndexStartPosition != int64(maxIndexEntriesPerSegment) {
		t.Fatalf("second segment start = %d, want %d", it.Segments[1].IndexStartPosition, maxIndexEntriesPerSegment)
	}
}

func TestIndexTableKeyFrameOffsetClampedAt127(t *testing.T) {
	it := NewIndexTable(2, 1, Rational{Numerator: 25, Denominator: 1})
	it.AppendEntry(0, true, 0)
	for i := int64(1); i < 200; i++ {
		it.AppendEntry(i, false, uint64(i))
	}
	last := it.Segments[0].Entries[199]
	if last.KeyFrameOffset != 127 {
		t.Fatalf("KeyFrameOffset = %d, want 127", last.KeyFrameOffset)
	}
}

func TestBackpatchTemporalOffsetAcrossSegmentBoundary(t *testing.T) {
	it := NewIndexTable(2, 1, Rational{Numerator: 25, Denominator: 1})
	for i := 0; i < maxIndexEntriesPerSegment+3; i++ {
		it.AppendEntry(int64(i), i == 0, uint64(i))
	}
	target := int64(maxIndexEntriesPerSegment + 1)
	if !it.BackpatchTemporalOffset(target, 2) {
		t.Fatal("BackpatchTemporalOffset returned false for a position in the second segment")
	}
	got := it.Segments[1].Entries[target-it.Segments[1].IndexStartPosition].TemporalOffset
	if got != 2 {
		t.Fatalf("TemporalOffset = %d, want 2", got)
	}
}

func TestBackpatchTemporalOffsetClamps(t *testing.T) {
	it := NewIndexTable(2, 1, Rational{Numerator: 25, Denominator: 1})
	it.AppendEntry(0, true, 0)
	it.BackpatchTemporalOffset(0, 500)
	if it.Segments[0].Entries[0].TemporalOffset != 127 {
		t.Fatalf("TemporalOffset = %d, want clamped to 127", it.Segments[0].Entries[0].TemporalOffset)
	}
	it.BackpatchTemporalOffset(0, -500)
	if it.Segments[0].Entries[0].TemporalOffset != -127 {
		t.Fatalf("TemporalOffset = %d, want clamped to -127", it.Segments[0].Entries[0].TemporalOffset)
	}
}

func TestIndexSegmentEncodeEntrySize(t *testing.T) {
	it := NewIndexTable(2, 1, Rational{Numerator: 25, Denominator: 1})
	it.AppendEntry(0, true, 0)
	it.AppendEntry(1, false, 512)
	encoded := it.Segments[0].Encode()
	// instanceUID(16) + editRate(8) + startPos(8) + duration(8) + editUnitByteCount(4)
	// + indexSID(4) + bodySID(4) + sliceCount(1) + posTableCount(1) + entryCount(4) + entrySize(4) + 2*11
	want := 16 + 8 + 8 + 8 + 4 + 4 + 4 + 1 + 1 + 4 + 4 + 2*11
	if len(encoded) != want {
		t.Fatalf("len(encoded) = %d, want %d", len(encoded), want)
	}
}
