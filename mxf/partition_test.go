package mxf

import "testing"

func TestPartitionPackULVariesByTypeAndStatus(t *testing.T) {
	header := partitionPackUL(PartitionPack{Type: PartitionHeader, Closed: true, Complete: true})
	body := partitionPackUL(PartitionPack{Type: PartitionBody, Closed: true, Complete: true})
	footer := partitionPackUL(PartitionPack{Type: PartitionFooter, Closed: true, Complete: true})

	if header[13] != 0x02 || body[13] != 0x03 || footer[13] != 0x04 {
		t.Fatalf("partition kind bytes: header=%#x body=%#x footer=%#x", header[13], body[13], footer[13])
	}

	openIncomplete := partitionPackUL(PartitionPack{Type: PartitionHeader, Closed: false, Complete: false})
	closedIncomplete := partitionPackUL(PartitionPack{Type: PartitionHeader, Closed: true, Complete: false})
	openComplete := partitionPackUL(PartitionPack{Type: PartitionHeader, Closed: false, Complete: true})
	closedComplete := partitionPackUL(PartitionPack{Type: PartitionHeader, Closed: true, Complete: true})

	if openIncomplete[14] != 0x01 || closedIncomplete[14] != 0x02 || openComplete[14] != 0x03 || closedComplete[14] != 0x04 {
		t.Fatalf("status bytes: %#x %#x %#x %#x",
			openIncomplete[14], closedIncomplete[14], openComplete[14], closedComplete[14])
	}
}

func TestPartitionPackEncodeLength(t *testing.T) {
	pp := PartitionPack{
		Type: PartitionHeader, Closed: true, Complete: true,
		MajorVersion: 1, MinorVersion: 2, KAGSize: 1,
		OperationalPattern: OperationalPatternUL1a,
		EssenceContainers:  []UL{ULEssenceContainerAVCFrameWrapped},
	}
	encoded := pp.Encode()
	// major(2)+minor(2)+kag(4)+6*uint64(48)+indexSID(4)+bodySID(4)+op(16)+count(4)+itemsize(4)+1*UL(16)
	want := 2 + 2 + 4 + 6*8 + 4 + 4 + 16 + 4 + 4 + 16
	if len(encoded) != want {
		t.Fatalf("len(encoded) = %d, want %d", len(encoded), want)
	}
}

func TestRandomIndexPackEncodeIncludesTrailingLength(t *testing.T) {
	rip := RandomIndexPack{Entries: []RIPEntry{{BodySID: 0, Offset: 0}, {BodySID: 1, Offset: 512}}}
	encoded := rip.Encode()
	if len(encoded) != 12*2+4 {
		t.Fatalf("len(encoded) = %d, want %d", len(encoded), 12*2+4)
	}
}
