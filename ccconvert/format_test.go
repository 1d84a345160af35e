package ccconvert

import (
	"bytes"
	"testing"

	"github.com/zsiec/mxfcap/cc708"
)

func TestRaw608ToS334ToCCData(t *testing.T) {
	triplets := []cc708.Triplet{
		{Valid: true, Type: cc708.CCType608F1, B1: 0x94, B2: 0x2C},
	}
	raw, err := FromTriplets(FormatRaw608F1, triplets, nil)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ToTriplets(FormatRaw608F1, raw)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].B1 != 0x94 || back[0].B2 != 0x2C {
		t.Fatalf("round trip mismatch: %+v", back)
	}

	s334, err := FromTriplets(FormatS334, triplets, nil)
	if err != nil {
		t.Fatal(err)
	}
	back2, err := ToTriplets(FormatS334, s334)
	if err != nil {
		t.Fatal(err)
	}
	if len(back2) != 1 || back2[0].Type != cc708.CCType608F1 {
		t.Fatalf("S334 round trip mismatch: %+v", back2)
	}

	ccdata, err := FromTriplets(FormatCCData, triplets, nil)
	if err != nil {
		t.Fatal(err)
	}
	back3, err := ToTriplets(FormatCCData, ccdata)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(cc708.EncodeTriplets(back3), ccdata) {
		t.Fatalf("cc_data round trip mismatch")
	}
}

func TestCDPFormatRoundTrip(t *testing.T) {
	fps, _ := cc708.LookupFPS(0x5F)
	ctx := &cc708.CDP{FPS: fps, Mode: cc708.ModeCCData, Sequence: 1}
	triplets := []cc708.Triplet{
		{Valid: true, Type: cc708.CCType608F1, B1: 0x94, B2: 0x2C},
	}
	data, err := FromTriplets(FormatCDP, triplets, ctx)
	if err != nil {
		t.Fatal(err)
	}
	back, err := ToTriplets(FormatCDP, data)
	if err != nil {
		t.Fatal(err)
	}
	if len(back) != 1 || back[0].B1 != 0x94 {
		t.Fatalf("CDP round trip mismatch: %+v", back)
	}
}

func TestPassthrough(t *testing.T) {
	if !Passthrough(FormatCCData, FormatCCData) {
		t.Fatal("identical formats should be passthrough")
	}
	if Passthrough(FormatCCData, FormatCDP) {
		t.Fatal("different formats should not be passthrough")
	}
}
