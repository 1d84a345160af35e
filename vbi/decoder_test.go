package vbi

import (
	"testing"

	"github.com/zsiec/mxfcap/bitslicer"
)

func testSampling() SamplingParams {
	return SamplingParams{
		Format:           bitslicer.Gray8{},
		VideoStd:         StdNTSCM,
		SamplingRate:     14318180,
		SampleOffset:     100,
		SamplesPerLine:   1440,
		SampledLineRange: [2][2]int{{21, 21}, {284, 284}},
	}
}

func TestAddServicesEnrollsCaptionPair(t *testing.T) {
	d := NewDecoder(testSampling())
	enrolled, err := d.AddServices(Caption525F1|Caption525F2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if enrolled&Caption525F1 == 0 || enrolled&Caption525F2 == 0 {
		t.Fatalf("enrolled = %v, want both caption fields", enrolled)
	}
	if d.jobCount != 1 {
		t.Fatalf("jobCount = %d, want 1 (merged F1/F2 job)", d.jobCount)
	}
	if _, ok := d.pattern[21]; !ok {
		t.Fatal("line 21 not inscribed")
	}
	if _, ok := d.pattern[284]; !ok {
		t.Fatal("line 284 not inscribed")
	}
}

func TestAddServicesRejectsWrongVideoStd(t *testing.T) {
	d := NewDecoder(testSampling())
	enrolled, err := d.AddServices(VPS, 0)
	if err != nil {
		t.Fatal(err)
	}
	if enrolled != 0 {
		t.Fatalf("enrolled = %v, want none (VPS is PAL-only)", enrolled)
	}
}

func TestDecodeRoundTripsEnrolledService(t *testing.T) {
	d := NewDecoder(testSampling())
	if _, err := d.AddServices(Caption525F1, 0); err != nil {
		t.Fatal(err)
	}
	svc, _ := Lookup(Caption525F1)
	params := bitslicer.Params{
		Format:         bitslicer.Gray8{},
		SamplingRate:   14318180,
		SampleOffset:   100,
		SamplesPerLine: 1440,
		CRIPattern:     svc.CRIFRCPattern,
		CRIMask:        svc.CRIFRCMask,
		CRIBits:        svc.CRIBits,
		CRIRate:        svc.CRIRate,
		CRIEnd:         1440,
		FRCPattern:     svc.CRIFRCPattern & ((1 << uint(svc.FRCBits)) - 1),
		FRCBits:        svc.FRCBits,
		PayloadBits:    svc.PayloadBits,
		PayloadRate:    svc.BitRate,
		Modulation:     svc.Modulation,
	}
	s, err := bitslicer.NewSlicer(params)
	if err != nil {
		t.Fatal(err)
	}
	line, ok := s.Encode([]byte{0x15, 0x2A})
	if !ok {
		t.Fatal("Encode failed")
	}

	sliced := d.Decode(map[int][]byte{21: line})
	if len(sliced) != 1 {
		t.Fatalf("len(sliced) = %d, want 1", len(sliced))
	}
	if sliced[0].LineNumber != 21 || sliced[0].ID != Caption525F1 {
		t.Fatalf("unexpected sliced result: %+v", sliced[0])
	}
	if sliced[0].Data[0] != 0x15 || sliced[0].Data[1] != 0x2A {
		t.Fatalf("payload = %x, want 152a", sliced[0].Data)
	}
}

func TestRemoveServicesClearsPattern(t *testing.T) {
	d := NewDecoder(testSampling())
	d.AddServices(Caption525F1, 0)
	d.RemoveServices(Caption525F1)
	row := d.pattern[21]
	for w, v := range row {
		if v != 0 {
			t.Fatalf("way %d = %d, want 0 after RemoveServices", w, v)
		}
	}
}

func TestResetClearsEverything(t *testing.T) {
	d := NewDecoder(testSampling())
	d.AddServices(Caption525F1, 0)
	d.Reset()
	if d.jobCount != 0 || len(d.pattern) != 0 {
		t.Fatal("Reset did not clear decoder state")
	}
}
