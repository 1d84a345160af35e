package bitslicer

import (
	"testing"

	"pgregory.net/rapid"
)

func testParams(format SampleFormat, mod Modulation) Params {
	return Params{
		Format:         format,
		SamplingRate:   2000000,
		SampleOffset:   10,
		SamplesPerLine: 150,
		CRIPattern:     0x55, // 1010101
		CRIMask:        0x7F,
		CRIBits:        7,
		CRIRate:        500000,
		CRIEnd:         50,
		FRCPattern:     0x2, // 10
		FRCBits:        2,
		PayloadBits:    16,
		PayloadRate:    500000,
		Modulation:     mod,
	}
}

func TestParamsValidate(t *testing.T) {
	p := testParams(Gray8{}, NRZLSB)
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() = %v, want nil", err)
	}
	bad := p
	bad.SamplesPerLine = 50
	if err := bad.Validate(); err == nil {
		t.Fatal("Validate() = nil for undersized samples_per_line, want error")
	}
}

func allModulations() []Modulation {
	return []Modulation{NRZLSB, NRZMSB, BiphaseLSB, BiphaseMSB}
}

func allFormats() []SampleFormat {
	return []SampleFormat{Gray8{}, YUY2, UYVY}
}

// TestRoundTripFixed covers spec.md §8's P1 invariant
// (decode(encode(P; S)) = P) with one fixed payload per
// modulation/format combination.
func TestRoundTripFixed(t *testing.T) {
	payload := []byte{0xA5, 0x3C}
	for _, mod := range allModulations() {
		for _, format := range allFormats() {
			s, err := NewSlicer(testParams(format, mod))
			if err != nil {
				t.Fatalf("NewSlicer: %v", err)
			}
			line, ok := s.Encode(payload)
			if !ok {
				t.Fatalf("Encode failed for mod=%v format=%T", mod, format)
			}
			got, ok := s.Slice(line)
			if !ok {
				t.Fatalf("Slice failed for mod=%v format=%T", mod, format)
			}
			if string(got) != string(payload) {
				t.Fatalf("mod=%v format=%T: got %x, want %x", mod, format, got, payload)
			}
		}
	}
}

// TestRoundTripProperty is the rapid-driven version of P1: for every
// generated 2-byte payload and modulation, decode(encode(payload)) must
// reproduce payload exactly.
func TestRoundTripProperty(t *testing.T) {
	mods := allModulations()
	formats := allFormats()
	rapid.Check(t, func(t *rapid.T) {
		b0 := uint8(rapid.IntRange(0, 255).Draw(t, "b0"))
		b1 := uint8(rapid.IntRange(0, 255).Draw(t, "b1"))
		mod := mods[rapid.IntRange(0, len(mods)-1).Draw(t, "mod")]
		format := formats[rapid.IntRange(0, len(formats)-1).Draw(t, "format")]

		payload := []byte{b0, b1}
		s, err := NewSlicer(testParams(format, mod))
		if err != nil {
			t.Fatalf("NewSlicer: %v", err)
		}
		line, ok := s.Encode(payload)
		if !ok {
			t.Fatalf("Encode failed")
		}
		got, ok := s.Slice(line)
		if !ok {
			t.Fatalf("Slice failed to decode an encoded line")
		}
		if got[0] != payload[0] || got[1] != payload[1] {
			t.Fatalf("round trip mismatch: got %x, want %x", got, payload)
		}
	})
}

// TestSliceFailsOnShortBuffer covers the "output buffer too small" failure
// mode from spec.md §4.1.
func TestSliceFailsOnShortBuffer(t *testing.T) {
	s, err := NewSlicer(testParams(Gray8{}, NRZLSB))
	if err != nil {
		t.Fatal(err)
	}
	short := make([]byte, 10)
	if _, ok := s.Slice(short); ok {
		t.Fatal("Slice succeeded on undersized line, want failure")
	}
}

// TestSliceFailsWhenCRIAbsent covers the "CRI not found within the search
// window" failure mode: a blank line carries no CRI pattern at all.
func TestSliceFailsWhenCRIAbsent(t *testing.T) {
	s, err := NewSlicer(testParams(Gray8{}, NRZLSB))
	if err != nil {
		t.Fatal(err)
	}
	blank := make([]byte, 150)
	for i := range blank {
		blank[i] = blankLevel
	}
	if _, ok := s.Slice(blank); ok {
		t.Fatal("Slice succeeded on a blank line with no CRI, want failure")
	}
}

// TestSliceRestoresThresholdOnFailure checks that a failed search leaves
// the adaptive threshold unchanged, per spec.md §4.1's failure semantics.
func TestSliceRestoresThresholdOnFailure(t *testing.T) {
	s, err := NewSlicer(testParams(Gray8{}, NRZLSB))
	if err != nil {
		t.Fatal(err)
	}
	before := s.thresh
	blank := make([]byte, 150)
	for i := range blank {
		blank[i] = blankLevel
	}
	if _, ok := s.Slice(blank); ok {
		t.Fatal("expected Slice to fail")
	}
	if s.thresh != before {
		t.Fatalf("threshold changed after failed search: before=%d after=%d", before, s.thresh)
	}
}

func TestEncodeFailsOnShortPayload(t *testing.T) {
	s, err := NewSlicer(testParams(Gray8{}, NRZLSB))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := s.Encode([]byte{0x01}); ok {
		t.Fatal("Encode succeeded with a payload shorter than payload_bits, want failure")
	}
}

func TestNewSlicerRejectsInvalidParams(t *testing.T) {
	p := testParams(Gray8{}, NRZLSB)
	p.SamplesPerLine = 1
	if _, err := NewSlicer(p); err == nil {
		t.Fatal("NewSlicer accepted invalid params")
	}
}
