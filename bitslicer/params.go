// Package bitslicer recovers a bit pattern from one oversampled scanline
// of analog video (spec.md §4.1): it locates the Clock Run-In (CRI),
// verifies the Framing Code (FRC), then samples the payload bits at
// computed phase offsets. It also implements the reverse direction —
// encoding a payload back into a raw scanline — used both for round-trip
// testing (spec.md §8 P1) and standalone VBI-line generation (the
// gstline21enc supplement, SPEC_FULL.md).
package bitslicer

import "fmt"

// Modulation selects how payload bits are encoded onto the scanline.
type Modulation int

const (
	NRZLSB Modulation = iota
	NRZMSB
	BiphaseLSB
	BiphaseMSB
)

func (m Modulation) isBiphase() bool {
	return m == BiphaseLSB || m == BiphaseMSB
}

func (m Modulation) isMSB() bool {
	return m == NRZMSB || m == BiphaseMSB
}

// baseThreshFrac is the number of fractional bits carried by the adaptive
// threshold in the high-sample-rate (4x oversampling) path.
const baseThreshFrac = 6

// lowPassExtraFrac widens the threshold's fractional precision in
// low-pass mode (spec.md §4.1: "widen thresh_frac by L-2").
const lowPassFilterOrder = 4
const lowPassExtraFrac = lowPassFilterOrder - 2

// Params is a scan-line decoding rule (spec.md §3 "Bit Slicer Parameters").
type Params struct {
	Format         SampleFormat
	SamplingRate   int // Hz
	SampleOffset   int // samples
	SamplesPerLine int

	CRIPattern uint32
	CRIMask    uint32
	CRIBits    int
	CRIRate    int // Hz
	CRIEnd     int // sample index bounding the CRI search window

	FRCPattern uint32
	FRCBits    int

	PayloadBits int
	PayloadRate int // Hz

	Modulation Modulation
}

// derived holds the state computed once from Params by compile.
type derived struct {
	oversample   int // 4 for high-sample-rate mode, 1 for low-pass mode
	threshFrac   int
	lowPass      bool
	lowPassOrder int // L in low-pass mode; recorded only, no samples are averaged
	phaseShift   int // in 1/256 of a sample
	step         int // 1/256 sample per payload bit
	samplesPerCRIBit     float64
	samplesPerPayloadBit float64
}

// ceilDivProduct returns ceil(a*b/c) using float64 arithmetic, matching the
// invariant formula in spec.md §3.
func ceilDivProduct(a, b, c int) int {
	v := float64(a) * float64(b) / float64(c)
	i := int(v)
	if float64(i) < v {
		i++
	}
	return i
}

// Validate checks the samples_per_line invariant from spec.md §3:
//
//	sample_offset + ceil((cri_bits*sampling_rate)/cri_rate) +
//	  ceil(((frc_bits+payload_bits)*sampling_rate)/payload_rate) <= samples_per_line
func (p Params) Validate() error {
	if p.SamplingRate <= 0 || p.CRIRate <= 0 || p.PayloadRate <= 0 {
		return fmt.Errorf("bitslicer: sampling_rate, cri_rate and payload_rate must be positive")
	}
	if p.Format == nil {
		return fmt.Errorf("bitslicer: sample format required")
	}
	criSamples := ceilDivProduct(p.CRIBits, p.SamplingRate, p.CRIRate)
	payloadSamples := ceilDivProduct(p.FRCBits+p.PayloadBits, p.SamplingRate, p.PayloadRate)
	need := p.SampleOffset + criSamples + payloadSamples
	if need > p.SamplesPerLine {
		return fmt.Errorf("bitslicer: samples_per_line invariant violated: need %d, have %d", need, p.SamplesPerLine)
	}
	if p.CRIEnd <= p.SampleOffset || p.CRIEnd > p.SamplesPerLine {
		return fmt.Errorf("bitslicer: cri_end %d out of range (%d,%d]", p.CRIEnd, p.SampleOffset, p.SamplesPerLine)
	}
	return nil
}

func (p Params) samplesPerBit(rate int) float64 {
	return float64(p.SamplingRate) / float64(rate)
}

// compile computes the derived oversampling/threshold/phase state for p.
func (p Params) compile() derived {
	d := derived{}
	spb := p.samplesPerBit(p.PayloadRate)

	// When samples_per_bit > 3 * 2^(L-1) (L=4), use low-pass mode: no
	// oversampling and a wider threshold fraction. Slice still reads one
	// interpolated sample per decision in this mode; it does not average
	// neighbouring samples.
	if spb > 3*float64(uint(1)<<(lowPassFilterOrder-1)) {
		d.lowPass = true
		d.oversample = 1
		d.lowPassOrder = lowPassFilterOrder
		d.threshFrac = baseThreshFrac + lowPassExtraFrac
	} else {
		d.lowPass = false
		d.oversample = 4
		d.threshFrac = baseThreshFrac
	}

	half := 0.5
	var phaseShift float64
	if p.Modulation.isBiphase() {
		phaseShift = float64(p.SamplingRate)*half/float64(p.CRIRate) +
			float64(p.SamplingRate)*0.25/float64(p.PayloadRate) + half
	} else {
		phaseShift = float64(p.SamplingRate)*half/float64(p.CRIRate) +
			float64(p.SamplingRate)*half/float64(p.PayloadRate) + half
	}
	d.phaseShift = int(phaseShift * 256)
	d.step = int(float64(p.SamplingRate) * 256 / float64(p.PayloadRate))
	d.samplesPerCRIBit = p.samplesPerBit(p.CRIRate)
	d.samplesPerPayloadBit = spb
	return d
}

// endianness selects among the four payload bit orderings (spec.md
// §4.1): lsb-first bitwise, msb-first bitwise, lsb-first bytewise,
// msb-first bytewise, chosen from {modulation, payload_bits % 8 == 0}.
type endianness int

const (
	bitwiseLSB endianness = iota
	bitwiseMSB
	bytewiseLSB
	bytewiseMSB
)

func (p Params) endianness() endianness {
	bytewise := p.PayloadBits%8 == 0
	if p.Modulation.isMSB() {
		if bytewise {
			return bytewiseMSB
		}
		return bitwiseMSB
	}
	if bytewise {
		return bytewiseLSB
	}
	return bitwiseLSB
}
