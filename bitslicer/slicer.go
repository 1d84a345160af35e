package bitslicer

// threshInit is the adaptive threshold's starting value before any
// fractional-bit shift is applied (spec.md §4.1: "Initialized to
// 105 << thresh_frac").
const threshInit = 105

// threshMin and threshMax bound the adaptive threshold's integer part
// (SPEC_FULL.md supplement #1, from bit_slicer.c's noise-floor clamp).
const threshMin = 1
const threshMax = 254

// Slicer is a compiled Bit Slicer for one service (spec.md §4.1). A Slicer
// is not safe for concurrent use; callers needing concurrent decode of
// multiple lines create one Slicer per line/service combination (this is
// exactly how vbi.Decoder uses it, one compiled job per pattern-matrix
// cell).
type Slicer struct {
	params  Params
	derived derived
	thresh  int // current adaptive threshold, thresh_frac fractional bits
	valid   bool
}

// NewSlicer validates params and compiles the derived oversampling/phase
// state. An invalid set-params means every subsequent Slice call returns
// false (spec.md §4.1 "Failure semantics").
func NewSlicer(params Params) (*Slicer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	s := &Slicer{params: params, derived: params.compile(), valid: true}
	s.thresh = threshInit << s.derived.threshFrac
	return s, nil
}

func (s *Slicer) threshInt() int {
	return s.thresh >> s.derived.threshFrac
}

func (s *Slicer) clampThresh() {
	lo := threshMin << s.derived.threshFrac
	hi := threshMax << s.derived.threshFrac
	if s.thresh < lo {
		s.thresh = lo
	}
	if s.thresh > hi {
		s.thresh = hi
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// updateThreshold applies the adaptive-threshold update rule from
// spec.md §4.1 for one scanned sample position.
func (s *Slicer) updateThreshold(f SampleFormat, line []byte, samplePos int) {
	n := lineLen(f, line)
	if samplePos < 0 || samplePos >= n-1 {
		return
	}
	sample := f.Sample(line, samplePos)
	next := f.Sample(line, samplePos+1)
	s.thresh += (sample - s.threshInt()) * abs(next-sample)
	s.clampThresh()
}

// readBit samples a single data bit at fractional sample position
// pos256 (1/256 of a sample). For biphase modulation the bit is decoded
// from the transition direction across the cell (a differential/Manchester
// read); for NRZ it is a simple threshold compare at the cell center.
func (s *Slicer) readBit(f SampleFormat, line []byte, pos256, cellStep256 int) bool {
	if s.params.Modulation.isBiphase() {
		quarter := cellStep256 / 4
		a := interpolate(f, line, pos256-quarter)
		b := interpolate(f, line, pos256+quarter)
		return b > a
	}
	v := interpolate(f, line, pos256)
	return v > s.threshInt()
}

// matchCRI tries each integer start sample from SampleOffset up to (not
// including) CRIEnd, returning the 1/256-sample position just past the
// end of the first CRI run that matches.
func (s *Slicer) matchCRI(line []byte) (endPos256 int, ok bool) {
	f := s.params.Format
	criStep256 := int(s.derived.samplesPerCRIBit * 256)

	for start := s.params.SampleOffset; start < s.params.CRIEnd; start++ {
		preThresh := s.thresh
		startPos256 := start * 256
		var c uint32
		for k := 0; k < s.params.CRIBits; k++ {
			pos := startPos256 + k*criStep256 + criStep256/2
			s.updateThreshold(f, line, pos/256)
			bit := s.readBit(f, line, pos, criStep256)
			c <<= 1
			if bit {
				c |= 1
			}
		}
		if c&s.params.CRIMask == s.params.CRIPattern&s.params.CRIMask {
			return startPos256 + s.params.CRIBits*criStep256, true
		}
		s.thresh = preThresh
	}
	return 0, false
}

// Slice locates the CRI, verifies the FRC, and extracts payload_bits from
// one scanline (spec.md §4.1). line is a full scanline in the configured
// SampleFormat. Returns false (leaving out unmodified) when the buffer is
// too small, the params are invalid, or the CRI/FRC cannot be matched
// within the sampled window.
func (s *Slicer) Slice(line []byte) (payload []byte, ok bool) {
	if !s.valid {
		return nil, false
	}
	if lineLen(s.params.Format, line) < s.params.SamplesPerLine {
		return nil, false
	}

	preSearchThresh := s.thresh
	criEnd256, ok := s.matchCRI(line)
	if !ok {
		s.thresh = preSearchThresh
		return nil, false
	}

	payloadStep256 := s.derived.step
	frcStart256 := criEnd256 + s.derived.phaseShift

	f := s.params.Format
	var frc uint32
	for k := 0; k < s.params.FRCBits; k++ {
		pos := frcStart256 + k*payloadStep256
		bit := s.readBit(f, line, pos, payloadStep256)
		frc <<= 1
		if bit {
			frc |= 1
		}
	}
	if s.params.FRCBits > 0 && frc != s.params.FRCPattern {
		s.thresh = preSearchThresh
		return nil, false
	}

	out := make([]byte, (s.params.PayloadBits+7)/8)
	payloadStart256 := frcStart256 + s.params.FRCBits*payloadStep256
	e := s.params.endianness()

	for k := 0; k < s.params.PayloadBits; k++ {
		pos := payloadStart256 + k*payloadStep256
		bit := s.readBit(f, line, pos, payloadStep256)
		setPayloadBit(out, k, bit, e)
	}
	return out, true
}

// setPayloadBit writes decoded bit k into out according to the selected
// endianness (spec.md §4.1: lsb/msb-first bitwise, lsb/msb-first bytewise).
func setPayloadBit(out []byte, k int, bit bool, e endianness) {
	if !bit {
		return
	}
	switch e {
	case bitwiseLSB:
		out[k/8] |= 1 << uint(k%8)
	case bitwiseMSB:
		out[k/8] |= 1 << uint(7-k%8)
	case bytewiseLSB:
		// Each byte's bits are assembled LSB-first but bytes appear in
		// transmission order (byte-wise framing, bit-wise LSB within).
		out[k/8] |= 1 << uint(k%8)
	case bytewiseMSB:
		out[k/8] |= 1 << uint(7-k%8)
	}
}

func getPayloadBit(data []byte, k int, e endianness) bool {
	b := data[k/8]
	switch e {
	case bitwiseLSB, bytewiseLSB:
		return b&(1<<uint(k%8)) != 0
	default:
		return b&(1<<uint(7-k%8)) != 0
	}
}
