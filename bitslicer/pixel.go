package bitslicer

// SampleFormat extracts the luma/green sample value at index i of one
// scanline's raw bytes. This is the "inline pixel-access trait" from
// spec.md §9: rather than compiling a distinct bit-slicer variant per
// pixel format, a generic slicer consults this small accessor.
type SampleFormat interface {
	// Sample returns the luma/green value (0-255) at sample index i.
	Sample(line []byte, i int) int
	// Stride returns the number of bytes one sample occupies in the
	// line.
	Stride() int
}

// Gray8 is a single byte per sample (e.g. a raw 8-bit luma capture).
type Gray8 struct{}

func (Gray8) Sample(line []byte, i int) int { return int(line[i]) }
func (Gray8) Stride() int                   { return 1 }

// packedLuma extracts luma from a 2-bytes-per-sample packed format
// (YUY2 has luma at even byte offsets, UYVY at odd).
type packedLuma struct{ offset int }

func (p packedLuma) Sample(line []byte, i int) int { return int(line[i*2+p.offset]) }
func (p packedLuma) Stride() int                    { return 2 }

// YUY2 packs luma at even byte positions: Y0 U Y1 V ...
var YUY2 SampleFormat = packedLuma{offset: 0}

// UYVY packs luma at odd byte positions: U Y0 V Y1 ...
var UYVY SampleFormat = packedLuma{offset: 1}

// lineLen returns how many sample positions are available in line under
// format f.
func lineLen(f SampleFormat, line []byte) int {
	return len(line) / f.Stride()
}

// interpolate linearly interpolates the sample value at a fractional
// sample position pos256, expressed in 1/256 of a sample, between the two
// neighboring integer sample positions.
func interpolate(f SampleFormat, line []byte, pos256 int) int {
	n := lineLen(f, line)
	idx := pos256 / 256
	frac := pos256 % 256
	if idx < 0 {
		idx = 0
		frac = 0
	}
	if idx >= n-1 {
		idx = n - 2
		if idx < 0 {
			idx = 0
		}
		frac = 256
	}
	a := f.Sample(line, idx)
	b := a
	if idx+1 < n {
		b = f.Sample(line, idx+1)
	}
	return a + (b-a)*frac/256
}
