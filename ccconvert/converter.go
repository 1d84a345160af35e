package ccconvert

import (
	"fmt"
	"math"

	"github.com/zsiec/mxfcap/cc708"
	"github.com/zsiec/mxfcap/ccbuffer"
)

// nominalFPS rounds a Rate to its nearest integer frames-per-second,
// e.g. 30000/1001 -> 30, used wherever a whole-number frame count per
// second is needed (timecode arithmetic).
func nominalFPS(r Rate) int {
	return int(math.Round(float64(r.Num) / float64(r.Den)))
}

// Rate is a framerate expressed as a fraction, matching the
// fps_n/fps_d fields used throughout spec.md §3-4.
type Rate struct {
	Num, Den int
}

func (r Rate) frameDuration() float64 {
	return float64(r.Den) / float64(r.Num)
}

// Converter transcodes one CC stream from InFormat/InRate to
// OutFormat/OutRate, pivoting through a CC Buffer and tracking the
// monotonically wrapping CDP sequence counter (spec.md §4.4).
type Converter struct {
	InFormat  Format
	OutFormat Format
	InRate    Rate
	OutRate   Rate
	Mode      cc708.Mode

	buf *ccbuffer.Buffer
	fps cc708.FPSEntry

	inputFrames  int64
	outputFrames int64
	sequence     uint16

	lastTimecode cc708.Timecode
	haveTimecode bool
}

// NewConverter creates a Converter. maxCEA608PerFrame/maxCCPPerFrame size
// the internal CC Buffer (spec.md §4.3).
func NewConverter(in, out Format, inRate, outRate Rate, mode cc708.Mode, maxCEA608PerFrame, maxCCPPerFrame int) (*Converter, error) {
	fps, ok := cc708.FPSEntryFor(outRate.Num, outRate.Den)
	if !ok && out == FormatCDP {
		return nil, fmt.Errorf("ccconvert: %d/%d is not one of the 8 known CDP framerates", outRate.Num, outRate.Den)
	}
	return &Converter{
		InFormat: in, OutFormat: out,
		InRate: inRate, OutRate: outRate,
		Mode: mode,
		buf:  ccbuffer.NewBuffer(maxCEA608PerFrame, maxCCPPerFrame),
		fps:  fps,
	}, nil
}

// Push feeds one input buffer (already demultiplexed to InFormat's wire
// bytes) through the converter, returning zero or more output buffers
// produced as the input/output frame-time grids cross (spec.md §4.4
// "Framerate rescaling").
func (c *Converter) Push(data []byte, tc *cc708.Timecode) ([][]byte, error) {
	triplets, err := ToTriplets(c.InFormat, data)
	if err != nil {
		return nil, err
	}
	c.buf.PushCCData(triplets)
	c.inputFrames++
	if tc != nil {
		c.lastTimecode = *tc
		c.haveTimecode = true
	}

	var outputs [][]byte
	for {
		inputTime := float64(c.inputFrames) * c.InRate.frameDuration()
		nextOutputTime := float64(c.outputFrames+1) * c.OutRate.frameDuration()
		if inputTime < nextOutputTime {
			break
		}

		out, err := c.emit()
		if err != nil {
			return outputs, err
		}
		outputs = append(outputs, out)
		c.outputFrames++

		if inputTime == nextOutputTime {
			c.inputFrames = 0
			c.outputFrames = 0
		}
	}
	return outputs, nil
}

func (c *Converter) emit() ([]byte, error) {
	maxCEA608 := c.fps.MaxCEA608Count
	maxCCP := c.fps.MaxCCPCount
	if c.OutFormat != FormatCDP {
		// Non-CDP outputs carry no fps cap; drain everything buffered
		// for this output tick.
		maxCEA608 = 1 << 16
		maxCCP = 1 << 16
	} else if room := c.fps.MaxCCCount - 2*maxCEA608; maxCCP > room {
		// The padded packet carries both 608 fields plus the CCP
		// triplets, and all of them must fit the fps entry's cc_count cap.
		maxCCP = room
	}
	triplets := c.buf.Take(maxCEA608, maxCCP, c.OutFormat == FormatCDP)

	var cdpCtx *cc708.CDP
	if c.OutFormat == FormatCDP {
		outDrop := InferDropFrame(c.OutRate.Num, c.OutRate.Den, c.haveTimecode && c.lastTimecode.DropFrame)
		tc := c.lastTimecode
		if c.Mode&cc708.ModeTimeCode != 0 && c.haveTimecode {
			scaleNum := c.OutRate.Num * c.InRate.Den
			scaleDen := c.InRate.Num * c.OutRate.Den
			tc = InterpolateTimecode(c.lastTimecode, nominalFPS(c.InRate), scaleNum, scaleDen, nominalFPS(c.OutRate), outDrop)
			tc.DropFrame = outDrop
		}
		cdpCtx = &cc708.CDP{
			FPS:      c.fps,
			Mode:     c.Mode,
			Sequence: c.sequence,
			Timecode: tc,
		}
		c.sequence++ // wraps naturally at 16 bits (uint16)
	}

	return FromTriplets(c.OutFormat, triplets, cdpCtx)
}

// Passthrough reports whether in and out name the same wire format,
// meaning a converter is unnecessary (spec.md §4.4: "Passthrough when
// input and output caps intersect").
func Passthrough(in, out Format) bool {
	return in == out
}
