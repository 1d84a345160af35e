package vbi

import (
	"fmt"
	"math"
	"sync"

	"github.com/zsiec/mxfcap/bitslicer"
)

const maxWays = 8
const maxJobs = 8

// decayStart is the value written into a row's tail way slot after a
// successful decode, forcing a full re-scan of that row on the next call
// (spec.md §4.2: "mark the row's tail slot -128").
const decayStart = -128

// rotateEvery is how often (in Decode calls) a persistently blank row
// rotates one way slot out to allow re-discovery.
const rotateEvery = 16

// job is a compiled Bit Slicer bound to one catalog service.
type job struct {
	slicer  *bitslicer.Slicer
	service Service
}

// SamplingParams describes the analog capture a Decoder scans: the pixel
// format and geometry shared by every line, plus which lines were
// actually captured (used by AddServices' strict-mode line-coverage
// check).
type SamplingParams struct {
	Format           bitslicer.SampleFormat
	VideoStd         VideoStd
	SamplingRate     int
	SampleOffset     int
	SamplesPerLine   int
	SampledLineRange [2][2]int // per field [minLine,maxLine], 0,0 if unsampled
}

// Sliced is one successfully decoded VBI line (spec.md §4.2).
type Sliced struct {
	ID         Set
	LineNumber int
	Data       []byte
}

// Decoder drives the bit slicer across a whole video field/frame,
// checking each scanline against whichever services are currently
// enrolled on it (spec.md §4.2).
type Decoder struct {
	mu       sync.Mutex
	sampling SamplingParams
	jobs     [maxJobs]*job
	jobCount int
	pattern  map[int]*[maxWays]int
	blank    map[int]bool
	calls    int
}

// NewDecoder creates an empty Decoder for the given sampling geometry.
func NewDecoder(sampling SamplingParams) *Decoder {
	return &Decoder{
		sampling: sampling,
		pattern:  make(map[int]*[maxWays]int),
		blank:    make(map[int]bool),
	}
}

func (d *Decoder) row(line int) *[maxWays]int {
	r, ok := d.pattern[line]
	if !ok {
		r = &[maxWays]int{}
		d.pattern[line] = r
	}
	return r
}

var mergePairs = [][2]Set{
	{Caption525F1, Caption525F2},
	{Caption625F1, Caption625F2},
	{CEA708RawF1, CEA708RawF2},
}

func mergeCounterpart(flag Set) (Set, bool) {
	for _, p := range mergePairs {
		if p[0] == flag {
			return p[1], true
		}
		if p[1] == flag {
			return p[0], true
		}
	}
	return 0, false
}

// AddServices enrolls every service named in set that the decoder's
// sampling parameters can carry, returning the subset actually enrolled
// (spec.md §4.2).
func (d *Decoder) AddServices(set Set, strict int) (Set, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var enrolled Set
	handled := map[Set]bool{}

	for _, svc := range ServiceTable {
		if svc.Flag&set == 0 || handled[svc.Flag] {
			continue
		}
		if svc.VideoStdSet&d.sampling.VideoStd == 0 {
			continue
		}
		if d.sampling.SamplingRate < maxInt(svc.CRIRate, svc.BitRate) {
			continue
		}
		if err := d.rejectStrict(svc, strict); err != nil {
			continue
		}
		if d.jobCount >= maxJobs {
			break
		}

		params := bitslicer.Params{
			Format:         d.sampling.Format,
			SamplingRate:   d.sampling.SamplingRate,
			SampleOffset:   d.sampling.SampleOffset,
			SamplesPerLine: d.sampling.SamplesPerLine,
			CRIPattern:     svc.CRIFRCPattern,
			CRIMask:        svc.CRIFRCMask,
			CRIBits:        svc.CRIBits,
			CRIRate:        svc.CRIRate,
			CRIEnd:         d.sampling.SamplesPerLine,
			FRCPattern:     svc.CRIFRCPattern & ((1 << uint(svc.FRCBits)) - 1),
			FRCBits:        svc.FRCBits,
			PayloadBits:    svc.PayloadBits,
			PayloadRate:    svc.BitRate,
			Modulation:     svc.Modulation,
		}
		slicer, err := bitslicer.NewSlicer(params)
		if err != nil {
			continue
		}
		idx := d.jobCount
		d.jobs[idx] = &job{slicer: slicer, service: svc}
		d.jobCount++

		for field := 0; field < 2; field++ {
			first, last := svc.FirstLine[field], svc.LastLine[field]
			if first == 0 && last == 0 {
				continue
			}
			for line := first; line <= last; line++ {
				row := d.row(line)
				d.inscribe(row, idx)
			}
		}

		enrolled |= svc.Flag
		handled[svc.Flag] = true

		if counterpart, ok := mergeCounterpart(svc.Flag); ok && svc.Flags&FlagMergesWithF2 != 0 {
			if cp, found := Lookup(counterpart); found && counterpart&set != 0 {
				for field := 0; field < 2; field++ {
					first, last := cp.FirstLine[field], cp.LastLine[field]
					if first == 0 && last == 0 {
						continue
					}
					for line := first; line <= last; line++ {
						row := d.row(line)
						d.inscribe(row, idx)
					}
				}
				enrolled |= counterpart
				handled[counterpart] = true
			}
		}
	}
	return enrolled, nil
}

// inscribe places job index idx+1 (pattern cells are 1-based so 0 means
// "blank slot") into the first free way of row, if any.
func (d *Decoder) inscribe(row *[maxWays]int, jobIdx int) {
	for w := 0; w < maxWays; w++ {
		if row[w] == 0 {
			row[w] = jobIdx + 1
			return
		}
	}
}

func (d *Decoder) rejectStrict(svc Service, strict int) error {
	if strict >= 1 {
		criSamples := ceilDiv(svc.CRIBits*d.sampling.SamplingRate, svc.CRIRate)
		payloadSamples := ceilDiv((svc.FRCBits+svc.PayloadBits)*d.sampling.SamplingRate, svc.BitRate)
		need := d.sampling.SampleOffset + criSamples + payloadSamples
		marginSamples := ceilDiv(d.sampling.SamplingRate, 1_000_000) // >=1us
		if need+marginSamples > d.sampling.SamplesPerLine {
			return fmt.Errorf("vbi: service %s does not fit sampled window with margin", svc.Name)
		}
	}
	if strict >= 2 {
		for field := 0; field < 2; field++ {
			first, last := svc.FirstLine[field], svc.LastLine[field]
			if first == 0 && last == 0 {
				continue
			}
			rmin, rmax := d.sampling.SampledLineRange[field][0], d.sampling.SampledLineRange[field][1]
			if first < rmin || last > rmax {
				return fmt.Errorf("vbi: service %s not fully covered by sampled lines", svc.Name)
			}
		}
	}
	return nil
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// RemoveServices drops every enrolled service named in set, clearing its
// job slot and every pattern cell that referenced it.
func (d *Decoder) RemoveServices(set Set) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for idx, j := range d.jobs {
		if j == nil || j.service.Flag&set == 0 {
			continue
		}
		d.jobs[idx] = nil
		for _, row := range d.pattern {
			for w := 0; w < maxWays; w++ {
				if row[w] == idx+1 {
					row[w] = 0
				}
			}
		}
	}
}

// Reset clears every enrolled service and pattern cell.
func (d *Decoder) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.jobs = [maxJobs]*job{}
	d.jobCount = 0
	d.pattern = make(map[int]*[maxWays]int)
	d.blank = make(map[int]bool)
	d.calls = 0
}

// Decode scans every line present in lines against the enrolled services,
// returning one Sliced per successful match (spec.md §4.2).
func (d *Decoder) Decode(lines map[int][]byte) []Sliced {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	var out []Sliced

	for line, data := range lines {
		row, ok := d.pattern[line]
		if !ok {
			continue
		}
		matched := false
		for w := 0; w < maxWays; w++ {
			idx := row[w]
			if idx <= 0 {
				continue
			}
			j := d.jobs[idx-1]
			if j == nil {
				continue
			}
			payload, ok := j.slicer.Slice(data)
			if !ok {
				continue
			}
			out = append(out, Sliced{ID: j.service.Flag, LineNumber: line, Data: payload})
			matched = true
			row[0], row[w] = row[w], row[0]
			row[maxWays-1] = decayStart
			break
		}
		d.blank[line] = !matched
	}

	if d.calls%rotateEvery == 0 {
		for line, isBlank := range d.blank {
			if !isBlank {
				continue
			}
			row := d.pattern[line]
			first := row[0]
			copy(row[:maxWays-1], row[1:])
			row[maxWays-1] = first
		}
	}

	return out
}
