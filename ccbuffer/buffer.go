// Package ccbuffer accumulates CEA-608 field-1, field-2 and CEA-708 CCP
// bytes and emits canonical cc_data triplets at an output framerate
// (spec.md §4.3).
package ccbuffer

import (
	"sync"

	"github.com/zsiec/mxfcap/cc608"
	"github.com/zsiec/mxfcap/cc708"
)

// Buffer holds the three FIFOs described in spec.md §3 "CC Buffer State":
// field-1 608, field-2 608, and CCP (cc_type >= 2 triplets).
type Buffer struct {
	mu  sync.Mutex
	f1  []cc608.Pair
	f2  []cc608.Pair
	ccp []cc708.Triplet

	maxCEA608PerFrame int
	maxCCPPerFrame    int
}

// NewBuffer creates an empty Buffer with the given per-frame caps.
func NewBuffer(maxCEA608PerFrame, maxCCPPerFrame int) *Buffer {
	return &Buffer{maxCEA608PerFrame: maxCEA608PerFrame, maxCCPPerFrame: maxCCPPerFrame}
}

func nullTriplet608(typ cc708.CCType) cc708.Triplet {
	return cc708.Triplet{Valid: false, Type: typ, B1: cc608.NullByte, B2: cc608.NullByte}
}

// PushCCData parses a cc_data triplet stream into the three FIFOs by
// cc_type (spec.md §4.3), respecting the configured per-frame caps.
// Returns the number of triplets dropped for exceeding a cap.
func (b *Buffer) PushCCData(triplets []cc708.Triplet) (dropped int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, t := range triplets {
		switch t.Type {
		case cc708.CCType608F1:
			if b.maxCEA608PerFrame > 0 && len(b.f1) >= b.maxCEA608PerFrame {
				dropped++
				continue
			}
			b.f1 = append(b.f1, cc608.Pair{t.B1, t.B2})
		case cc708.CCType608F2:
			if b.maxCEA608PerFrame > 0 && len(b.f2) >= b.maxCEA608PerFrame {
				dropped++
				continue
			}
			b.f2 = append(b.f2, cc608.Pair{t.B1, t.B2})
		default:
			if b.maxCCPPerFrame > 0 && len(b.ccp) >= b.maxCCPPerFrame {
				dropped++
				continue
			}
			b.ccp = append(b.ccp, t)
		}
	}
	return dropped
}

// PushSeparated appends directly to the named FIFOs (spec.md §4.3
// "push_separated"), respecting the same per-frame caps as PushCCData.
func (b *Buffer) PushSeparated(f1, f2 []cc608.Pair, ccp []cc708.Triplet) (droppedF1, droppedF2, droppedCCP int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range f1 {
		if b.maxCEA608PerFrame > 0 && len(b.f1) >= b.maxCEA608PerFrame {
			droppedF1++
			continue
		}
		b.f1 = append(b.f1, p)
	}
	for _, p := range f2 {
		if b.maxCEA608PerFrame > 0 && len(b.f2) >= b.maxCEA608PerFrame {
			droppedF2++
			continue
		}
		b.f2 = append(b.f2, p)
	}
	for _, t := range ccp {
		if b.maxCCPPerFrame > 0 && len(b.ccp) >= b.maxCCPPerFrame {
			droppedCCP++
			continue
		}
		b.ccp = append(b.ccp, t)
	}
	return droppedF1, droppedF2, droppedCCP
}

// Take dequeues up to maxCEA608Count field-1 pairs, maxCEA608Count
// field-2 pairs, and maxCCPCount CCP triplets, returning them as cc_data
// triplets in the ordering contract from spec.md §4.3: every 608 triplet
// before any 708 triplet, field-1 before field-2, input order preserved
// within a field. When pad is true, short fields are filled out with
// canonical null bytes; otherwise the short field is emitted verbatim
// (i.e. fewer triplets than requested).
func (b *Buffer) Take(maxCEA608Count, maxCCPCount int, pad bool) []cc708.Triplet {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []cc708.Triplet

	n1 := min(maxCEA608Count, len(b.f1))
	for i := 0; i < n1; i++ {
		p := b.f1[i]
		out = append(out, cc708.Triplet{Valid: true, Type: cc708.CCType608F1, B1: p[0], B2: p[1]})
	}
	b.f1 = b.f1[n1:]
	if pad {
		for i := n1; i < maxCEA608Count; i++ {
			out = append(out, nullTriplet608(cc708.CCType608F1))
		}
	}

	n2 := min(maxCEA608Count, len(b.f2))
	for i := 0; i < n2; i++ {
		p := b.f2[i]
		out = append(out, cc708.Triplet{Valid: true, Type: cc708.CCType608F2, B1: p[0], B2: p[1]})
	}
	b.f2 = b.f2[n2:]
	if pad {
		for i := n2; i < maxCEA608Count; i++ {
			out = append(out, nullTriplet608(cc708.CCType608F2))
		}
	}

	nc := min(maxCCPCount, len(b.ccp))
	out = append(out, b.ccp[:nc]...)
	b.ccp = b.ccp[nc:]
	if pad {
		for i := nc; i < maxCCPCount; i++ {
			out = append(out, cc708.NullTriplet708)
		}
	}

	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// IsEmpty reports whether all three FIFOs are empty.
func (b *Buffer) IsEmpty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.f1) == 0 && len(b.f2) == 0 && len(b.ccp) == 0
}

// Discard clears all three FIFOs without emitting anything.
func (b *Buffer) Discard() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.f1 = nil
	b.f2 = nil
	b.ccp = nil
}

// InterleaveFields combines a field-1 and field-2 pair sequence into one
// S334-1A-ordered stream, alternating F1/F2 per source index
// (SPEC_FULL.md supplement #5, the gstcea608mux field-interleave
// operation). When the two sequences differ in length, the remainder of
// the longer one is appended after interleaving stops.
func InterleaveFields(f1, f2 []cc608.Pair) []cc608.S334Triplet {
	n := len(f1)
	if len(f2) < n {
		n = len(f2)
	}
	out := make([]cc608.S334Triplet, 0, len(f1)+len(f2))
	for i := 0; i < n; i++ {
		out = append(out, cc608.EncodeS334(cc608.Field1, f1[i]))
		out = append(out, cc608.EncodeS334(cc608.Field2, f2[i]))
	}
	for i := n; i < len(f1); i++ {
		out = append(out, cc608.EncodeS334(cc608.Field1, f1[i]))
	}
	for i := n; i < len(f2); i++ {
		out = append(out, cc608.EncodeS334(cc608.Field2, f2[i]))
	}
	return out
}
