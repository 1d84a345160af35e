// Package ccconvert transcodes among the four CEA-608/708 CC wire
// formats, rescaling framerate and timecode along the way (spec.md
// §4.4).
package ccconvert

import (
	"fmt"

	"github.com/zsiec/mxfcap/cc608"
	"github.com/zsiec/mxfcap/cc708"
)

// Format identifies one of the five CC wire representations named in
// spec.md §4.4's 16-direction matrix. Raw608F1/Raw608F2 are the same
// byte layout (spec.md §3: field association is format-tag driven, so
// the two directions are distinguished by which field a converter is
// configured to read/write).
type Format int

const (
	FormatRaw608F1 Format = iota
	FormatRaw608F2
	FormatS334
	FormatCCData
	FormatCDP
)

func (f Format) String() string {
	switch f {
	case FormatRaw608F1:
		return "raw608-f1"
	case FormatRaw608F2:
		return "raw608-f2"
	case FormatS334:
		return "s334-1a"
	case FormatCCData:
		return "cc-data"
	case FormatCDP:
		return "cdp"
	default:
		return "unknown"
	}
}

// ToTriplets normalizes data in the given wire format to the canonical
// cc_data triplet representation every converter direction pivots
// through.
func ToTriplets(format Format, data []byte) ([]cc708.Triplet, error) {
	switch format {
	case FormatRaw608F1, FormatRaw608F2:
		typ := cc708.CCType608F1
		if format == FormatRaw608F2 {
			typ = cc708.CCType608F2
		}
		pairs := cc608.DecodeRaw608(data)
		out := make([]cc708.Triplet, 0, len(pairs))
		for _, p := range pairs {
			out = append(out, cc708.Triplet{Valid: true, Type: typ, B1: p[0], B2: p[1]})
		}
		return out, nil
	case FormatS334:
		triplets := cc608.DecodeS334Stream(data)
		out := make([]cc708.Triplet, 0, len(triplets))
		for _, t := range triplets {
			field, p := cc608.DecodeS334(t)
			typ := cc708.CCType608F1
			if field == cc608.Field2 {
				typ = cc708.CCType608F2
			}
			out = append(out, cc708.Triplet{Valid: true, Type: typ, B1: p[0], B2: p[1]})
		}
		return out, nil
	case FormatCCData:
		return cc708.DecodeTriplets(data), nil
	case FormatCDP:
		cdp, err := cc708.Decode(data)
		if err != nil {
			return nil, err
		}
		return cdp.Triplets, nil
	default:
		return nil, fmt.Errorf("ccconvert: unknown input format %d", format)
	}
}

// FromTriplets serializes the canonical triplet representation into the
// given wire format. cdpCtx supplies the CDP-only fields (fps, mode,
// sequence, timecode) and is ignored by every other format.
func FromTriplets(format Format, triplets []cc708.Triplet, cdpCtx *cc708.CDP) ([]byte, error) {
	switch format {
	case FormatRaw608F1, FormatRaw608F2:
		want := cc708.CCType608F1
		if format == FormatRaw608F2 {
			want = cc708.CCType608F2
		}
		var pairs []cc608.Pair
		for _, t := range triplets {
			if t.Type == want {
				pairs = append(pairs, cc608.Pair{t.B1, t.B2})
			}
		}
		return cc608.EncodeRaw608(pairs), nil
	case FormatS334:
		var fields []cc608.Field
		var pairs []cc608.Pair
		for _, t := range triplets {
			switch t.Type {
			case cc708.CCType608F1:
				fields = append(fields, cc608.Field1)
				pairs = append(pairs, cc608.Pair{t.B1, t.B2})
			case cc708.CCType608F2:
				fields = append(fields, cc608.Field2)
				pairs = append(pairs, cc608.Pair{t.B1, t.B2})
			}
		}
		return cc608.EncodeS334Stream(fields, pairs), nil
	case FormatCCData:
		return cc708.EncodeTriplets(triplets), nil
	case FormatCDP:
		if cdpCtx == nil {
			return nil, fmt.Errorf("ccconvert: CDP output requires a CDP context")
		}
		c := *cdpCtx
		c.Triplets = triplets
		return c.Encode()
	default:
		return nil, fmt.Errorf("ccconvert: unknown output format %d", format)
	}
}
