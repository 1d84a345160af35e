// Package videoformat extracts the structural picture parameters (width,
// height, profile/level) an MXF essence descriptor needs from a codec's
// own bitstream headers, and reframes Annex-B NAL streams the way an MXF
// essence-element-writer's edit-unit buffer expects them. Adapted from
// zsiec-prism's internal/demux SPS parsers and internal/moq/format.go's
// Annex-B reframer, redirected from building a MoQ decoder-config box to
// feeding mxf's descriptor construction.
package videoformat

import (
	"encoding/binary"
	"errors"
)

// H264ProfileIDC values that carry the extended chroma-format fields in
// their SPS (ITU-T H.264 §7.3.2.1.1).
var h264HighProfiles = map[uint]bool{
	100: true, 110: true, 122: true, 244: true, 44: true,
	83: true, 86: true, 118: true, 128: true, 138: true, 139: true, 134: true,
}

// PictureInfo is the subset of an SPS this package recovers, enough to
// populate a CDCIDescriptor's StoredWidth/StoredHeight/AspectRatio.
type PictureInfo struct {
	Width       int
	Height      int
	ProfileIDC  byte
	LevelIDC    byte
	AspectRatioWidth  int
	AspectRatioHeight int
}

var errTruncated = errors.New("videoformat: SPS truncated")

// expGolombReader reads unsigned/signed Exp-Golomb codes MSB-first, the
// entropy coding H.264/H.265 SPS fields use.
type expGolombReader struct {
	data []byte
	pos  int // bit position
}

func newExpGolombReader(data []byte) *expGolombReader {
	return &expGolombReader{data: removeEmulationPrevention(data)}
}

func (r *expGolombReader) bit() (uint, error) {
	if r.pos >= len(r.data)*8 {
		return 0, errTruncated
	}
	byteIdx := r.pos / 8
	bitIdx := 7 - r.pos%8
	r.pos++
	return uint((r.data[byteIdx] >> uint(bitIdx)) & 1), nil
}

func (r *expGolombReader) bits(n int) (uint, error) {
	var v uint
	for i := 0; i < n; i++ {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | b
	}
	return v, nil
}

func (r *expGolombReader) ue() (uint, error) {
	leadingZeros := 0
	for {
		b, err := r.bit()
		if err != nil {
			return 0, err
		}
		if b == 1 {
			break
		}
		leadingZeros++
		if leadingZeros > 31 {
			return 0, errTruncated
		}
	}
	if leadingZeros == 0 {
		return 0, nil
	}
	rest, err := r.bits(leadingZeros)
	if err != nil {
		return 0, err
	}
	return (1 << uint(leadingZeros)) - 1 + rest, nil
}

func (r *expGolombReader) se() (int, error) {
	v, err := r.ue()
	if err != nil {
		return 0, err
	}
	if v%2 == 0 {
		return -int(v / 2), nil
	}
	return int((v + 1) / 2), nil
}

func (r *expGolombReader) skipScalingList(size int) error {
	lastScale, nextScale := 8, 8
	for i := 0; i < size; i++ {
		if nextScale != 0 {
			delta, err := r.se()
			if err != nil {
				return err
			}
			nextScale = (lastScale + delta + 256) % 256
		}
		if nextScale != 0 {
			lastScale = nextScale
		}
	}
	return nil
}

func removeEmulationPrevention(data []byte) []byte {
	out := make([]byte, 0, len(data))
	zeroRun := 0
	for _, b := range data {
		if zeroRun >= 2 && b == 0x03 {
			zeroRun = 0
			continue
		}
		if b == 0 {
			zeroRun++
		} else {
			zeroRun = 0
		}
		out = append(out, b)
	}
	return out
}

// ParseH264SPS extracts PictureInfo from an H.264 SPS NAL unit (including
// its 1-byte NAL header, without an Annex-B start code).
func ParseH264SPS(nalu []byte) (PictureInfo, error) {
	if len(nalu) < 4 {
		return PictureInfo{}, errTruncated
	}
	r := newExpGolombReader(nalu[1:])

	profileIDC, err := r.bits(8)
	if err != nil {
		return PictureInfo{}, err
	}
	if _, err := r.bits(8); err != nil { // constraint flag byte
		return PictureInfo{}, err
	}
	levelIDC, err := r.bits(8)
	if err != nil {
		return PictureInfo{}, err
	}
	if _, err := r.ue(); err != nil { // seq_parameter_set_id
		return PictureInfo{}, err
	}

	if h264HighProfiles[profileIDC] {
		chromaFormatIDC, err := r.ue()
		if err != nil {
			return PictureInfo{}, err
		}
		if chromaFormatIDC == 3 {
			if _, err := r.bit(); err != nil {
				return PictureInfo{}, err
			}
		}
		if _, err := r.ue(); err != nil { // bit_depth_luma_minus8
			return PictureInfo{}, err
		}
		if _, err := r.ue(); err != nil { // bit_depth_chroma_minus8
			return PictureInfo{}, err
		}
		if _, err := r.bit(); err != nil { // qpprime_y_zero_transform_bypass_flag
			return PictureInfo{}, err
		}
		seqScalingPresent, err := r.bit()
		if err != nil {
			return PictureInfo{}, err
		}
		if seqScalingPresent == 1 {
			count := 8
			if chromaFormatIDC == 3 {
				count = 12
			}
			for i := 0; i < count; i++ {
				present, err := r.bit()
				if err != nil {
					return PictureInfo{}, err
				}
				if present == 1 {
					size := 16
					if i >= 6 {
						size = 64
					}
					if err := r.skipScalingList(size); err != nil {
						return PictureInfo{}, err
					}
				}
			}
		}
	}

	if _, err := r.ue(); err != nil { // log2_max_frame_num_minus4
		return PictureInfo{}, err
	}
	picOrderCntType, err := r.ue()
	if err != nil {
		return PictureInfo{}, err
	}
	switch picOrderCntType {
	case 0:
		if _, err := r.ue(); err != nil {
			return PictureInfo{}, err
		}
	case 1:
		if _, err := r.bit(); err != nil {
			return PictureInfo{}, err
		}
		if _, err := r.se(); err != nil {
			return PictureInfo{}, err
		}
		if _, err := r.se(); err != nil {
			return PictureInfo{}, err
		}
		numRefFrames, err := r.ue()
		if err != nil {
			return PictureInfo{}, err
		}
		for i := uint(0); i < numRefFrames; i++ {
			if _, err := r.se(); err != nil {
				return PictureInfo{}, err
			}
		}
	}
	if _, err := r.ue(); err != nil { // max_num_ref_frames
		return PictureInfo{}, err
	}
	if _, err := r.bit(); err != nil { // gaps_in_frame_num_value_allowed_flag
		return PictureInfo{}, err
	}
	widthInMbs, err := r.ue()
	if err != nil {
		return PictureInfo{}, err
	}
	heightInMapUnits, err := r.ue()
	if err != nil {
		return PictureInfo{}, err
	}
	frameMbsOnly, err := r.bit()
	if err != nil {
		return PictureInfo{}, err
	}
	heightMultiplier := uint(1)
	if frameMbsOnly == 0 {
		heightMultiplier = 2
		if _, err := r.bit(); err != nil { // mb_adaptive_frame_field_flag
			return PictureInfo{}, err
		}
	}
	if _, err := r.bit(); err != nil { // direct_8x8_inference_flag
		return PictureInfo{}, err
	}
	cropPresent, err := r.bit()
	if err != nil {
		return PictureInfo{}, err
	}
	var cropLeft, cropRight, cropTop, cropBottom uint
	if cropPresent == 1 {
		if cropLeft, err = r.ue(); err != nil {
			return PictureInfo{}, err
		}
		if cropRight, err = r.ue(); err != nil {
			return PictureInfo{}, err
		}
		if cropTop, err = r.ue(); err != nil {
			return PictureInfo{}, err
		}
		if cropBottom, err = r.ue(); err != nil {
			return PictureInfo{}, err
		}
	}

	width := int((widthInMbs+1)*16) - int((cropLeft+cropRight)*2)
	height := int((heightInMapUnits+1)*16*heightMultiplier) - int((cropTop+cropBottom)*2)

	return PictureInfo{
		Width:             width,
		Height:            height,
		ProfileIDC:        byte(profileIDC),
		LevelIDC:          byte(levelIDC),
		AspectRatioWidth:  width,
		AspectRatioHeight: height,
	}, nil
}

// AnnexBToLengthPrefixed reframes a sequence of Annex-B NAL units (each
// optionally prefixed with a 3- or 4-byte start code) into
// length-prefixed form: a 4-byte big-endian length followed by the raw
// NAL payload, repeated per unit. This is the AVC sample format MXF's
// GC-wrapped AVC essence elements use for each edit unit's payload.
func AnnexBToLengthPrefixed(nalus [][]byte) []byte {
	total := 0
	stripped := make([][]byte, len(nalus))
	for i, n := range nalus {
		s := stripStartCode(n)
		stripped[i] = s
		total += 4 + len(s)
	}
	out := make([]byte, 0, total)
	for _, s := range stripped {
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
		out = append(out, lenBuf[:]...)
		out = append(out, s...)
	}
	return out
}

func stripStartCode(nalu []byte) []byte {
	if len(nalu) >= 4 && nalu[0] == 0 && nalu[1] == 0 && nalu[2] == 0 && nalu[3] == 1 {
		return nalu[4:]
	}
	if len(nalu) >= 3 && nalu[0] == 0 && nalu[1] == 0 && nalu[2] == 1 {
		return nalu[3:]
	}
	return nalu
}
