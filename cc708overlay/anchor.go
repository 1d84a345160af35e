package cc708overlay

// Placement is a resolved pixel rectangle for a window against a given
// video raster size (spec.md §4.6 "Anchor semantics").
type Placement struct {
	Left, Top int
	Width, Height int
}

// ResolvePlacement converts a window's screen_v/screen_h percentages and
// anchor_point into a top-left pixel offset for an image_width x
// image_height box within a videoWidth x videoHeight raster.
//
// v_anchor = screen_v * video_height / 100, and the anchor_point then
// decides which corner/edge/center of the image that point represents;
// h_anchor is the equivalent computation against screen_h and
// video_width.
func ResolvePlacement(w *Window, videoWidth, videoHeight int) Placement {
	vAnchor := w.ScreenV * videoHeight / 100
	hAnchor := w.ScreenH * videoWidth / 100

	left := hAnchor
	top := vAnchor

	switch w.AnchorPoint {
	case AnchorTL:
		// anchor point is the image's top-left; left, top unchanged.
	case AnchorTC:
		left -= w.ImageWidth / 2
	case AnchorTR:
		left -= w.ImageWidth
	case AnchorML:
		top -= w.ImageHeight / 2
	case AnchorC:
		left -= w.ImageWidth / 2
		top -= w.ImageHeight / 2
	case AnchorMR:
		left -= w.ImageWidth
		top -= w.ImageHeight / 2
	case AnchorBL:
		top -= w.ImageHeight
	case AnchorBC:
		left -= w.ImageWidth / 2
		top -= w.ImageHeight
	case AnchorBR:
		left -= w.ImageWidth
		top -= w.ImageHeight
	}

	left += w.HOffset
	top += w.VOffset

	left = clampInt(left, 0, maxInt0(videoWidth-w.ImageWidth))
	top = clampInt(top, 0, maxInt0(videoHeight-w.ImageHeight))

	return Placement{Left: left, Top: top, Width: w.ImageWidth, Height: w.ImageHeight}
}

// HOffsetForPos resolves the window's horizontal offset for the
// LEFT/CENTER/RIGHT/AUTO justification modes referenced in spec.md §4.6
// ("h_offset per LEFT/CENTER/RIGHT/AUTO"), where AUTO defers to the
// window's own 9-point anchor_point via ResolvePlacement instead.
func HOffsetForPos(pos WindowHPos, videoWidth, imageWidth int) int {
	switch pos {
	case HPosLeft:
		return 0
	case HPosCenter:
		return (videoWidth - imageWidth) / 2
	case HPosRight:
		return videoWidth - imageWidth
	default: // HPosAuto
		return 0
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxInt0(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
