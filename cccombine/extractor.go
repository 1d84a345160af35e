package cccombine

import "time"

// ExtractedCaption is one caption buffer re-split onto the secondary
// output, carrying the timing of the video frame it came from (spec.md
// §4.5: "preserving PTS/DTS/duration/flags of the source video buffer").
type ExtractedCaption struct {
	Meta     CaptionMeta
	PTS, DTS time.Duration
	Duration time.Duration
}

// GapEvent marks a time range on the caption output with no caption data
// (spec.md §4.5: "emit a gap event for that time range").
type GapEvent struct {
	Start, End time.Duration
}

// Extractor implements spec.md §4.5's extractor invariants.
type Extractor struct {
	StripCaptionMeta bool

	havePrevPTS bool
	prevPTS     time.Duration
}

// NewExtractor creates an Extractor.
func NewExtractor(stripCaptionMeta bool) *Extractor {
	return &Extractor{StripCaptionMeta: stripCaptionMeta}
}

// Extract splits frame's attached caption metas onto the secondary
// output, optionally stripping them from the forwarded video, and
// returns a gap event when the frame carries no captions and a previous
// PTS is known.
func (e *Extractor) Extract(frame VideoFrame) (forwarded VideoFrame, captions []ExtractedCaption, gap *GapEvent) {
	for _, m := range frame.CaptionMeta {
		captions = append(captions, ExtractedCaption{
			Meta:     m,
			PTS:      frame.PTS,
			DTS:      frame.DTS,
			Duration: frame.Duration,
		})
	}

	if len(frame.CaptionMeta) == 0 && e.havePrevPTS {
		gap = &GapEvent{Start: e.prevPTS, End: frame.PTS}
	}

	e.prevPTS = frame.PTS
	e.havePrevPTS = true

	forwarded = frame
	if e.StripCaptionMeta {
		forwarded.CaptionMeta = nil
	}
	return forwarded, captions, gap
}
