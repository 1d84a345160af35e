package cccombine

import (
	"testing"
	"time"

	"github.com/zsiec/mxfcap/ccconvert"
)

func TestExtractPreservesTiming(t *testing.T) {
	e := NewExtractor(false)
	frame := VideoFrame{
		PTS: 10 * time.Millisecond, DTS: 9 * time.Millisecond, Duration: 33 * time.Millisecond,
		CaptionMeta: []CaptionMeta{{Type: ccconvert.FormatCCData, Data: []byte{1, 2}}},
	}
	forwarded, captions, gap := e.Extract(frame)
	if gap != nil {
		t.Fatalf("unexpected gap on first frame: %+v", gap)
	}
	if len(captions) != 1 {
		t.Fatalf("len(captions) = %d, want 1", len(captions))
	}
	if captions[0].PTS != frame.PTS || captions[0].DTS != frame.DTS || captions[0].Duration != frame.Duration {
		t.Fatalf("timing not preserved: %+v", captions[0])
	}
	if len(forwarded.CaptionMeta) != 1 {
		t.Fatal("forwarded video should keep caption meta when StripCaptionMeta is false")
	}
}

func TestExtractStripsCaptionMeta(t *testing.T) {
	e := NewExtractor(true)
	frame := VideoFrame{
		PTS:         10 * time.Millisecond,
		CaptionMeta: []CaptionMeta{{Type: ccconvert.FormatCCData, Data: []byte{1}}},
	}
	forwarded, _, _ := e.Extract(frame)
	if len(forwarded.CaptionMeta) != 0 {
		t.Fatal("StripCaptionMeta should clear forwarded video's caption meta")
	}
}

func TestExtractEmitsGapOnMissingCaptions(t *testing.T) {
	e := NewExtractor(false)
	e.Extract(VideoFrame{PTS: 0, CaptionMeta: []CaptionMeta{{Type: ccconvert.FormatCCData}}})
	_, _, gap := e.Extract(VideoFrame{PTS: 33 * time.Millisecond})
	if gap == nil {
		t.Fatal("expected a gap event for a frame with no captions")
	}
	if gap.Start != 0 || gap.End != 33*time.Millisecond {
		t.Fatalf("gap = %+v, want {0, 33ms}", gap)
	}
}
