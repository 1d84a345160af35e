package cc708overlay

import "testing"

func TestResolvePlacementTopLeft(t *testing.T) {
	w := &Window{AnchorPoint: AnchorTL, ScreenV: 0, ScreenH: 0, ImageWidth: 100, ImageHeight: 50}
	p := ResolvePlacement(w, 1920, 1080)
	if p.Left != 0 || p.Top != 0 {
		t.Fatalf("placement = %+v, want (0,0)", p)
	}
}

func TestResolvePlacementCenter(t *testing.T) {
	w := &Window{AnchorPoint: AnchorC, ScreenV: 50, ScreenH: 50, ImageWidth: 100, ImageHeight: 100}
	p := ResolvePlacement(w, 1000, 1000)
	if p.Left != 450 || p.Top != 450 {
		t.Fatalf("placement = %+v, want (450,450)", p)
	}
}

func TestResolvePlacementClampsToVideoBounds(t *testing.T) {
	w := &Window{AnchorPoint: AnchorTL, ScreenV: 0, ScreenH: 0, ImageWidth: 5000, ImageHeight: 5000}
	p := ResolvePlacement(w, 1000, 1000)
	if p.Left < 0 || p.Top < 0 {
		t.Fatalf("placement should clamp into non-negative range, got %+v", p)
	}
}

func TestHOffsetForPos(t *testing.T) {
	if got := HOffsetForPos(HPosLeft, 1000, 200); got != 0 {
		t.Fatalf("LEFT = %d, want 0", got)
	}
	if got := HOffsetForPos(HPosCenter, 1000, 200); got != 400 {
		t.Fatalf("CENTER = %d, want 400", got)
	}
	if got := HOffsetForPos(HPosRight, 1000, 200); got != 800 {
		t.Fatalf("RIGHT = %d, want 800", got)
	}
}
