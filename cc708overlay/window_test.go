package cc708overlay

import "testing"

func TestDispatchDefineAndDisplayWindow(t *testing.T) {
	s := NewService()
	// DefineWindow0: visible=1, anchor_point=0/screen_v=0, screen_h=50, width=10, height=2, justify=0
	s.Run([]byte{cmdDefineWindow0, 0x01, 0x00, 50, 10 - 1, 2 - 1, 0x00})
	w := &s.Windows[0]
	if !w.Visible || w.Deleted {
		t.Fatalf("window state after define: %+v", w)
	}
	if w.ImageWidth != 10 || w.ImageHeight != 2 {
		t.Fatalf("image size = %dx%d, want 10x2", w.ImageWidth, w.ImageHeight)
	}
}

func TestDispatchTextAppendsToCurrentWindow(t *testing.T) {
	s := NewService()
	s.Run([]byte{cmdDefineWindow0, 0x01, 0x00, 0, 9, 0, 0x00})
	s.Run([]byte{'H', 'I'})
	w := &s.Windows[0]
	if len(w.text) == 0 || string(w.text[0][:2]) != "HI" {
		t.Fatalf("window text = %v, want HI", w.text)
	}
}

func TestDispatchHideAndToggleWindows(t *testing.T) {
	s := NewService()
	s.Run([]byte{cmdDefineWindow0, 0x01, 0, 0, 9, 0, 0})
	if !s.Windows[0].Visible {
		t.Fatal("window 0 should start visible")
	}
	s.Run([]byte{cmdHideWindows, 0x01})
	if s.Windows[0].Visible {
		t.Fatal("window 0 should be hidden")
	}
	s.Run([]byte{cmdToggleWindows, 0x01})
	if !s.Windows[0].Visible {
		t.Fatal("toggle should re-show window 0")
	}
}

func TestDispatchDeleteWindowsMarksDeleted(t *testing.T) {
	s := NewService()
	s.Run([]byte{cmdDefineWindow0, 0x01, 0, 0, 9, 0, 0})
	s.Run([]byte{cmdDeleteWindows, 0x01})
	if !s.Windows[0].Deleted || s.Windows[0].Visible {
		t.Fatalf("window state after delete: %+v", s.Windows[0])
	}
}

func TestDispatchSetPenColorAndLocation(t *testing.T) {
	s := NewService()
	s.Run([]byte{cmdDefineWindow0, 0x01, 0, 0, 9, 0, 0})
	s.Run([]byte{cmdSetPenLocation, 1, 2})
	w := &s.Windows[0]
	if w.penRow != 1 || w.penCol != 2 {
		t.Fatalf("pen location = (%d,%d), want (1,2)", w.penRow, w.penCol)
	}
	s.Run([]byte{cmdSetPenColor, 0x3F, 0x00})
	if w.PenColor.FGColor&0x00FFFFFF != 0x00FFFFFF {
		t.Fatalf("FGColor = %#x, want full white", w.PenColor.FGColor)
	}
}

func TestNeedsRedraw(t *testing.T) {
	w := &Window{Visible: true, Deleted: false, Updated: true}
	if !w.NeedsRedraw() {
		t.Fatal("expected redraw needed")
	}
	w.Deleted = true
	if w.NeedsRedraw() {
		t.Fatal("deleted window should not need redraw")
	}
}
