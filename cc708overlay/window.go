package cc708overlay

// C1 command codes, the real CEA-708-B code-space assignments for window
// management (0x80-0x9F):
const (
	cmdSetCurrentWindow0 = 0x80 // + window index 0-7 (0x80-0x87)
	cmdClearWindows      = 0x88
	cmdDisplayWindows    = 0x89
	cmdHideWindows       = 0x8A
	cmdToggleWindows     = 0x8B
	cmdDeleteWindows     = 0x8C
	cmdSetPenAttributes  = 0x90
	cmdSetPenColor       = 0x91
	cmdSetPenLocation    = 0x92
	cmdSetWindowAttrs    = 0x97
	cmdDefineWindow0     = 0x98 // + window index 0-7 (0x98-0x9F)
)

// AnchorPoint is one of the 9 CEA-708 window anchor positions (spec.md
// §3).
type AnchorPoint int

const (
	AnchorTL AnchorPoint = iota
	AnchorTC
	AnchorTR
	AnchorML
	AnchorC
	AnchorMR
	AnchorBL
	AnchorBC
	AnchorBR
)

// JustifyMode is the window's text justification.
type JustifyMode int

const (
	JustifyLeft JustifyMode = iota
	JustifyRight
	JustifyCenter
	JustifyFull
)

// PenAttributes and PenColor carry the subset of CEA-708 pen state this
// overlay renders: foreground/background color plus basic style flags.
type PenAttributes struct {
	Italics   bool
	Underline bool
}

type PenColor struct {
	FGColor, BGColor uint32 // 0xAARRGGBB
}

// Window mirrors spec.md §3's "Overlay Window" fields.
type Window struct {
	ID           int
	Visible      bool
	Deleted      bool
	Updated      bool
	AnchorPoint  AnchorPoint
	ScreenV      int // percent, 0-100
	ScreenH      int // percent, 0-100
	JustifyMode  JustifyMode
	ImageWidth   int
	ImageHeight  int
	VOffset      int
	HOffset      int
	TextImage    []byte // premultiplied ARGB, (ImageWidth*glyphWidth)*(ImageHeight*glyphHeight)*4 bytes
	Pen          PenAttributes
	PenColor     PenColor
	penRow       int
	penCol       int
	text         [][]rune // one slice per row
}

// NeedsRedraw reports the spec.md §4.6 redraw condition.
func (w *Window) NeedsRedraw() bool {
	return w.Visible && !w.Deleted && w.Updated
}

// WindowHPos selects how AUTO/LEFT/CENTER/RIGHT anchoring picks h_offset
// (spec.md §4.6 "Anchor semantics").
type WindowHPos int

const (
	HPosAuto WindowHPos = iota
	HPosLeft
	HPosCenter
	HPosRight
)

// Service is one CEA-708 service's decoded window state: up to 8 windows
// plus which one is "current" for subsequent pen/text commands (spec.md
// §4.6 "Window state machine").
type Service struct {
	Windows       [8]Window
	CurrentWindow int
	HPos          WindowHPos
}

// NewService creates a Service with all 8 window slots initialized.
func NewService() *Service {
	s := &Service{}
	for i := range s.Windows {
		s.Windows[i].ID = i
	}
	return s
}

func (s *Service) current() *Window { return &s.Windows[s.CurrentWindow] }

// windowBitmap decodes the 1-byte window bitmap argument shared by
// DisplayWindows/HideWindows/ToggleWindows/DeleteWindows/ClearWindows:
// bit i selects window i.
func windowBitmap(b byte, fn func(w *Window)) func(*Service) {
	return func(s *Service) {
		for i := 0; i < 8; i++ {
			if b&(1<<uint(i)) != 0 {
				fn(&s.Windows[i])
			}
		}
	}
}

// Dispatch decodes and applies one command from a service block's byte
// stream, returning the number of bytes consumed. Unrecognized bytes in
// 0x20-0x7F and 0x00-0x1F (G0/C0 text/control) are treated as a single
// text character appended to the current window's pen position.
func (s *Service) Dispatch(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	b := data[0]

	switch {
	case b >= cmdSetCurrentWindow0 && b <= cmdSetCurrentWindow0+7:
		s.CurrentWindow = int(b - cmdSetCurrentWindow0)
		return 1

	case b == cmdClearWindows:
		if len(data) < 2 {
			return len(data)
		}
		windowBitmap(data[1], func(w *Window) {
			w.text = nil
			w.Updated = true
		})(s)
		return 2

	case b == cmdDisplayWindows:
		if len(data) < 2 {
			return len(data)
		}
		windowBitmap(data[1], func(w *Window) {
			w.Visible = true
			w.Updated = true
		})(s)
		return 2

	case b == cmdHideWindows:
		if len(data) < 2 {
			return len(data)
		}
		windowBitmap(data[1], func(w *Window) {
			w.Visible = false
			w.Updated = true
		})(s)
		return 2

	case b == cmdToggleWindows:
		if len(data) < 2 {
			return len(data)
		}
		windowBitmap(data[1], func(w *Window) {
			w.Visible = !w.Visible
			w.Updated = true
		})(s)
		return 2

	case b == cmdDeleteWindows:
		if len(data) < 2 {
			return len(data)
		}
		windowBitmap(data[1], func(w *Window) {
			w.Deleted = true
			w.Visible = false
			w.Updated = true
		})(s)
		return 2

	case b >= cmdDefineWindow0 && b <= cmdDefineWindow0+7:
		return s.defineWindow(int(b-cmdDefineWindow0), data)

	case b == cmdSetWindowAttrs:
		return s.setWindowAttributes(data)

	case b == cmdSetPenAttributes:
		if len(data) < 3 {
			return len(data)
		}
		w := s.current()
		w.Pen.Italics = data[1]&0x01 != 0
		w.Pen.Underline = data[1]&0x02 != 0
		w.Updated = true
		return 3

	case b == cmdSetPenColor:
		if len(data) < 3 {
			return len(data)
		}
		w := s.current()
		w.PenColor.FGColor = rgbaFromByte(data[1])
		w.PenColor.BGColor = rgbaFromByte(data[2])
		w.Updated = true
		return 3

	case b == cmdSetPenLocation:
		if len(data) < 3 {
			return len(data)
		}
		w := s.current()
		w.penRow = int(data[1])
		w.penCol = int(data[2])
		w.Updated = true
		return 3

	default:
		s.appendChar(rune(b))
		return 1
	}
}

func rgbaFromByte(b byte) uint32 {
	r := (b >> 4 & 0x03) * 85
	g := (b >> 2 & 0x03) * 85
	bl := (b & 0x03) * 85
	return 0xFF000000 | uint32(r)<<16 | uint32(g)<<8 | uint32(bl)
}

// defineWindow parses the 6-byte DefineWindow argument block (spec.md
// §4.6: "sets anchor, justify, screen fractions").
func (s *Service) defineWindow(idx int, data []byte) int {
	const argLen = 7 // opcode + 6 argument bytes
	if len(data) < argLen {
		return len(data)
	}
	w := &s.Windows[idx]
	w.Visible = data[1]&0x01 != 0
	w.AnchorPoint = AnchorPoint(data[2] >> 4 & 0x0F % 9)
	w.ScreenV = int(data[2]&0x0F) * 100 / 15
	w.ScreenH = int(data[3]) * 100 / 99
	w.ImageWidth = int(data[4]&0x3F) + 1
	w.ImageHeight = int(data[5]&0x1F) + 1
	w.JustifyMode = JustifyMode(data[6] & 0x03)
	w.Deleted = false
	w.Updated = true
	s.CurrentWindow = idx
	return argLen
}

func (s *Service) setWindowAttributes(data []byte) int {
	const argLen = 5 // opcode + 4 argument bytes
	if len(data) < argLen {
		return len(data)
	}
	w := s.current()
	w.JustifyMode = JustifyMode(data[1] & 0x03)
	w.VOffset = int(data[2])
	w.HOffset = int(data[3])
	w.Updated = true
	return argLen
}

func (s *Service) appendChar(r rune) {
	w := s.current()
	for len(w.text) <= w.penRow {
		w.text = append(w.text, nil)
	}
	row := w.text[w.penRow]
	for len(row) <= w.penCol {
		row = append(row, ' ')
	}
	row[w.penCol] = r
	w.text[w.penRow] = row
	w.penCol++
	w.Updated = true
}

// Run dispatches every command in a service block's byte stream.
func (s *Service) Run(data []byte) {
	i := 0
	for i < len(data) {
		i += s.Dispatch(data[i:])
	}
}
