package cc708overlay

// glyphWidth and glyphHeight are the fixed cell size used to rasterize
// one character of window text (spec.md §4.6 gives no glyph source, so
// each cell is rendered as a solid block of the pen foreground color —
// sufficient to exercise placement, compositing and format conversion).
const (
	glyphWidth  = 16
	glyphHeight = 24
)

// RGBA is a single pixel's color channels and alpha. It holds
// premultiplied values when read from or written to Window.TextImage
// (stored there in A, R, G, B byte order; spec.md §4.6 "Rasterization":
// "pre-multiplied ARGB") and straight values after Unpremultiply.
type RGBA struct {
	R, G, B, A byte
}

// RenderWindow rasterizes w's text grid into a premultiplied-ARGB
// TextImage sized ImageWidth x ImageHeight (in glyph cells), using
// PenColor.FGColor for glyph pixels and BGColor for the cell background.
func RenderWindow(w *Window) {
	width := w.ImageWidth * glyphWidth
	height := w.ImageHeight * glyphHeight
	img := make([]byte, width*height*4)

	bg := unpackARGB(w.PenColor.BGColor)
	fg := unpackARGB(w.PenColor.FGColor)

	for row := 0; row < w.ImageHeight; row++ {
		var line []rune
		if row < len(w.text) {
			line = w.text[row]
		}
		for col := 0; col < w.ImageWidth; col++ {
			px := bg
			if col < len(line) && line[col] != ' ' && line[col] != 0 {
				px = fg
			}
			paintCell(img, width, col*glyphWidth, row*glyphHeight, glyphWidth, glyphHeight, premultiply(px))
		}
	}

	w.TextImage = img
	w.Updated = false
}

func paintCell(img []byte, stride, x, y, w, h int, px RGBA) {
	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			idx := ((y+row)*stride + (x + col)) * 4
			if idx+4 > len(img) {
				continue
			}
			img[idx+0] = px.A
			img[idx+1] = px.R
			img[idx+2] = px.G
			img[idx+3] = px.B
		}
	}
}

func unpackARGB(v uint32) RGBA {
	return RGBA{
		A: byte(v >> 24),
		R: byte(v >> 16),
		G: byte(v >> 8),
		B: byte(v),
	}
}

// premultiply scales R,G,B by A/255, matching the TextImage encoding
// produced by a premultiplied-alpha compositor.
func premultiply(px RGBA) RGBA {
	a := int(px.A)
	return RGBA{
		R: byte(int(px.R) * a / 255),
		G: byte(int(px.G) * a / 255),
		B: byte(int(px.B) * a / 255),
		A: px.A,
	}
}

// Unpremultiply reverses premultiplication: r' = (r*255 + a/2) / a,
// clamped to 255, per spec.md §4.6. A fully transparent pixel (a == 0)
// has no recoverable color and is returned as black.
func Unpremultiply(px RGBA) RGBA {
	if px.A == 0 {
		return RGBA{A: 0}
	}
	a := int(px.A)
	return RGBA{
		R: clampByte((int(px.R)*255 + a/2) / a),
		G: clampByte((int(px.G)*255 + a/2) / a),
		B: clampByte((int(px.B)*255 + a/2) / a),
		A: px.A,
	}
}

func clampByte(v int) byte {
	if v > 255 {
		return 255
	}
	if v < 0 {
		return 0
	}
	return byte(v)
}

// AYUV is a single BT.601 Y'CbCr pixel with alpha, the wire format used
// when an overlay must be composited in a YUV-native pipeline (spec.md
// §4.6 "Rasterization": "BT.601 YUV conversion").
type AYUV struct {
	A, Y, U, V byte
}

// RGBAToAYUV converts a non-premultiplied RGBA pixel to BT.601 AYUV using
// full-range (JPEG-style, 0-255 for Y, U and V) coefficients.
func RGBAToAYUV(px RGBA) AYUV {
	r, g, b := float64(px.R), float64(px.G), float64(px.B)
	y := 0.299*r + 0.587*g + 0.114*b
	u := -0.168736*r - 0.331264*g + 0.5*b + 128
	v := 0.5*r - 0.418688*g - 0.081312*b + 128
	return AYUV{A: px.A, Y: clampByte(int(y + 0.5)), U: clampByte(int(u + 0.5)), V: clampByte(int(v + 0.5))}
}

// RasterizeToAYUV un-premultiplies w.TextImage and converts it to an AYUV
// buffer, the form the overlay compositor blends onto video.
func RasterizeToAYUV(w *Window) []byte {
	n := len(w.TextImage) / 4
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		px := RGBA{
			A: w.TextImage[i*4+0],
			R: w.TextImage[i*4+1],
			G: w.TextImage[i*4+2],
			B: w.TextImage[i*4+3],
		}
		ayuv := RGBAToAYUV(Unpremultiply(px))
		out[i*4+0] = ayuv.A
		out[i*4+1] = ayuv.Y
		out[i*4+2] = ayuv.U
		out[i*4+3] = ayuv.V
	}
	return out
}
