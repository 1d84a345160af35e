package cc708overlay

import (
	"log/slog"

	"github.com/zsiec/mxfcap/cc708"
)

// Renderer decodes a stream of CEA-708 cc_data triplets into windowed
// text and publishes rasterized frames for a chosen service onto a
// DoubleBuffer (spec.md §4.6, §5 concurrency model).
type Renderer struct {
	DesiredService int
	VideoWidth     int
	VideoHeight    int

	assembler PacketAssembler
	service   *Service
	buffer    *DoubleBuffer
	log       *slog.Logger
}

// NewRenderer creates a Renderer for desiredService (1 = primary),
// publishing frames sized against videoWidth x videoHeight. log
// defaults to slog.Default() when nil, matching the teacher's
// constructor convention of an optional trailing logger argument.
func NewRenderer(desiredService, videoWidth, videoHeight int, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.Default()
	}
	return &Renderer{
		DesiredService: desiredService,
		VideoWidth:     videoWidth,
		VideoHeight:    videoHeight,
		service:        NewService(),
		buffer:         NewDoubleBuffer(),
		log:            log,
	}
}

// Buffer returns the DoubleBuffer frames are published to.
func (r *Renderer) Buffer() *DoubleBuffer { return r.buffer }

// PushTriplet feeds one CEA-708 CCP triplet. When it completes a DTVCC
// packet, the packet's commands for DesiredService are applied to the
// window state, any window with NeedsRedraw is rasterized, and a Frame
// is published.
func (r *Renderer) PushTriplet(t cc708.Triplet) error {
	packet, ok, err := r.assembler.Push(t)
	if err != nil {
		r.log.Warn("cc708overlay: dropping DTVCC packet", "error", err)
		return err
	}
	if !ok {
		return nil
	}
	r.applyPacket(packet)
	return nil
}

func (r *Renderer) applyPacket(packet []byte) {
	block, found := SelectService(packet, r.DesiredService)
	if !found {
		return
	}
	r.service.Run(block.Data)

	var rendered []RenderedWindow
	for i := range r.service.Windows {
		w := &r.service.Windows[i]
		if w.Deleted || !w.Visible {
			continue
		}
		if w.NeedsRedraw() {
			RenderWindow(w)
		}
		if len(w.TextImage) == 0 {
			continue
		}
		// ResolvePlacement works in pixels; the image is glyph cells.
		px := *w
		px.ImageWidth *= glyphWidth
		px.ImageHeight *= glyphHeight
		placement := ResolvePlacement(&px, r.VideoWidth, r.VideoHeight)
		rendered = append(rendered, RenderedWindow{
			Placement: placement,
			AYUV:      RasterizeToAYUV(w),
		})
	}

	r.buffer.Publish(&Frame{Windows: rendered})
}
