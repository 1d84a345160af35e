package mxf_test

import (
	"github.com/zsiec/mxfcap/internal/videoformat"
	"github.com/zsiec/mxfcap/mxf"
)

// avcWriter is a test-only EssenceElementWriter for AVC (H.264) picture
// essence, used to exercise the muxer end to end. spec.md §1 explicitly
// places concrete per-codec writers out of scope for the production
// package; this one exists only so mxf's tests can drive a realistic
// Push/Eos sequence.
type avcWriter struct {
	descriptor *mxf.CDCIDescriptor
}

func newAVCWriter() *avcWriter { return &avcWriter{} }

func (w *avcWriter) GetDescriptor(caps mxf.Caps) (mxf.EssenceDescriptor, error) {
	info := videoformat.PictureInfo{Width: 1280, Height: 720}
	if sps, ok := caps["sps"].([]byte); ok {
		if parsed, err := videoformat.ParseH264SPS(sps); err == nil {
			info = parsed
		}
	}
	w.descriptor = mxf.NewCDCIDescriptor(mxf.ULEssenceContainerAVCFrameWrapped)
	w.descriptor.SampleRate = mxf.Rational{Numerator: 25, Denominator: 1}
	w.descriptor.StoredWidth = info.Width
	w.descriptor.StoredHeight = info.Height
	w.descriptor.AspectRatio = mxf.Rational{Numerator: 16, Denominator: 9}
	w.descriptor.HorizontalSubsampling = 2
	w.descriptor.VerticalSubsampling = 1
	w.descriptor.ComponentDepth = 8
	return w.descriptor, nil
}

func (w *avcWriter) GetEditRate(desc mxf.EssenceDescriptor, caps mxf.Caps, first *mxf.EssenceBuffer) (mxf.Rational, error) {
	return mxf.Rational{Numerator: 25, Denominator: 1}, nil
}

func (w *avcWriter) GetTrackNumberTemplate(desc mxf.EssenceDescriptor, caps mxf.Caps) uint32 {
	return 0x15020000
}

func (w *avcWriter) UpdateDescriptor(desc mxf.EssenceDescriptor, caps mxf.Caps, buf *mxf.EssenceBuffer) {
}

func (w *avcWriter) Write(buf *mxf.EssenceBuffer, flush bool) (mxf.WriteResult, error) {
	if buf == nil {
		return mxf.WriteResult{}, nil
	}
	return mxf.WriteResult{Complete: true, EditUnit: videoformat.AnnexBToLengthPrefixed([][]byte{buf.Data})}, nil
}

func (w *avcWriter) DataDefinitionUL() mxf.UL { return mxf.ULDataDefinitionPicture }

func init() {
	mxf.Register("test/avc", func() mxf.EssenceElementWriter { return newAVCWriter() })
}
