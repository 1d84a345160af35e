package mxf_test

import "github.com/zsiec/mxfcap/mxf"

// pcmWriter is a test-only EssenceElementWriter for uncompressed PCM
// sound essence.
type pcmWriter struct {
	descriptor *mxf.GenericSoundDescriptor
}

func newPCMWriter() *pcmWriter { return &pcmWriter{} }

func (w *pcmWriter) GetDescriptor(caps mxf.Caps) (mxf.EssenceDescriptor, error) {
	w.descriptor = mxf.NewGenericSoundDescriptor(mxf.ULEssenceContainerPCMFrameWrapped)
	w.descriptor.SampleRate = mxf.Rational{Numerator: 25, Denominator: 1}
	w.descriptor.AudioSamplingRate = mxf.Rational{Numerator: 48000, Denominator: 1}
	w.descriptor.Channels = 2
	w.descriptor.QuantizationBits = 16
	return w.descriptor, nil
}

func (w *pcmWriter) GetEditRate(desc mxf.EssenceDescriptor, caps mxf.Caps, first *mxf.EssenceBuffer) (mxf.Rational, error) {
	return mxf.Rational{Numerator: 25, Denominator: 1}, nil
}

func (w *pcmWriter) GetTrackNumberTemplate(desc mxf.EssenceDescriptor, caps mxf.Caps) uint32 {
	return 0x16020000
}

func (w *pcmWriter) UpdateDescriptor(desc mxf.EssenceDescriptor, caps mxf.Caps, buf *mxf.EssenceBuffer) {
}

func (w *pcmWriter) Write(buf *mxf.EssenceBuffer, flush bool) (mxf.WriteResult, error) {
	if buf == nil {
		return mxf.WriteResult{}, nil
	}
	return mxf.WriteResult{Complete: true, EditUnit: buf.Data}, nil
}

func (w *pcmWriter) DataDefinitionUL() mxf.UL { return mxf.ULDataDefinitionSound }

func init() {
	mxf.Register("test/pcm", func() mxf.EssenceElementWriter { return newPCMWriter() })
}
