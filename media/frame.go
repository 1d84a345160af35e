// Package media defines the frame types that flow through this module's
// VBI/closed-caption pipeline and on to the MXF muxer. Adapted from
// zsiec-prism/media/frame.go's VideoFrame/AudioFrame (which carried
// demuxed elementary-stream data toward a MoQ relay) to instead carry
// raw captured VBI line samples on the way in, and attached caption
// metadata plus essence bytes on the way out to an mxf.Pad.
package media

import "github.com/zsiec/mxfcap/cccombine"

// Buffer-size constants for the channels pipeline.Pipeline multiplexes
// over, kept at the same values as zsiec-prism/media/frame.go's
// VideoBufferSize/AudioBufferSize/CaptionBufferSize.
const (
	VideoBufferSize   = 60
	AudioBufferSize   = 120
	CaptionBufferSize = 30
)

// VideoFrame is one video frame as it enters the pipeline: timing and
// interlace/keyframe flags the Combiner needs, the raw captured VBI line
// samples the vbi.Decoder scans, and the compressed picture essence an
// mxf.EssenceElementWriter will consume. CaptionMeta starts nil and is
// filled in by the pipeline's Combiner stage before the frame is handed
// to the muxer.
type VideoFrame struct {
	PTS, DTS   int64 // edit-rate ticks
	Duration   int64 // edit-rate ticks
	IsKeyframe bool
	Interlaced bool

	// VBILines maps captured analog line number to that line's raw
	// sample bytes, in the shape vbi.Decoder.Decode expects. Nil for
	// essence with no accompanying VBI capture.
	VBILines map[int][]byte

	Essence       []byte
	SPS, PPS, VPS []byte
	Codec         string

	CaptionMeta []cccombine.CaptionMeta
}

// AudioFrame is one audio frame, carried through the pipeline unchanged
// and handed to its own mxf.EssenceElementWriter.
type AudioFrame struct {
	PTS        int64 // edit-rate ticks
	Data       []byte
	SampleRate int
	Channels   int
	TrackIndex int
}
