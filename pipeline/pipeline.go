// Package pipeline drives the Core A control flow: it owns a
// vbi.Decoder, routes sliced CEA-608/708 data into a ccconvert.Converter
// at the configured output cadence, and calls into a cccombine.Combiner
// to attach the resulting caption buffers to outgoing video frames. The
// channel topology and priority-drain Run loop are grounded on
// zsiec-prism/internal/pipeline/pipeline.go's demux-to-distribution
// fan-out, generalized here from forwarding independent video/audio/
// caption streams to a single video stream that gains its caption
// metadata along the way.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/zsiec/mxfcap/cc708"
	"github.com/zsiec/mxfcap/ccconvert"
	"github.com/zsiec/mxfcap/cccombine"
	"github.com/zsiec/mxfcap/media"
	"github.com/zsiec/mxfcap/vbi"
)

// Sink is the subset of an mxf.Muxer the pipeline forwards finished
// frames to. Accepting an interface here decouples the pipeline from the
// concrete Muxer type, making it testable with stubs, mirroring
// zsiec-prism/internal/pipeline.Broadcaster.
type Sink interface {
	PushVideo(frame *media.VideoFrame) error
	PushAudio(frame *media.AudioFrame) error
}

// Config configures one Pipeline instance.
type Config struct {
	Services       vbi.Set
	Strict         int
	SamplingParams vbi.SamplingParams

	// CaptureRate is the rate at which video frames (and therefore VBI
	// scans) arrive; EditRate is the rate captions are re-timed to
	// before attachment. Equal values mean no framerate rescaling.
	CaptureRate ccconvert.Rate
	EditRate    ccconvert.Rate
	OutFormat   ccconvert.Format
	CDPMode     cc708.Mode

	Mode         cccombine.Mode
	MaxScheduled int

	MaxCEA608PerFrame int
	MaxCCPPerFrame    int
}

// Pipeline bridges VBI-carrying video frames and plain audio frames
// through to a Sink. It reads from its own input channels and attaches
// combined caption metadata to each video frame before forwarding it.
type Pipeline struct {
	log  *slog.Logger
	cfg  Config
	sink Sink

	decoder   *vbi.Decoder
	converter *ccconvert.Converter
	combiner  *cccombine.Combiner

	videoIn chan *media.VideoFrame
	audioIn chan *media.AudioFrame

	videoForwarded   atomic.Int64
	audioForwarded   atomic.Int64
	captionsAttached atomic.Int64
	lastVideoPTS     atomic.Int64
	videoChanDepth   atomic.Int32
	audioChanDepth   atomic.Int32
}

// New creates a Pipeline, enrolling cfg.Services on a fresh vbi.Decoder
// and building the ccconvert.Converter that re-times decoded captions
// from CaptureRate to EditRate.
func New(cfg Config, sink Sink) (*Pipeline, error) {
	decoder := vbi.NewDecoder(cfg.SamplingParams)
	if _, err := decoder.AddServices(cfg.Services, cfg.Strict); err != nil {
		return nil, fmt.Errorf("pipeline: enrolling services: %w", err)
	}

	converter, err := ccconvert.NewConverter(
		ccconvert.FormatCCData, cfg.OutFormat,
		cfg.CaptureRate, cfg.EditRate,
		cfg.CDPMode, cfg.MaxCEA608PerFrame, cfg.MaxCCPPerFrame,
	)
	if err != nil {
		return nil, fmt.Errorf("pipeline: building converter: %w", err)
	}

	return &Pipeline{
		log:       slog.With("component", "pipeline"),
		cfg:       cfg,
		sink:      sink,
		decoder:   decoder,
		converter: converter,
		combiner:  cccombine.NewCombiner(cfg.Mode, cfg.MaxScheduled),
		videoIn:   make(chan *media.VideoFrame, media.VideoBufferSize),
		audioIn:   make(chan *media.AudioFrame, media.AudioBufferSize),
	}, nil
}

// PushVideo enqueues a video frame for the pipeline's Run loop, blocking
// until there is room or ctx is cancelled.
func (p *Pipeline) PushVideo(ctx context.Context, frame *media.VideoFrame) error {
	select {
	case p.videoIn <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PushAudio enqueues an audio frame for the pipeline's Run loop.
func (p *Pipeline) PushAudio(ctx context.Context, frame *media.AudioFrame) error {
	select {
	case p.audioIn <- frame:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseInputs closes both input channels, causing Run to drain and
// return once both are empty.
func (p *Pipeline) CloseInputs() {
	close(p.videoIn)
	close(p.audioIn)
}

// Stats is a point-in-time snapshot of forwarding counters and channel
// depths, mirroring zsiec-prism/internal/pipeline.Pipeline.PipelineDebug.
type Stats struct {
	VideoForwarded   int64
	AudioForwarded   int64
	CaptionsAttached int64
	QoSLoss          int64
	LastVideoPTS     int64
	VideoChanDepth   int
	AudioChanDepth   int
}

// Stats returns a snapshot of the pipeline's current counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		VideoForwarded:   p.videoForwarded.Load(),
		AudioForwarded:   p.audioForwarded.Load(),
		CaptionsAttached: p.captionsAttached.Load(),
		QoSLoss:          int64(p.combiner.QoSLossCount()),
		LastVideoPTS:     p.lastVideoPTS.Load(),
		VideoChanDepth:   int(p.videoChanDepth.Load()),
		AudioChanDepth:   int(p.audioChanDepth.Load()),
	}
}

// Run drains videoIn/audioIn until both channels close or ctx is
// cancelled. Video frames are always forwarded ahead of audio: they
// carry the VBI scan and caption-attachment work, and letting audio (a
// higher-frequency stream) starve that work under Go's random select
// scheduling would delay captions without bound.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		p.videoChanDepth.Store(int32(len(p.videoIn)))
		p.audioChanDepth.Store(int32(len(p.audioIn)))

		select {
		case frame, ok := <-p.videoIn:
			if !ok {
				return nil
			}
			if err := p.forwardVideo(frame); err != nil {
				return err
			}
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case frame, ok := <-p.videoIn:
			if !ok {
				return nil
			}
			if err := p.forwardVideo(frame); err != nil {
				return err
			}

		case frame, ok := <-p.audioIn:
			if !ok {
				return nil
			}
			if err := p.sink.PushAudio(frame); err != nil {
				return err
			}
			p.audioForwarded.Add(1)
		}
	}
}

// forwardVideo scans frame's VBI lines (if any) for caption data,
// attaches whatever the Combiner schedules for this frame's running
// time, and forwards the result to the sink.
func (p *Pipeline) forwardVideo(frame *media.VideoFrame) error {
	if len(frame.VBILines) > 0 {
		if err := p.decodeCaptions(frame); err != nil {
			return err
		}
	}

	combined := p.combiner.CombineVideo(cccombine.VideoFrame{
		PTS:        p.ticksToDuration(frame.PTS),
		DTS:        p.ticksToDuration(frame.DTS),
		Duration:   p.ticksToDuration(frame.Duration),
		Interlaced: frame.Interlaced,
	})
	frame.CaptionMeta = combined.CaptionMeta

	if err := p.sink.PushVideo(frame); err != nil {
		return err
	}
	p.videoForwarded.Add(1)
	p.lastVideoPTS.Store(frame.PTS)
	return nil
}

// decodeCaptions runs the bit-sliced VBI decode for one frame, re-frames
// the result as cc_data bytes, and pushes it through the Converter. Each
// output buffer the Converter's framerate grid produces this tick is
// queued on the Combiner at the frame's running time.
func (p *Pipeline) decodeCaptions(frame *media.VideoFrame) error {
	sliced := p.decoder.Decode(frame.VBILines)

	triplets := make([]cc708.Triplet, 0, len(sliced))
	for _, s := range sliced {
		if t, ok := slicedToTriplet(s); ok {
			triplets = append(triplets, t)
		}
	}

	outputs, err := p.converter.Push(cc708.EncodeTriplets(triplets), nil)
	if err != nil {
		return fmt.Errorf("pipeline: converting captions: %w", err)
	}

	runningTime := p.ticksToDuration(frame.PTS)
	for _, data := range outputs {
		meta := cccombine.CaptionMeta{Type: p.cfg.OutFormat, Field: cccombine.FieldNone, Data: data}
		if err := p.combiner.PushCaption(meta, runningTime); err != nil {
			p.log.Warn("caption buffer dropped", "error", err)
			continue
		}
		p.captionsAttached.Add(1)
	}
	return nil
}

// slicedToTriplet maps one decoded VBI line to the canonical cc_data
// triplet it carries. CEA-708's line-21 raw services sample the same
// two-byte payload shape as CEA-608; cc_valid/cc_type for those services
// are implicit in which service matched rather than carried in the
// payload, so a 708 match is framed directly as a valid CCPAdd triplet.
func slicedToTriplet(s vbi.Sliced) (cc708.Triplet, bool) {
	if len(s.Data) < 2 {
		return cc708.Triplet{}, false
	}
	switch s.ID {
	case vbi.Caption525F1, vbi.Caption625F1, vbi.ClosedCaption21:
		return cc708.Triplet{Valid: true, Type: cc708.CCType608F1, B1: s.Data[0], B2: s.Data[1]}, true
	case vbi.Caption525F2, vbi.Caption625F2:
		return cc708.Triplet{Valid: true, Type: cc708.CCType608F2, B1: s.Data[0], B2: s.Data[1]}, true
	case vbi.CEA708RawF1, vbi.CEA708RawF2:
		return cc708.Triplet{Valid: true, Type: cc708.CCType708CCPAdd, B1: s.Data[0], B2: s.Data[1]}, true
	default:
		return cc708.Triplet{}, false
	}
}

func (p *Pipeline) ticksToDuration(ticks int64) time.Duration {
	if p.cfg.EditRate.Num == 0 {
		return 0
	}
	return time.Duration(float64(ticks) * float64(p.cfg.EditRate.Den) / float64(p.cfg.EditRate.Num) * float64(time.Second))
}
