package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/zsiec/mxfcap/bitslicer"
	"github.com/zsiec/mxfcap/ccconvert"
	"github.com/zsiec/mxfcap/cccombine"
	"github.com/zsiec/mxfcap/media"
	"github.com/zsiec/mxfcap/vbi"
)

func testSampling() vbi.SamplingParams {
	return vbi.SamplingParams{
		Format:           bitslicer.Gray8{},
		VideoStd:         vbi.StdNTSCM,
		SamplingRate:     14318180,
		SampleOffset:     100,
		SamplesPerLine:   1440,
		SampledLineRange: [2][2]int{{21, 21}, {284, 284}},
	}
}

// encodedLine21 builds one Caption525F1-modulated VBI line carrying
// payload, using the same bitslicer.Slicer construction vbi's own tests
// use to synthesize round-trippable fixtures.
func encodedLine21(t *testing.T, payload [2]byte) []byte {
	t.Helper()
	svc, ok := vbi.Lookup(vbi.Caption525F1)
	if !ok {
		t.Fatal("Caption525F1 not in service table")
	}
	params := bitslicer.Params{
		Format:         bitslicer.Gray8{},
		SamplingRate:   14318180,
		SampleOffset:   100,
		SamplesPerLine: 1440,
		CRIPattern:     svc.CRIFRCPattern,
		CRIMask:        svc.CRIFRCMask,
		CRIBits:        svc.CRIBits,
		CRIRate:        svc.CRIRate,
		CRIEnd:         1440,
		FRCPattern:     svc.CRIFRCPattern & ((1 << uint(svc.FRCBits)) - 1),
		FRCBits:        svc.FRCBits,
		PayloadBits:    svc.PayloadBits,
		PayloadRate:    svc.BitRate,
		Modulation:     svc.Modulation,
	}
	s, err := bitslicer.NewSlicer(params)
	if err != nil {
		t.Fatal(err)
	}
	line, ok := s.Encode(payload[:])
	if !ok {
		t.Fatal("Encode failed")
	}
	return line
}

type fakeSink struct {
	mu     sync.Mutex
	video  []*media.VideoFrame
	audio  []*media.AudioFrame
	order  []string
}

func (f *fakeSink) PushVideo(frame *media.VideoFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.video = append(f.video, frame)
	f.order = append(f.order, "video")
	return nil
}

func (f *fakeSink) PushAudio(frame *media.AudioFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, frame)
	f.order = append(f.order, "audio")
	return nil
}

func testConfig() Config {
	rate := ccconvert.Rate{Num: 30000, Den: 1001}
	return Config{
		Services:          vbi.Caption525F1,
		SamplingParams:    testSampling(),
		CaptureRate:       rate,
		EditRate:          rate,
		OutFormat:         ccconvert.FormatCCData,
		Mode:              cccombine.ModeSchedule,
		MaxScheduled:      8,
		MaxCEA608PerFrame: 1,
		MaxCCPPerFrame:    0,
	}
}

func TestPipelineAttachesDecodedCaption(t *testing.T) {
	sink := &fakeSink{}
	p, err := New(testConfig(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	line := encodedLine21(t, [2]byte{0x15, 0x2A})
	ctx := context.Background()

	go func() {
		_ = p.PushVideo(ctx, &media.VideoFrame{PTS: 0, Duration: 1, VBILines: map[int][]byte{21: line}})
		_ = p.PushVideo(ctx, &media.VideoFrame{PTS: 1, Duration: 1})
		p.CloseInputs()
	}()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.video) != 2 {
		t.Fatalf("len(video) = %d, want 2", len(sink.video))
	}
	// decodeCaptions buffers and schedules the decoded triplet before
	// CombineVideo runs for the same frame, so ModeSchedule's
	// takeScheduled pops it immediately: the caption lands on the frame
	// that carried the VBI line, and the second (VBI-less) frame gets a
	// padded canonical null.
	if len(sink.video[0].CaptionMeta) != 1 || sink.video[0].CaptionMeta[0].Data == nil {
		t.Fatalf("first frame CaptionMeta = %+v, want 1 real entry", sink.video[0].CaptionMeta)
	}
	if len(sink.video[1].CaptionMeta) != 1 || sink.video[1].CaptionMeta[0].Data != nil {
		t.Fatalf("second frame CaptionMeta = %+v, want 1 padded-null entry", sink.video[1].CaptionMeta)
	}

	stats := p.Stats()
	if stats.VideoForwarded != 2 {
		t.Fatalf("VideoForwarded = %d, want 2", stats.VideoForwarded)
	}
	if stats.CaptionsAttached != 1 {
		t.Fatalf("CaptionsAttached = %d, want 1", stats.CaptionsAttached)
	}
}

func TestPipelineForwardsAudioAndVideo(t *testing.T) {
	sink := &fakeSink{}
	p, err := New(testConfig(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := context.Background()

	go func() {
		_ = p.PushAudio(ctx, &media.AudioFrame{PTS: 0, Data: []byte{1, 2, 3}})
		_ = p.PushVideo(ctx, &media.VideoFrame{PTS: 0, Duration: 1})
		p.CloseInputs()
	}()

	if err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(sink.video) != 1 || len(sink.audio) != 1 {
		t.Fatalf("video=%d audio=%d, want 1 each", len(sink.video), len(sink.audio))
	}
}

func TestPipelineRunStopsOnContextCancel(t *testing.T) {
	sink := &fakeSink{}
	p, err := New(testConfig(), sink)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Run(ctx); err == nil {
		t.Fatal("expected Run to return ctx.Err() once cancelled")
	}
}
