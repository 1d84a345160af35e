package cccombine

import (
	"testing"
	"time"

	"github.com/zsiec/mxfcap/ccconvert"
)

func TestCombineVideoScheduleModePadsOnUnderrun(t *testing.T) {
	c := NewCombiner(ModeSchedule, 4)
	// The first caption fixes the caption type and is consumed by frame 0;
	// frame 1 then finds the queue empty.
	if err := c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData, Field: Field1, Data: []byte{1, 2, 3}}, 0); err != nil {
		t.Fatal(err)
	}
	c.CombineVideo(VideoFrame{PTS: 0, Duration: 33 * time.Millisecond})
	frame := VideoFrame{PTS: 33 * time.Millisecond, Duration: 33 * time.Millisecond}
	out := c.CombineVideo(frame)
	if len(out.CaptionMeta) != 1 {
		t.Fatalf("len(CaptionMeta) = %d, want 1 (padded null)", len(out.CaptionMeta))
	}
	if out.CaptionMeta[0].Data != nil {
		t.Fatalf("padded caption should carry nil data")
	}
}

func TestCombineVideoScheduleModeAttachesOne(t *testing.T) {
	c := NewCombiner(ModeSchedule, 4)
	c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData, Field: Field1, Data: []byte{1, 2, 3}}, 0)
	frame := VideoFrame{PTS: 0, Duration: 33 * time.Millisecond}
	out := c.CombineVideo(frame)
	if len(out.CaptionMeta) != 1 || out.CaptionMeta[0].Data == nil {
		t.Fatalf("expected 1 real caption meta, got %+v", out.CaptionMeta)
	}
}

func TestCombinerRejectsTypeChange(t *testing.T) {
	c := NewCombiner(ModeSchedule, 4)
	if err := c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData}, 0); err != nil {
		t.Fatal(err)
	}
	err := c.PushCaption(CaptionMeta{Type: ccconvert.FormatCDP}, 1)
	if _, ok := err.(*CaptionTypeChangedError); !ok {
		t.Fatalf("err = %v, want *CaptionTypeChangedError", err)
	}
}

func TestCombinerQoSLossOnOverflow(t *testing.T) {
	c := NewCombiner(ModeSchedule, 2)
	for i := 0; i < 5; i++ {
		c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData, Field: Field1, Data: []byte{byte(i)}}, time.Duration(i)*time.Millisecond)
	}
	if c.QoSLossCount() == 0 {
		t.Fatal("expected QoS loss count > 0 after overflowing MaxScheduled")
	}
	if len(c.queueF1) != 2 {
		t.Fatalf("len(queueF1) = %d, want 2 (capped)", len(c.queueF1))
	}
}

func TestCombinerPassthroughDropsOutOfOrder(t *testing.T) {
	c := NewCombiner(ModePassthrough, 0)
	c.CombineVideo(VideoFrame{PTS: 100 * time.Millisecond, Duration: 33 * time.Millisecond})
	err := c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData}, 50*time.Millisecond)
	if err == nil {
		t.Fatal("expected out-of-order caption to be rejected in passthrough mode")
	}
}

func TestCombinerProgressiveDropsField2(t *testing.T) {
	c := NewCombiner(ModeSchedule, 4)
	c.PushCaption(CaptionMeta{Type: ccconvert.FormatCCData, Field: Field2, Data: []byte{9}}, 0)
	frame := VideoFrame{PTS: 0, Duration: 33 * time.Millisecond, Interlaced: false}
	out := c.CombineVideo(frame)
	for _, m := range out.CaptionMeta {
		if m.Field == Field2 && m.Data != nil {
			t.Fatal("progressive video should not schedule field-2 data")
		}
	}
}
