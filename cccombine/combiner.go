// Package cccombine attaches caption buffers to video frames as per-frame
// metadata (Combiner) and re-splits them back onto a secondary output
// (Extractor), per spec.md §4.5.
package cccombine

import (
	"errors"
	"fmt"
	"time"

	"github.com/zsiec/mxfcap/ccconvert"
)

// Field selects which interlaced field a scheduled caption belongs to.
type Field int

const (
	Field1 Field = iota
	Field2
	FieldNone // progressive video: only field-1 scheduling applies
)

// CaptionMeta is one caption buffer attached to (or extracted from) a
// video frame.
type CaptionMeta struct {
	Type  ccconvert.Format
	Field Field
	Data  []byte
}

// VideoFrame is the minimal per-frame state the combiner/extractor need:
// timing to place captions, and the attached metadata list itself.
type VideoFrame struct {
	PTS, DTS    time.Duration
	Duration    time.Duration
	Interlaced  bool
	CaptionMeta []CaptionMeta
}

func (f VideoFrame) runningEnd() time.Duration { return f.PTS + f.Duration }

// Mode selects the Combiner's attach discipline (spec.md §4.5).
type Mode int

const (
	ModeSchedule Mode = iota
	ModePassthrough
)

// CaptionTypeChangedError is returned when a caption buffer's wire format
// differs from the type the Combiner first negotiated; spec.md §4.5
// makes this a fatal condition.
type CaptionTypeChangedError struct {
	Was, Got ccconvert.Format
}

func (e *CaptionTypeChangedError) Error() string {
	return fmt.Sprintf("cccombine: caption type changed mid-stream: was %v, got %v", e.Was, e.Got)
}

// pending is a caption buffer waiting to be attached, stamped with the
// running time it was received at.
type pending struct {
	meta        CaptionMeta
	runningTime time.Duration
}

// Combiner implements spec.md §4.5's combiner invariants.
type Combiner struct {
	Mode         Mode
	MaxScheduled int

	captionType    ccconvert.Format
	typeNegotiated bool

	queueF1 []pending
	queueF2 []pending

	prevEnd      time.Duration
	qosLossCount int
}

// NewCombiner creates a Combiner in the given mode.
func NewCombiner(mode Mode, maxScheduled int) *Combiner {
	return &Combiner{Mode: mode, MaxScheduled: maxScheduled}
}

// QoSLossCount returns how many scheduled captions have been dropped for
// exceeding MaxScheduled since the Combiner was created.
func (c *Combiner) QoSLossCount() int { return c.qosLossCount }

func (c *Combiner) checkType(m CaptionMeta) error {
	if !c.typeNegotiated {
		c.captionType = m.Type
		c.typeNegotiated = true
		return nil
	}
	if m.Type != c.captionType {
		return &CaptionTypeChangedError{Was: c.captionType, Got: m.Type}
	}
	return nil
}

// PushCaption enqueues one caption buffer arriving at runningTime.
// In ModePassthrough, a buffer arriving before c.prevEnd is dropped (the
// caller should log the warning spec.md §4.5 describes). In ModeSchedule,
// the buffer queues by field, dropping from the head (and counting a
// QoS-loss event) when MaxScheduled is exceeded.
func (c *Combiner) PushCaption(m CaptionMeta, runningTime time.Duration) error {
	if err := c.checkType(m); err != nil {
		return err
	}

	if c.Mode == ModePassthrough {
		if runningTime < c.prevEnd {
			return errors.New("cccombine: out-of-order caption buffer dropped (passthrough mode)")
		}
	}

	p := pending{meta: m, runningTime: runningTime}
	queue := &c.queueF1
	if m.Field == Field2 {
		queue = &c.queueF2
	}
	*queue = append(*queue, p)
	if c.MaxScheduled > 0 && len(*queue) > c.MaxScheduled {
		*queue = (*queue)[len(*queue)-c.MaxScheduled:]
		c.qosLossCount++
	}
	return nil
}

func nullCaption(format ccconvert.Format, field Field) CaptionMeta {
	return CaptionMeta{Type: format, Field: field, Data: nil}
}

// CombineVideo attaches 0..N caption metas to frame whose running time
// lies in [prevEnd, frame running end) and returns the updated frame
// (spec.md §4.5 "Combiner invariants").
func (c *Combiner) CombineVideo(frame VideoFrame) VideoFrame {
	end := frame.runningEnd()

	if c.Mode == ModeSchedule {
		frame.CaptionMeta = append(frame.CaptionMeta, c.takeScheduled(&c.queueF1, Field1)...)
		if frame.Interlaced {
			frame.CaptionMeta = append(frame.CaptionMeta, c.takeScheduled(&c.queueF2, Field2)...)
		} else {
			// Field-2 data on progressive video is dropped per spec.md §4.5.
			c.queueF2 = nil
		}
	} else {
		frame.CaptionMeta = append(frame.CaptionMeta, c.drainInWindow(&c.queueF1, c.prevEnd, end)...)
		if frame.Interlaced {
			frame.CaptionMeta = append(frame.CaptionMeta, c.drainInWindow(&c.queueF2, c.prevEnd, end)...)
		} else {
			c.queueF2 = nil
		}
	}

	c.prevEnd = end
	return frame
}

// takeScheduled pops exactly one caption for the configured type from
// queue, padding with a canonical-null CaptionMeta when the queue is
// empty (spec.md §4.5 "padding with canonical nulls when the caption
// queue underruns").
func (c *Combiner) takeScheduled(queue *[]pending, field Field) []CaptionMeta {
	if len(*queue) == 0 {
		if !c.typeNegotiated {
			return nil
		}
		return []CaptionMeta{nullCaption(c.captionType, field)}
	}
	m := (*queue)[0].meta
	*queue = (*queue)[1:]
	return []CaptionMeta{m}
}

// drainInWindow pops every queued caption whose running time lies within
// [start, end) (passthrough mode attaches everything pending, as-is).
func (c *Combiner) drainInWindow(queue *[]pending, start, end time.Duration) []CaptionMeta {
	var out []CaptionMeta
	i := 0
	for ; i < len(*queue); i++ {
		p := (*queue)[i]
		if p.runningTime < start || p.runningTime >= end {
			break
		}
		out = append(out, p.meta)
	}
	*queue = (*queue)[i:]
	return out
}
