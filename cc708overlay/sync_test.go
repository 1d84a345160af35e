package cc708overlay

import (
	"testing"
	"time"
)

func TestDoubleBufferPublishAndAcquire(t *testing.T) {
	db := NewDoubleBuffer()
	frame := &Frame{Windows: []RenderedWindow{{}}}
	db.Publish(frame)
	got := db.Acquire()
	if got != frame {
		t.Fatal("Acquire should return the published frame")
	}
	db.Release()
	if db.TryAcquire() != nil {
		t.Fatal("TryAcquire should return nil after Release")
	}
}

func TestDoubleBufferPublishBlocksUntilReleased(t *testing.T) {
	db := NewDoubleBuffer()
	db.Publish(&Frame{})

	done := make(chan struct{})
	go func() {
		db.Publish(&Frame{})
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second Publish should block while the first frame is unconsumed")
	case <-time.After(50 * time.Millisecond):
	}

	db.Acquire()
	db.Release()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second Publish should proceed after Release")
	}
}
