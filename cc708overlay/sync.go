package cc708overlay

import "sync"

// Frame is one rendered overlay frame ready for compositing: the
// rasterized AYUV buffers for every visible, non-deleted window that has
// a rendered TextImage, each positioned against the video raster.
type Frame struct {
	Windows []RenderedWindow
}

// RenderedWindow pairs a rasterized AYUV buffer with its screen
// placement.
type RenderedWindow struct {
	Placement Placement
	AYUV      []byte
}

// DoubleBuffer hands rendered overlay frames from the decode/render side
// to the compositor side without the reader ever blocking on a
// half-written frame (spec.md §4.6 "Synchronization", §5 concurrency
// model: "double-buffered, condition-variable signaled").
//
// Frames pass through the single "current" slot. Publish installs a
// frame there and marks it live; the reader reads it at its own pace and
// calls Release. If the writer produces a second frame before the reader
// has released the first, Publish waits rather than overwrite
// undisplayed content.
type DoubleBuffer struct {
	mu   sync.Mutex
	cond *sync.Cond

	current     *Frame
	next        *Frame
	currentLive bool
}

// NewDoubleBuffer creates an empty DoubleBuffer.
func NewDoubleBuffer() *DoubleBuffer {
	db := &DoubleBuffer{}
	db.cond = sync.NewCond(&db.mu)
	return db
}

// Publish installs frame as the pending frame, blocking while a
// previously published frame is still live and unconsumed.
func (db *DoubleBuffer) Publish(frame *Frame) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for db.currentLive {
		db.cond.Wait()
	}
	db.current = frame
	db.currentLive = true
	db.cond.Broadcast()
}

// Acquire blocks until a frame is live, then returns it. The caller must
// call Release when done reading it so the writer can publish the next
// one.
func (db *DoubleBuffer) Acquire() *Frame {
	db.mu.Lock()
	defer db.mu.Unlock()
	for !db.currentLive {
		db.cond.Wait()
	}
	return db.current
}

// Release marks the current frame consumed, unblocking a writer waiting
// in Publish.
func (db *DoubleBuffer) Release() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.currentLive = false
	db.current = nil
	db.cond.Broadcast()
}

// TryAcquire returns the live frame without blocking, or nil if none is
// available yet.
func (db *DoubleBuffer) TryAcquire() *Frame {
	db.mu.Lock()
	defer db.mu.Unlock()
	if !db.currentLive {
		return nil
	}
	return db.current
}
