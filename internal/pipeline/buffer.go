package pipeline

import (
	"sync"
	"time"
)

// noteBuffer accumulates notes read from a stream until the batch is full
// or the window elapses, so interactive input is not held back waiting for
// a full batch.
type noteBuffer struct {
	window  time.Duration
	maxSize int // 0 means unlimited

	mu      sync.Mutex
	pending []string
	timer   *time.Timer
}

func newNoteBuffer(window time.Duration, maxSize int) *noteBuffer {
	return &noteBuffer{window: window, maxSize: maxSize}
}

// add appends a note. The first note starts the flush timer. Returns true
// when the buffer is full and needs flushing.
func (b *noteBuffer) add(note string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.pending = append(b.pending, note)
	if len(b.pending) == 1 && b.window > 0 {
		b.timer = time.NewTimer(b.window)
	}
	return b.maxSize > 0 && len(b.pending) >= b.maxSize
}

// flushCh returns the timer's channel, or nil if no timer is active.
func (b *noteBuffer) flushCh() <-chan time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer == nil {
		return nil
	}
	return b.timer.C
}

// take empties the buffer and returns what it held.
func (b *noteBuffer) take() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	notes := b.pending
	b.pending = nil
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return notes
}
