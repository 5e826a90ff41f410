package bus

import (
	"context"
	"errors"
	"sync/atomic"

	"main/internal/ingest"
)

var (
	ErrQueueFull   = errors.New("tick queue full")
	ErrQueueClosed = errors.New("tick queue closed")
)

// Queue is a bounded, non-blocking tick queue between a feed and the engine
// loop. The engine consumes strictly one tick at a time; a slow engine sheds
// load here instead of blocking the feed.
type Queue struct {
	ch     chan ingest.Tick
	closed uint32
}

// NewQueue allocates a queue with the given capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 1
	}
	return &Queue{ch: make(chan ingest.Tick, capacity)}
}

// TryPublish enqueues a tick without blocking.
func (q *Queue) TryPublish(tick ingest.Tick) error {
	if atomic.LoadUint32(&q.closed) != 0 {
		return ErrQueueClosed
	}
	select {
	case q.ch <- tick:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops the queue from accepting new ticks.
func (q *Queue) Close() {
	if atomic.CompareAndSwapUint32(&q.closed, 0, 1) {
		close(q.ch)
	}
}

// Run consumes ticks until the context is done or the queue is closed.
func (q *Queue) Run(ctx context.Context, handler func(ingest.Tick)) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-q.ch:
			if !ok {
				return
			}
			handler(tick)
		}
	}
}
