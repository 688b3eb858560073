// Package queue holds finished game results until a worker ranks them.
package queue

import (
	"context"
	"sync"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10_000
	defaultBufferSize    = 10_000
)

// Enqueue failure reasons, used as the metrics label.
const (
	reasonClosed    = "closed"
	reasonFull      = "queue_full"
	reasonCancelled = "context_cancelled"
)

// Item is the payload flowing through the queue.
type Item = model.GameResult

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a result. It returns false if the queue is full or closed.
	Enqueue(ctx context.Context, r Item) bool

	// Dequeue returns a channel that is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Item

	// Len returns the current number of queued results.
	Len(ctx context.Context) int

	// Close stops accepting results and closes the dequeue channel once drained.
	Close() error

	// IsClosed reports whether Close was called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	items      chan Item
	capacity   int
	bufferSize int
	mu         sync.RWMutex
	closed     bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity:   defaultQueueCapacity,
		bufferSize: defaultBufferSize,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.items = make(chan Item, max(q.bufferSize, q.capacity))
	metrics.UpdateQueueSize(0)
	return q
}

// Enqueue adds a result to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, r Item) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueEnqueueError(reasonClosed)
		return false
	}
	if len(q.items) >= q.capacity {
		metrics.RecordQueueEnqueueError(reasonFull)
		return false
	}

	select {
	case <-ctx.Done():
		metrics.RecordQueueEnqueueError(reasonCancelled)
		return false
	default:
	}

	select {
	case q.items <- r:
		metrics.UpdateQueueSize(len(q.items))
		return true
	default:
		metrics.RecordQueueEnqueueError(reasonFull)
		return false
	}
}

// Dequeue returns a channel that receives results as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Item {
	out := make(chan Item)
	go func() {
		defer close(out)
		for r := range q.items {
			select {
			case out <- r:
				metrics.UpdateQueueSize(len(q.items))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued results.
func (q *InMemoryQueue) Len(_ context.Context) int {
	size := len(q.items)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	close(q.items)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
