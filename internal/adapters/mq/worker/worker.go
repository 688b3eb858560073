// Package worker ranks queued game results on the leaderboard.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/vibeverse/internal/domain/model"
	"github.com/okian/vibeverse/pkg/logger"
	"github.com/okian/vibeverse/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Updater keeps each player's best result.
type Updater interface {
	UpdateBest(ctx context.Context, r model.GameResult) (bool, error)
}

// Queue defines how workers receive results.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.GameResult
}

// Worker processes results and writes leaderboard updates.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for one consumer goroutine.
type InMemoryWorker struct {
	queue     Queue
	updater   Updater
	name      string
	processed *atomic.Int64

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(queue Queue, updater Updater, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:     queue,
		updater:   updater,
		name:      "worker",
		processed: new(atomic.Int64),
		shutdown:  make(chan struct{}),
		done:      make(chan struct{}),
		logger:    logger.Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	results := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case r, ok := <-results:
			if !ok {
				return
			}
			if err := w.process(ctx, r); err != nil {
				w.logger.Error(ctx, "error processing result", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker. A second call returns ErrStopped.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	stopped := true
	w.stopOnce.Do(func() {
		close(w.shutdown)
		stopped = false
	})
	if stopped {
		return ErrStopped
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Processed returns how many results this worker handled.
func (w *InMemoryWorker) Processed() int64 {
	return w.processed.Load()
}

func (w *InMemoryWorker) process(ctx context.Context, r model.GameResult) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()
	w.processed.Add(1)

	updated, err := w.updater.UpdateBest(ctx, r)
	if err != nil {
		metrics.RecordLeaderboardError()
		w.logger.Error(ctx, "leaderboard update failed",
			logger.String("session", r.SessionID),
			logger.String("player", r.Player),
			logger.Error(err),
		)
		return fmt.Errorf("leaderboard update failed for session %s: %w", r.SessionID, err)
	}
	if updated {
		metrics.RecordLeaderboardUpdate()
		w.logger.Debug(ctx, "new personal best",
			logger.String("player", r.Player),
			logger.Int("score", r.Score),
		)
	}
	return nil
}

// Pool manages multiple workers over one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger

	started  atomic.Bool
	stopOnce sync.Once
}

// NewPool creates a worker pool. A count below one uses runtime.NumCPU().
func NewPool(workerCount int, queue Queue, updater Updater, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   queue,
		logger:  logger.Named("worker-pool"),
	}
	for _, opt := range opts {
		opt(p)
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(queue, updater,
			WithName("worker-"+strconv.Itoa(i)),
			WithLogger(p.logger),
		)
	}
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns the number of results handled by all workers.
func (p *Pool) Processed() int64 {
	var total int64
	for _, w := range p.workers {
		total += w.Processed()
	}
	return total
}

// Start starts all workers in the pool. Later calls are no-ops.
func (p *Pool) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	p.logger.Info(ctx, "worker pool started", logger.Int("workers", len(p.workers)))
}

// Shutdown closes the queue, then waits for every worker to drain and stop.
func (p *Pool) Shutdown(ctx context.Context) error {
	err := ErrStopped
	p.stopOnce.Do(func() {
		err = nil
		if closer, ok := p.queue.(interface{ Close() error }); ok {
			if cerr := closer.Close(); cerr != nil {
				p.logger.Error(ctx, "error closing queue", logger.Error(cerr))
			}
		}
		if !p.started.Load() {
			return
		}

		shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
		defer cancel()
		for i, w := range p.workers {
			select {
			case <-w.done:
			case <-shutdownCtx.Done():
				p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			}
		}
	})
	return err
}
