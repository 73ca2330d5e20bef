// Package worker runs prefetch jobs pulled off the queue.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/pitchdash/internal/domain/model"
	"github.com/okian/pitchdash/pkg/logger"
	"github.com/okian/pitchdash/pkg/metrics"
)

const (
	defaultJobTimeout   = 2 * time.Minute
	poolShutdownTimeout = 30 * time.Second
)

// Job is what workers read off the queue.
type Job = model.PrefetchJob

// Loader warms the cache for one job.
type Loader interface {
	Load(ctx context.Context, j Job) error
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, j Job) error

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, j Job) error { return f(ctx, j) }

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue      Queue
	loader     Loader
	name       string
	jobTimeout time.Duration
	onDone     func(Job, error)

	shutdown chan struct{}
	done     chan struct{}

	processed atomic.Int64
	failed    atomic.Int64

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, loader Loader, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:      q,
		loader:     loader,
		name:       "worker",
		jobTimeout: defaultJobTimeout,
		onDone:     func(Job, error) {},
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		logger:     logger.Get().Named("worker"),
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

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			if err := w.processJob(ctx, j); err != nil {
				w.logger.Warn(ctx, "prefetch failed",
					logger.String("job_id", j.ID),
					logger.String("player", j.Player),
					logger.Error(err))
			}
		}
	}
}

// Shutdown stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	select {
	case <-w.shutdown:
	default:
		close(w.shutdown)
	}

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) processJob(ctx context.Context, j Job) (err error) {
	start := time.Now()
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			w.failed.Add(1)
			metrics.RecordErrorByComponent("worker", "load_error")
		}
		w.processed.Add(1)
		metrics.RecordJob(outcome, float64(time.Since(start).Milliseconds()))
		w.onDone(j, err)
	}()

	jctx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()
	if err := w.loader.Load(jctx, j); err != nil {
		return fmt.Errorf("prefetch %s: %w", j.Key(), err)
	}
	w.logger.Debug(ctx, "prefetched", logger.String("job_id", j.ID), logger.String("player", j.Player))
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
}

// NewPool creates a pool of workerCount workers; non-positive counts use NumCPU.
func NewPool(workerCount int, q Queue, loader Loader, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := 0; i < workerCount; i++ {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		pool.workers[i] = NewInMemoryWorker(q, loader, wopts...)
	}

	metrics.UpdateWorkerCount(workerCount)
	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of finished jobs and how many of them failed.
func (p *Pool) Processed() (total, failed int64) {
	for _, w := range p.workers {
		total += w.processed.Load()
		failed += w.failed.Load()
	}
	return total, failed
}

// Shutdown closes the queue, when it can be closed, and stops every worker.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		if err := w.Shutdown(shutdownCtx); err != nil {
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerCount(0)
	return nil
}
