// Package worker runs fire-and-forget work (membership activation, email
// delivery) off the request path on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/GabrielAlexander97/neverpayforads/pkg/slogx"
)

var (
	ErrQueueFull = errors.New("worker: queue full")
	ErrStopped   = errors.New("worker: pool stopped")
)

// DefaultTaskTimeout bounds a single task so a hung provider cannot pin a worker.
const DefaultTaskTimeout = 30 * time.Second

// Observer is told about every finished task. Used for metrics.
type Observer func(name string, err error, elapsed time.Duration)

type task struct {
	name string
	ctx  context.Context
	fn   func(ctx context.Context) error
}

// Pool is a bounded queue drained by Workers goroutines. Task errors never
// reach the submitter; they are logged with the logger carried on the
// submitting context and reported to Observer.
type Pool struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
	Logger      *slog.Logger
	Observer    Observer

	mu      sync.RWMutex
	tasks   chan task
	started bool
	stopped bool
	wg      sync.WaitGroup
}

// NewPool creates a pool. Non-positive sizes fall back to 4 workers and a
// queue of 256.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		Workers:     workers,
		QueueSize:   queueSize,
		TaskTimeout: DefaultTaskTimeout,
		Logger:      logger,
		tasks:       make(chan task, queueSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	for i := 0; i < p.Workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	p.Logger.Info("worker pool started", "workers", p.Workers, "queue_size", p.QueueSize)
}

// Stop rejects new submissions, lets queued tasks finish and waits for the
// workers, or until ctx is done.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.Logger.Info("worker pool stopped")
		return nil
	case <-ctx.Done():
		p.Logger.Warn("worker pool stop timed out with tasks in flight")
		return ctx.Err()
	}
}

// Submit queues fn without blocking. The task runs with a context that keeps
// the logger of ctx but not its cancellation, so it outlives the request.
func (p *Pool) Submit(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- task{name: name, ctx: slogx.Detach(ctx), fn: fn}:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued tasks not yet picked up.
func (p *Pool) Pending() int {
	return len(p.tasks)
}

func (p *Pool) run() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.execute(t)
	}
}

func (p *Pool) execute(t task) {
	ctx := t.ctx
	if p.TaskTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TaskTimeout)
		defer cancel()
	}

	log := slogx.FromContext(ctx).With("task", t.name)
	start := time.Now()

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("task panicked", "panic", r)
				err = errors.New("worker: task panicked")
			}
		}()
		return t.fn(ctx)
	}()

	elapsed := time.Since(start)
	if err != nil {
		log.Error("task failed", "error", err, "duration_ms", elapsed.Milliseconds())
	} else {
		log.Debug("task completed", "duration_ms", elapsed.Milliseconds())
	}

	if p.Observer != nil {
		p.Observer(t.name, err, elapsed)
	}
}
