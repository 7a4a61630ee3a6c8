// Package outbox runs side effects that must not block or fail a request:
// emails, notifications, audit writes. Jobs run on a small worker pool with a
// per-job timeout; a failed or panicking job is logged and dropped, never
// retried into the request path.
package outbox

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one deferred side effect.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher owns the worker pool. Create with New, stop with Close.
type Dispatcher struct {
	jobs    chan Job
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

const (
	defaultWorkers = 4
	defaultBuffer  = 256
	defaultTimeout = 30 * time.Second
)

// New starts a dispatcher with the given worker count. workers <= 0 uses the
// default.
func New(workers int, log *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = defaultWorkers
	}
	d := &Dispatcher{
		jobs:    make(chan Job, defaultBuffer),
		log:     log,
		timeout: defaultTimeout,
	}
	d.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go d.worker()
	}
	return d
}

// Submit queues a job. When the queue is full the job is dropped with a log
// line; side effects here are best-effort by contract.
//
// The mutex is held across the send so Close cannot close the channel
// between the closed check and the send. The send never blocks (the full
// queue drops), so holding it is cheap.
func (d *Dispatcher) Submit(name string, run func(ctx context.Context) error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		d.log.Warn("outbox job submitted after close", zap.String("job", name))
		return
	}

	select {
	case d.jobs <- Job{Name: name, Run: run}:
	default:
		d.log.Warn("outbox queue full, dropping job", zap.String("job", name))
	}
}

// Close stops accepting jobs and waits for queued ones to finish. The channel
// close happens under the same mutex Submit sends under.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.jobs)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.jobs {
		d.runOne(job)
	}
}

func (d *Dispatcher) runOne(job Job) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("outbox job panicked",
				zap.String("job", job.Name),
				zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		d.log.Warn("outbox job failed",
			zap.String("job", job.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	d.log.Debug("outbox job done",
		zap.String("job", job.Name),
		zap.Duration("elapsed", time.Since(start)))
}
