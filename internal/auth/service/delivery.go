package service

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DeliveryTask is a unit of side work such as sending an email or uploading
// a QR image.
type DeliveryTask func(ctx context.Context) error

type deliveryJob struct {
	name string
	fn   DeliveryTask
}

// DeliveryQueue runs side effects off the request path on a fixed pool of
// workers. Tasks get their own context with a timeout, so they outlive the
// request that enqueued them. A full queue drops the task rather than block.
type DeliveryQueue struct {
	Logger  *slog.Logger
	Workers int
	Timeout time.Duration

	jobs     chan deliveryJob
	wg       sync.WaitGroup
	mu       sync.RWMutex
	started  bool
	stopped  bool
	stopOnce sync.Once
}

// NewDeliveryQueue creates a queue holding at most size pending tasks.
func NewDeliveryQueue(logger *slog.Logger, workers, size int, timeout time.Duration) *DeliveryQueue {
	if workers <= 0 {
		workers = 2
	}
	if size <= 0 {
		size = 64
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &DeliveryQueue{
		Logger:  logger,
		Workers: workers,
		Timeout: timeout,
		jobs:    make(chan deliveryJob, size),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *DeliveryQueue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started || q.stopped {
		return
	}
	q.started = true

	for range q.Workers {
		q.wg.Add(1)
		go q.work()
	}
	q.Logger.Info("delivery queue started", "workers", q.Workers, "capacity", cap(q.jobs))
}

// Enqueue schedules fn. It reports false when the queue is stopped or full.
func (q *DeliveryQueue) Enqueue(name string, fn DeliveryTask) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		q.Logger.Warn("delivery queue stopped, task dropped", "task", name)
		return false
	}

	select {
	case q.jobs <- deliveryJob{name: name, fn: fn}:
		return true
	default:
		q.Logger.Warn("delivery queue full, task dropped", "task", name)
		return false
	}
}

// Stop refuses new tasks, lets the workers drain what is already queued and
// waits for them to exit.
func (q *DeliveryQueue) Stop() {
	q.stopOnce.Do(func() {
		q.mu.Lock()
		q.stopped = true
		close(q.jobs)
		started := q.started
		q.mu.Unlock()

		if !started {
			// Nobody will drain; run what is left inline.
			for job := range q.jobs {
				q.run(job)
			}
			return
		}
		q.wg.Wait()
		q.Logger.Info("delivery queue stopped")
	})
}

func (q *DeliveryQueue) work() {
	defer q.wg.Done()
	for job := range q.jobs {
		q.run(job)
	}
}

func (q *DeliveryQueue) run(job deliveryJob) {
	ctx, cancel := context.WithTimeout(context.Background(), q.Timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			q.Logger.Error("delivery task panicked", "task", job.name, "panic", r)
		}
	}()

	if err := job.fn(ctx); err != nil {
		q.Logger.Error("delivery task failed", "task", job.name, "error", err, "duration", time.Since(start))
		return
	}
	q.Logger.Debug("delivery task done", "task", job.name, "duration", time.Since(start))
}
