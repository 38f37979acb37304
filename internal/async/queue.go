package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/joseph-ayodele/proforma-consolidator/internal/common"
	"github.com/joseph-ayodele/proforma-consolidator/internal/pipeline"
)

// Processor is the work a queue worker performs.
type Processor interface {
	Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Result, error)
}

// Job is one queued submission and the channel its result is delivered on.
type Job struct {
	ctx         context.Context
	sub         pipeline.Submission
	submittedAt time.Time
	reply       chan reply
}

type reply struct {
	res *pipeline.Result
	err error
}

// ProcessorQueue runs submissions on a fixed pool of workers. Submit blocks until a worker
// finished the job, so callers see the same contract as calling the processor directly.
type ProcessorQueue struct {
	proc    Processor
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu     sync.RWMutex
	closed bool
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(proc Processor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 10 * time.Minute,
		ch:      make(chan Job, 64),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("worker started", "worker_id", workerID)

				for job := range q.ch {
					q.run(workerID, job)
				}

				q.logger.Debug("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	logger := common.LoggerFromContext(job.ctx, q.logger)
	if err := job.ctx.Err(); err != nil {
		// caller gave up while the job was waiting
		job.reply <- reply{err: err}
		return
	}

	ctx, cancel := context.WithTimeout(job.ctx, q.timeout)
	defer cancel()

	logger.Debug("queue.job.start", "worker_id", workerID, "waited_ms", time.Since(job.submittedAt).Milliseconds())
	res, err := q.proc.Process(ctx, job.sub)
	if err != nil {
		logger.Debug("queue.job.failed", "worker_id", workerID, "error", err)
	}
	job.reply <- reply{res: res, err: err}
}

// Submit queues sub and waits for its result. It applies backpressure when the queue is full
// and fails with common.ErrUnavailable once Shutdown has started.
func (q *ProcessorQueue) Submit(ctx context.Context, sub pipeline.Submission) (*pipeline.Result, error) {
	job := Job{ctx: ctx, sub: sub, submittedAt: time.Now(), reply: make(chan reply, 1)}

	q.mu.RLock()
	if q.closed {
		q.mu.RUnlock()
		q.logger.Warn("cannot enqueue: queue is shutting down")
		return nil, common.NewAppError("UNAVAILABLE", "Server is shutting down", common.ErrUnavailable)
	}
	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue full, applying backpressure", "queued", len(q.ch))
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.mu.RUnlock()
			return nil, ctx.Err()
		}
	}
	q.mu.RUnlock()

	select {
	case r := <-job.reply:
		return r.res, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Process lets the queue stand in for the processor it wraps.
func (q *ProcessorQueue) Process(ctx context.Context, sub pipeline.Submission) (*pipeline.Result, error) {
	return q.Submit(ctx, sub)
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}
