// Package worker executes queued analysis tasks.
package worker

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/queue"
	nuts "github.com/vaudience/go-nuts"
)

const reserveBackoff = time.Second

// Analyzer runs one task and returns its outcome
type Analyzer interface {
	Analyze(ctx context.Context, task *queue.Task) (queue.Outcome, error)
}

// Options configures a Pool
type Options struct {
	Concurrency    int
	ReserveTimeout time.Duration
	Events         *events.Bus
}

// Pool pulls tasks from a queue with a fixed number of goroutines
type Pool struct {
	queue    queue.Queue
	analyzer Analyzer
	options  Options

	activeJobs    int32
	completedJobs int64
	failedJobs    int64
	wg            sync.WaitGroup
}

// NewPool creates a pool with defaults applied to unset options
func NewPool(q queue.Queue, analyzer Analyzer, options Options) *Pool {
	if options.Concurrency < 1 {
		options.Concurrency = 1
	}
	if options.ReserveTimeout <= 0 {
		options.ReserveTimeout = 5 * time.Second
	}
	return &Pool{
		queue:    q,
		analyzer: analyzer,
		options:  options,
	}
}

// Start runs the workers and blocks until ctx is done or the queue is closed
func (p *Pool) Start(ctx context.Context) {
	nuts.L.Infof("[Worker] Starting %d workers", p.options.Concurrency)

	for i := 0; i < p.options.Concurrency; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	p.wg.Wait()
	nuts.L.Infof("[Worker] All workers stopped")
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	for {
		if ctx.Err() != nil {
			nuts.L.Debugf("[Worker] Worker %d stopping", workerID)
			return
		}
		_, err := p.ProcessNext(ctx)
		switch {
		case err == nil, stderrors.Is(err, queue.ErrNoTask):
		case stderrors.Is(err, queue.ErrClosed):
			nuts.L.Infof("[Worker] Queue closed, worker %d stopping", workerID)
			return
		case ctx.Err() != nil:
			return
		default:
			nuts.L.Errorf("[Worker] Worker %d failed to reserve task: %v", workerID, err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(reserveBackoff):
			}
		}
	}
}

// ProcessNext reserves and runs at most one task. It reports whether a task was run.
func (p *Pool) ProcessNext(ctx context.Context) (bool, error) {
	task, err := p.queue.Reserve(ctx, p.options.ReserveTimeout)
	if err != nil {
		return false, err
	}
	p.process(ctx, task)
	return true, nil
}

func (p *Pool) process(ctx context.Context, task *queue.Task) {
	atomic.AddInt32(&p.activeJobs, 1)
	defer atomic.AddInt32(&p.activeJobs, -1)

	startTime := time.Now()
	nuts.L.Debugf("[Worker] Processing job %s for device %d", task.ID, task.DeviceID)

	outcome, err := p.run(ctx, task)
	duration := time.Since(startTime)

	// the outcome must be recorded even when shutdown has begun
	recordCtx := context.WithoutCancel(ctx)
	ev := events.JobEvent{
		JobID:    task.ID,
		Kind:     string(task.Kind),
		DeviceID: task.DeviceID,
		Duration: duration,
	}

	if err != nil {
		atomic.AddInt64(&p.failedJobs, 1)
		nuts.L.Errorf("[Worker] Job %s failed after %s: %v", task.ID, duration, err)
		if updateErr := p.queue.Fail(recordCtx, task.ID, err.Error()); updateErr != nil {
			nuts.L.Errorf("[Worker] Failed to record failure of job %s: %v", task.ID, updateErr)
		}
		ev.Outcome = string(queue.StateFailed)
		ev.Error = err.Error()
		p.options.Events.Emit(events.JobFailed, ev)
		return
	}

	atomic.AddInt64(&p.completedJobs, 1)
	nuts.L.Infof("[Worker] Job %s completed (%s) in %s", task.ID, outcome.Kind, duration)
	if updateErr := p.queue.Complete(recordCtx, task.ID, outcome); updateErr != nil {
		nuts.L.Errorf("[Worker] Failed to record outcome of job %s: %v", task.ID, updateErr)
	}
	ev.Outcome = string(outcome.Kind)
	p.options.Events.Emit(events.JobSucceeded, ev)
}

// run invokes the analyzer and converts a panic into an upstream failure
func (p *Pool) run(ctx context.Context, task *queue.Task) (outcome queue.Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewUpstreamError("analysis panicked", fmt.Errorf("%v", r))
		}
	}()

	if task.Kind != queue.KindDeviceAnalysis {
		return queue.Outcome{}, errors.NewUpstreamError(fmt.Sprintf("unsupported task kind %q", task.Kind), nil)
	}
	return p.analyzer.Analyze(ctx, task)
}

// ActiveJobs returns the number of jobs currently running
func (p *Pool) ActiveJobs() int32 {
	return atomic.LoadInt32(&p.activeJobs)
}

// CompletedJobs returns the number of jobs that succeeded
func (p *Pool) CompletedJobs() int64 {
	return atomic.LoadInt64(&p.completedJobs)
}

// FailedJobs returns the number of jobs that failed
func (p *Pool) FailedJobs() int64 {
	return atomic.LoadInt64(&p.failedJobs)
}
