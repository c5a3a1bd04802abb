package queue

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemoryQueue is a process-local Queue. Tasks are lost on restart.
type MemoryQueue struct {
	mu       sync.Mutex
	pending  []*Task
	inflight map[string]*Task
	jobs     map[string]*JobRecord
	signal   chan struct{}
	closed   bool
}

// NewMemoryQueue creates an empty queue visible only inside this process
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{
		inflight: make(map[string]*Task),
		jobs:     make(map[string]*JobRecord),
		signal:   make(chan struct{}, 1),
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, task *Task) error {
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrClosed
	}

	now := time.Now().UTC()
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = now
	}
	t := *task
	q.pending = append(q.pending, &t)
	q.jobs[task.ID] = &JobRecord{
		ID:        task.ID,
		Kind:      task.Kind,
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	q.notify()
	return nil
}

func (q *MemoryQueue) Reserve(ctx context.Context, timeout time.Duration) (*Task, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return nil, ErrClosed
		}
		if len(q.pending) > 0 {
			task := q.pending[0]
			q.pending = q.pending[1:]
			q.inflight[task.ID] = task
			if job, ok := q.jobs[task.ID]; ok && !job.State.Terminal() {
				job.State = StateRunning
				job.UpdatedAt = time.Now().UTC()
			}
			if len(q.pending) > 0 {
				q.notify()
			}
			q.mu.Unlock()
			t := *task
			return &t, nil
		}
		q.mu.Unlock()

		select {
		case <-q.signal:
		case <-timer.C:
			return nil, ErrNoTask
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (q *MemoryQueue) Complete(_ context.Context, jobID string, outcome Outcome) error {
	return q.finish(jobID, StateSucceeded, &outcome, "", kindOf(outcome))
}

func (q *MemoryQueue) Fail(_ context.Context, jobID string, detail string) error {
	return q.finish(jobID, StateFailed, nil, detail, KindDeviceAnalysis)
}

func (q *MemoryQueue) finish(jobID string, state State, outcome *Outcome, detail string, kind TaskKind) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	delete(q.inflight, jobID)
	now := time.Now().UTC()
	job, ok := q.jobs[jobID]
	if !ok {
		job = &JobRecord{ID: jobID, Kind: kind, CreatedAt: now}
		q.jobs[jobID] = job
	}
	if job.State.Terminal() {
		return nil
	}
	job.State = state
	job.Outcome = outcome
	job.Error = detail
	job.UpdatedAt = now
	return nil
}

func (q *MemoryQueue) Status(_ context.Context, jobID string) (*JobRecord, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	job, ok := q.jobs[jobID]
	if !ok {
		return nil, ErrUnknownJob
	}
	j := *job
	return &j, nil
}

func (q *MemoryQueue) Recover(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	moved := 0
	for id, task := range q.inflight {
		q.pending = append(q.pending, task)
		if job, ok := q.jobs[id]; ok && !job.State.Terminal() {
			job.State = StatePending
		}
		delete(q.inflight, id)
		moved++
	}
	if moved > 0 {
		q.notify()
	}
	return moved, nil
}

// Len returns the number of pending tasks
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.closed {
		q.closed = true
		close(q.signal)
	}
	return nil
}

// notify wakes one waiting Reserve. Callers hold q.mu.
func (q *MemoryQueue) notify() {
	if q.closed {
		return
	}
	select {
	case q.signal <- struct{}{}:
	default:
	}
}
