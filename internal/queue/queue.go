// Package queue defines the job queue capability used by the analysis
// orchestrator and the worker pool, together with its Redis and in-memory
// backends.
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/itsatony/triaxis/internal/models"
)

var (
	// ErrUnknownJob is returned by Status for identifiers the queue has never seen
	ErrUnknownJob = errors.New("job unknown to queue")
	// ErrNoTask is returned by Reserve when nothing arrived before the timeout
	ErrNoTask = errors.New("no task available")
	// ErrClosed is returned once the queue has been closed
	ErrClosed = errors.New("queue closed")
)

// TaskKind names the unit of work a task carries
type TaskKind string

const (
	KindDeviceAnalysis TaskKind = "device_analysis"
	KindFanOut         TaskKind = "fan_out"
)

// Task is a unit of asynchronous work
type Task struct {
	ID         string        `json:"id"`
	Kind       TaskKind      `json:"kind"`
	DeviceID   int64         `json:"device_id"`
	Window     models.Window `json:"window"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// State is the queue-native job state
type State string

const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
)

// Terminal reports whether no further transition is allowed
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}

// OutcomeKind tags the payload of a succeeded job
type OutcomeKind string

const (
	OutcomeSingle OutcomeKind = "single"
	OutcomeFanOut OutcomeKind = "fanout"
	OutcomeNoData OutcomeKind = "nodata"
)

// Outcome is the payload of a succeeded job. Exactly one of Analysis or Jobs
// is meaningful, as selected by Kind.
type Outcome struct {
	Kind     OutcomeKind            `json:"kind"`
	Analysis *models.DeviceAnalysis `json:"analysis,omitempty"`
	Jobs     map[string]string      `json:"jobs,omitempty"`
}

// SingleOutcome wraps a single-device result
func SingleOutcome(analysis *models.DeviceAnalysis) Outcome {
	return Outcome{Kind: OutcomeSingle, Analysis: analysis}
}

// NoDataOutcome marks a job that ran but found no readings
func NoDataOutcome(analysis *models.DeviceAnalysis) Outcome {
	return Outcome{Kind: OutcomeNoData, Analysis: analysis}
}

// FanOutOutcome maps external device ids to child job ids
func FanOutOutcome(jobs map[string]string) Outcome {
	return Outcome{Kind: OutcomeFanOut, Jobs: jobs}
}

// JobRecord is what the queue knows about a job
type JobRecord struct {
	ID        string    `json:"id"`
	Kind      TaskKind  `json:"kind"`
	State     State     `json:"state"`
	Outcome   *Outcome  `json:"outcome,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Queue accepts tasks, hands them to workers and keeps job status.
// Delivery is at-least-once: a reserved task stays in flight until
// Complete or Fail is called for its id.
type Queue interface {
	// Enqueue durably records the task as pending. task.ID must be set.
	Enqueue(ctx context.Context, task *Task) error
	// Reserve blocks up to timeout for the next task and marks it running
	Reserve(ctx context.Context, timeout time.Duration) (*Task, error)
	// Complete marks the job succeeded with outcome, creating the record
	// if the id was never enqueued (synthetic fan-out parents)
	Complete(ctx context.Context, jobID string, outcome Outcome) error
	// Fail marks the job failed with a detail message
	Fail(ctx context.Context, jobID string, detail string) error
	// Status returns the job record or ErrUnknownJob
	Status(ctx context.Context, jobID string) (*JobRecord, error)
	// Recover moves in-flight tasks back to pending and returns how many moved
	Recover(ctx context.Context) (int, error)
	Close() error
}

func kindOf(outcome Outcome) TaskKind {
	if outcome.Kind == OutcomeFanOut {
		return KindFanOut
	}
	return KindDeviceAnalysis
}
