// Package events broadcasts job lifecycle notifications inside the process.
package events

import (
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"
)

const (
	JobEnqueued  = "job.enqueued"
	JobSucceeded = "job.succeeded"
	JobFailed    = "job.failed"
)

// JobEvent describes one lifecycle transition of a job
type JobEvent struct {
	JobID    string
	Kind     string
	DeviceID int64
	Outcome  string
	Duration time.Duration
	Error    string
}

// Bus coordinates job lifecycle handlers. A nil *Bus drops every event.
type Bus struct {
	events *nuts.EventEmitter
}

// NewBus creates a new Bus
func NewBus() *Bus {
	return &Bus{events: nuts.NewEventEmitter()}
}

// Emit publishes ev under name
func (b *Bus) Emit(name string, ev JobEvent) {
	if b == nil {
		return
	}
	if err := b.events.Emit(name, ev); err != nil {
		nuts.L.Errorf("[Events] Failed to deliver %s for job %s: %v", name, ev.JobID, err)
	}
}

// On registers a handler for the named event. handlerID must be unique per
// event; registering the same id again replaces the handler.
func (b *Bus) On(name, handlerID string, handler func(JobEvent)) error {
	if b == nil {
		return nil
	}
	if _, err := b.events.On(name, handlerID, handler); err != nil {
		return fmt.Errorf("failed to register %s handler %q: %w", name, handlerID, err)
	}
	return nil
}

// ListenerCount returns how many handlers are registered for name
func (b *Bus) ListenerCount(name string) int {
	if b == nil {
		return 0
	}
	return b.events.ListenerCount(name)
}
