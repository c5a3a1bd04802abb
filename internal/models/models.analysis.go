// FilePath: internal/models/models.analysis.go
package models

import (
	"fmt"
	"time"
)

// Window is an inclusive time range [Start, End]
type Window struct {
	Start time.Time `json:"start_time" schema:"start_time"`
	End   time.Time `json:"end_time" schema:"end_time"`
}

// Validate reports whether the window is usable for a query
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return fmt.Errorf("start_time and end_time are required")
	}
	if w.End.Before(w.Start) {
		return fmt.Errorf("end_time %s is before start_time %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339))
	}
	return nil
}

// AnalysisResult is the persisted outcome of one completed single-device job.
// JobID is unique; rows are append-only.
type AnalysisResult struct {
	ID           int64     `json:"id" db:"id"`
	JobID        string    `json:"task_id" db:"job_id"`
	DeviceID     int64     `json:"device_id" db:"device_id"`
	StartTime    time.Time `json:"start_time" db:"start_time"`
	EndTime      time.Time `json:"end_time" db:"end_time"`
	AvgX         float64   `json:"avg_x" db:"avg_x"`
	AvgY         float64   `json:"avg_y" db:"avg_y"`
	AvgZ         float64   `json:"avg_z" db:"avg_z"`
	TotalRecords int       `json:"total_records" db:"total_records"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// DeviceAnalysis is the result payload of a single-device job. Averages are
// nil when the job found no readings.
type DeviceAnalysis struct {
	DeviceID     int64     `json:"device_id"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	AvgX         *float64  `json:"avg_x"`
	AvgY         *float64  `json:"avg_y"`
	AvgZ         *float64  `json:"avg_z"`
	TotalRecords int       `json:"total_records"`
}

// Analysis converts a persisted row into its result payload
func (r *AnalysisResult) Analysis() *DeviceAnalysis {
	x, y, z := r.AvgX, r.AvgY, r.AvgZ
	return &DeviceAnalysis{
		DeviceID:     r.DeviceID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		AvgX:         &x,
		AvgY:         &y,
		AvgZ:         &z,
		TotalRecords: r.TotalRecords,
	}
}

// JobState is the caller-visible state of an analysis job
type JobState string

const (
	JobPending   JobState = "pending"
	JobSucceeded JobState = "succeeded"
	JobFailed    JobState = "failed"
)

// JobStatus is the answer to a job status query. Result is set for
// single-device jobs, Jobs and Results for fan-out jobs. Results may be
// partial while children are still running.
type JobStatus struct {
	Status  JobState                   `json:"status"`
	JobID   string                     `json:"task_id"`
	NoData  bool                       `json:"no_data,omitempty"`
	Result  *DeviceAnalysis            `json:"result,omitempty"`
	Jobs    map[string]string          `json:"jobs,omitempty"`
	Results map[string]*DeviceAnalysis `json:"results,omitempty"`
	Error   string                     `json:"error,omitempty"`
}

// FanOut describes an owner or fleet level submission: the parent job id and
// the job id spawned for every device, keyed by external device id.
type FanOut struct {
	JobID string            `json:"task_id"`
	Jobs  map[string]string `json:"jobs"`
}
