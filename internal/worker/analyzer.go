package worker

import (
	"context"

	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/itsatony/triaxis/internal/queue"
	"github.com/itsatony/triaxis/internal/repository"
	"github.com/itsatony/triaxis/internal/stats"
	nuts "github.com/vaudience/go-nuts"
)

// DeviceAnalyzer averages each axis of a device's readings inside the task
// window and persists the result under the job id.
type DeviceAnalyzer struct {
	readings repository.ReadingRepository
	results  repository.AnalysisResultRepository
}

// NewDeviceAnalyzer creates an analyzer over the given stores
func NewDeviceAnalyzer(readings repository.ReadingRepository, results repository.AnalysisResultRepository) *DeviceAnalyzer {
	return &DeviceAnalyzer{readings: readings, results: results}
}

// Analyze computes and stores the per-axis averages for one device task
func (a *DeviceAnalyzer) Analyze(ctx context.Context, task *queue.Task) (queue.Outcome, error) {
	readings, err := a.readings.GetReadings(ctx, task.DeviceID, task.Window.Start, task.Window.End)
	if err != nil {
		return queue.Outcome{}, errors.NewUpstreamError("failed to load readings", err)
	}

	if len(readings) == 0 {
		nuts.L.Debugf("[Analyzer] No readings for device %d in window of job %s", task.DeviceID, task.ID)
		return queue.NoDataOutcome(&models.DeviceAnalysis{
			DeviceID:  task.DeviceID,
			StartTime: task.Window.Start,
			EndTime:   task.Window.End,
		}), nil
	}

	xs, ys, zs := models.Axes(readings)
	avgX, _ := stats.Mean(xs)
	avgY, _ := stats.Mean(ys)
	avgZ, _ := stats.Mean(zs)

	result := &models.AnalysisResult{
		JobID:        task.ID,
		DeviceID:     task.DeviceID,
		StartTime:    task.Window.Start,
		EndTime:      task.Window.End,
		AvgX:         avgX,
		AvgY:         avgY,
		AvgZ:         avgZ,
		TotalRecords: len(readings),
	}

	inserted, err := a.results.Save(ctx, result)
	if err != nil {
		return queue.Outcome{}, errors.NewPersistenceError("failed to store analysis result", err)
	}
	if !inserted {
		// redelivered task, report what the first attempt stored
		stored, err := a.results.GetByJobID(ctx, task.ID)
		if err != nil {
			return queue.Outcome{}, errors.NewPersistenceError("failed to load stored analysis result", err)
		}
		result = stored
	}

	return queue.SingleOutcome(result.Analysis()), nil
}
