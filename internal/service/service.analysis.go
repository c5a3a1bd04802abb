package service

import (
	"context"
	stderrors "errors"
	"strings"

	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/itsatony/triaxis/internal/queue"
	nuts "github.com/vaudience/go-nuts"
)

// ErrResultNotFound is wrapped by the NotFound error returned for a job that
// finished without any result payload.
var ErrResultNotFound = stderrors.New("analysis result not found")

// StartDeviceAnalysis enqueues one analysis job for the device and returns
// its id without waiting for it to run.
func (s *Service) StartDeviceAnalysis(ctx context.Context, deviceID int64, window models.Window) (string, error) {
	if err := window.Validate(); err != nil {
		return "", errors.NewValidationError(err.Error(), err)
	}
	if _, err := s.Devices.Get(ctx, deviceID); err != nil {
		return "", err
	}
	return s.enqueueDevice(ctx, deviceID, utc(window))
}

// StartOwnerAnalysis spawns one job per device of owner. The returned parent
// job id is queryable at once and reports the full device to job mapping.
func (s *Service) StartOwnerAnalysis(ctx context.Context, owner string, window models.Window) (*models.FanOut, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, errors.NewValidationError("owner is required", nil)
	}
	if err := window.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}

	devices, err := s.Devices.ListByOwner(ctx, owner)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices of owner", err)
	}
	if len(devices) == 0 {
		return nil, errors.NewNotFoundError("no devices found for owner "+owner, nil)
	}
	return s.fanOut(ctx, devices, utc(window))
}

// StartFleetAnalysis is StartOwnerAnalysis over every registered device
func (s *Service) StartFleetAnalysis(ctx context.Context, window models.Window) (*models.FanOut, error) {
	if err := window.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}

	devices, err := s.Devices.List(ctx)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	if len(devices) == 0 {
		return nil, errors.NewNotFoundError("no devices registered", nil)
	}
	return s.fanOut(ctx, devices, utc(window))
}

func (s *Service) fanOut(ctx context.Context, devices []*models.Device, window models.Window) (*models.FanOut, error) {
	jobs := make(map[string]string, len(devices))
	for _, device := range devices {
		jobID, err := s.enqueueDevice(ctx, device.ID, window)
		if err != nil {
			nuts.L.Errorf("[AnalysisService] Fan-out aborted after %d of %d devices: %v", len(jobs), len(devices), err)
			return nil, err
		}
		jobs[device.DeviceID] = jobID
	}

	parentID := s.newJobID()
	if err := s.Queue.Complete(ctx, parentID, queue.FanOutOutcome(jobs)); err != nil {
		return nil, errors.NewInternalError("failed to record fan-out job", err)
	}
	s.Events.Emit(events.JobEnqueued, events.JobEvent{JobID: parentID, Kind: string(queue.KindFanOut)})

	nuts.L.Infof("[AnalysisService] Job %s fanned out to %d devices", parentID, len(jobs))
	return &models.FanOut{JobID: parentID, Jobs: jobs}, nil
}

func (s *Service) enqueueDevice(ctx context.Context, deviceID int64, window models.Window) (string, error) {
	task := &queue.Task{
		ID:       s.newJobID(),
		Kind:     queue.KindDeviceAnalysis,
		DeviceID: deviceID,
		Window:   window,
	}
	if err := s.Queue.Enqueue(ctx, task); err != nil {
		return "", errors.NewInternalError("failed to enqueue analysis job", err)
	}
	s.Events.Emit(events.JobEnqueued, events.JobEvent{JobID: task.ID, Kind: string(task.Kind), DeviceID: deviceID})

	nuts.L.Debugf("[AnalysisService] Enqueued job %s for device %d", task.ID, deviceID)
	return task.ID, nil
}

// JobStatus reports the state of a job. A persisted result wins over the
// queue's view; fan-out jobs report every child result available so far.
func (s *Service) JobStatus(ctx context.Context, jobID string) (*models.JobStatus, error) {
	stored, err := s.Results.GetByJobID(ctx, jobID)
	if err == nil {
		return &models.JobStatus{Status: models.JobSucceeded, JobID: jobID, Result: stored.Analysis()}, nil
	}
	if !errors.IsNotFound(err) {
		return nil, errors.NewDatabaseError("failed to load analysis result", err)
	}

	job, err := s.Queue.Status(ctx, jobID)
	if err != nil {
		if stderrors.Is(err, queue.ErrUnknownJob) {
			return nil, errors.NewNotFoundError("job not found", err)
		}
		return nil, errors.NewInternalError("failed to query job status", err)
	}

	status := &models.JobStatus{JobID: jobID}
	switch job.State {
	case queue.StateFailed:
		status.Status = models.JobFailed
		status.Error = job.Error
		return status, nil
	case queue.StateSucceeded:
	default:
		status.Status = models.JobPending
		return status, nil
	}

	if job.Outcome == nil {
		return nil, errors.NewNotFoundError("analysis result not found", ErrResultNotFound)
	}

	status.Status = models.JobSucceeded
	switch job.Outcome.Kind {
	case queue.OutcomeFanOut:
		status.Jobs = job.Outcome.Jobs
		status.Results = make(map[string]*models.DeviceAnalysis, len(job.Outcome.Jobs))
		for deviceID, childID := range job.Outcome.Jobs {
			if result, ok := s.childResult(ctx, childID); ok {
				status.Results[deviceID] = result
			}
		}
	case queue.OutcomeNoData:
		status.NoData = true
		status.Result = job.Outcome.Analysis
	default:
		if job.Outcome.Analysis == nil {
			return nil, errors.NewNotFoundError("analysis result not found", ErrResultNotFound)
		}
		status.Result = job.Outcome.Analysis
	}
	return status, nil
}

// childResult returns the result of a finished child job, if there is one yet
func (s *Service) childResult(ctx context.Context, jobID string) (*models.DeviceAnalysis, bool) {
	if stored, err := s.Results.GetByJobID(ctx, jobID); err == nil {
		return stored.Analysis(), true
	}
	job, err := s.Queue.Status(ctx, jobID)
	if err != nil || job.State != queue.StateSucceeded || job.Outcome == nil || job.Outcome.Analysis == nil {
		return nil, false
	}
	return job.Outcome.Analysis, true
}

// ListDeviceAnalyses returns the stored results of a device, oldest first
func (s *Service) ListDeviceAnalyses(ctx context.Context, deviceID int64) ([]*models.AnalysisResult, error) {
	results, err := s.Results.ListByDevice(ctx, deviceID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list analysis results", err)
	}
	if len(results) == 0 {
		return nil, errors.NewNotFoundError("no analysis results found", nil)
	}
	return results, nil
}

func utc(w models.Window) models.Window {
	return models.Window{Start: w.Start.UTC(), End: w.End.UTC()}
}
