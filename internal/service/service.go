package service

import (
	"github.com/google/uuid"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/queue"
	"github.com/itsatony/triaxis/internal/repository"
)

// Service contains all repositories and service-wide dependencies
type Service struct {
	Devices  repository.DeviceRepository
	Readings repository.ReadingRepository
	Results  repository.AnalysisResultRepository
	Queue    queue.Queue
	Events   *events.Bus

	newJobID func() string
}

// New creates a new service instance
func New(
	devices repository.DeviceRepository,
	readings repository.ReadingRepository,
	results repository.AnalysisResultRepository,
	q queue.Queue,
	bus *events.Bus,
) *Service {
	return &Service{
		Devices:  devices,
		Readings: readings,
		Results:  results,
		Queue:    q,
		Events:   bus,
		newJobID: uuid.NewString,
	}
}

// Validate checks if all required dependencies are initialized
func (s *Service) Validate() error {
	if s.Devices == nil {
		return ErrMissingRepository("devices")
	}
	if s.Readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.Results == nil {
		return ErrMissingRepository("results")
	}
	if s.Queue == nil {
		return errors.NewInternalError("missing queue", nil)
	}
	return nil
}

// ErrMissingRepository reports a dependency New was given as nil
func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
