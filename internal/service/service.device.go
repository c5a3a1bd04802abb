package service

import (
	"context"
	"strings"
	"time"

	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

// RegisterDevice records a new device. Registering the same device id twice
// is a conflict.
func (s *Service) RegisterDevice(ctx context.Context, reg models.DeviceRegistration) (*models.Device, error) {
	deviceID := strings.TrimSpace(reg.DeviceID)
	if deviceID == "" {
		return nil, errors.NewValidationError("device_id is required", nil)
	}

	device := &models.Device{
		DeviceID:  deviceID,
		Owner:     reg.Owner,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Devices.Create(ctx, device); err != nil {
		return nil, err
	}

	nuts.L.Infof("[DeviceService] Registered device %s as %d", device.DeviceID, device.ID)
	return device, nil
}

func (s *Service) GetDevice(ctx context.Context, id int64) (*models.Device, error) {
	return s.Devices.Get(ctx, id)
}

// ResolveDevice looks a device up by its external id
func (s *Service) ResolveDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	return s.Devices.GetByDeviceID(ctx, deviceID)
}

// ListDevices returns all devices, or only those of owner when it is set
func (s *Service) ListDevices(ctx context.Context, owner string) ([]*models.Device, error) {
	if owner != "" {
		return s.Devices.ListByOwner(ctx, owner)
	}
	return s.Devices.List(ctx)
}

// RecordReading stores one sample for an existing device. A missing
// timestamp means now.
func (s *Service) RecordReading(ctx context.Context, deviceID int64, in models.ReadingInput) (*models.Reading, error) {
	if in.X == nil || in.Y == nil || in.Z == nil {
		return nil, errors.NewValidationError("x, y and z are required", nil)
	}
	if _, err := s.Devices.Get(ctx, deviceID); err != nil {
		return nil, err
	}

	reading := &models.Reading{
		DeviceID:  deviceID,
		Timestamp: time.Now().UTC(),
		X:         *in.X,
		Y:         *in.Y,
		Z:         *in.Z,
	}
	if in.Timestamp != nil && !in.Timestamp.IsZero() {
		reading.Timestamp = in.Timestamp.UTC()
	}

	if err := s.Readings.InsertReading(ctx, reading); err != nil {
		return nil, errors.NewDatabaseError("failed to store reading", err)
	}
	return reading, nil
}

// GetReadings lists the readings of a device inside window
func (s *Service) GetReadings(ctx context.Context, deviceID int64, window models.Window) ([]models.Reading, error) {
	if err := window.Validate(); err != nil {
		return nil, errors.NewValidationError(err.Error(), err)
	}
	readings, err := s.Readings.GetReadings(ctx, deviceID, window.Start, window.End)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to load readings", err)
	}
	return readings, nil
}

// GetDeviceAnalytics computes per-axis statistics synchronously. An empty
// window is NotFound.
func (s *Service) GetDeviceAnalytics(ctx context.Context, deviceID int64, window models.Window) (*models.DeviceAnalytics, error) {
	readings, err := s.GetReadings(ctx, deviceID, window)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, errors.NewNotFoundError("no stats found for the given period", nil)
	}
	analytics := models.AnalyzeReadings(readings)
	return &analytics, nil
}
