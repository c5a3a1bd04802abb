// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"time"

	"github.com/itsatony/triaxis/internal/models"
)

// DeviceRepository is the device directory
type DeviceRepository interface {
	Create(ctx context.Context, device *models.Device) error
	Get(ctx context.Context, id int64) (*models.Device, error)
	GetByDeviceID(ctx context.Context, deviceID string) (*models.Device, error)
	ListByOwner(ctx context.Context, owner string) ([]*models.Device, error)
	List(ctx context.Context) ([]*models.Device, error)
}

// ReadingRepository stores the raw 3-axis samples
type ReadingRepository interface {
	InsertReading(ctx context.Context, reading *models.Reading) error
	GetReadings(ctx context.Context, deviceID int64, start, end time.Time) ([]models.Reading, error)
}

// AnalysisResultRepository is the durable job id → result mapping.
// Save must be safe to call more than once for the same job id: only the
// first call inserts, later calls report inserted=false and leave the row untouched.
type AnalysisResultRepository interface {
	Save(ctx context.Context, result *models.AnalysisResult) (inserted bool, err error)
	GetByJobID(ctx context.Context, jobID string) (*models.AnalysisResult, error)
	ListByDevice(ctx context.Context, deviceID int64) ([]*models.AnalysisResult, error)
}
