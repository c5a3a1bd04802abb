// FilePath: internal/repository/postgres/postgres.device.go
package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type DeviceRepo struct {
	PostgresBaseRepo
}

func NewDeviceRepository(db database.DB) *DeviceRepo {
	repo := &PostgresBaseRepo{db: db}
	return &DeviceRepo{PostgresBaseRepo: *repo}
}

// Create inserts the device and fills in its internal id and creation time
func (r *DeviceRepo) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (device_id, owner)
		VALUES ($1, $2)
		RETURNING id, created_at`

	err := r.db.GetDB().QueryRowxContext(ctx, query, device.DeviceID, device.Owner).
		Scan(&device.ID, &device.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewConflictError("device with ID "+device.DeviceID+" already exists", err)
		}
		return errors.NewDatabaseError("failed to create device", err)
	}
	return nil
}

func (r *DeviceRepo) Get(ctx context.Context, id int64) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT id, device_id, owner, created_at FROM devices WHERE id = $1`

	err := r.db.GetDB().GetContext(ctx, device, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) GetByDeviceID(ctx context.Context, deviceID string) (*models.Device, error) {
	device := &models.Device{}
	query := `SELECT id, device_id, owner, created_at FROM devices WHERE device_id = $1`

	err := r.db.GetDB().GetContext(ctx, device, query, deviceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("device not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get device", err)
	}
	return device, nil
}

func (r *DeviceRepo) ListByOwner(ctx context.Context, owner string) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT id, device_id, owner, created_at FROM devices WHERE owner = $1 ORDER BY id`

	err := r.db.GetDB().SelectContext(ctx, &devices, query, owner)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func (r *DeviceRepo) List(ctx context.Context) ([]*models.Device, error) {
	devices := []*models.Device{}
	query := `SELECT id, device_id, owner, created_at FROM devices ORDER BY id`

	err := r.db.GetDB().SelectContext(ctx, &devices, query)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list devices", err)
	}
	return devices, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
