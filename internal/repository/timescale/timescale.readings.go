// FilePath: internal/repository/timescale/timescale.readings.go
package timescale

import (
	"context"
	"time"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type ReadingRepo struct {
	TimeScaleBaseRepo
}

// NewReadingRepository creates the readings hypertable if needed
func NewReadingRepository(ctx context.Context, db database.DB) (*ReadingRepo, error) {
	repo := newReadingRepo(db)
	if err := repo.initializeSchema(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func newReadingRepo(db database.DB) *ReadingRepo {
	return &ReadingRepo{TimeScaleBaseRepo: TimeScaleBaseRepo{db: db}}
}

func (r *ReadingRepo) initializeSchema(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id TEXT NOT NULL,
			device_id BIGINT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			x DOUBLE PRECISION NOT NULL,
			y DOUBLE PRECISION NOT NULL,
			z DOUBLE PRECISION NOT NULL,
			PRIMARY KEY (id, timestamp)
		)`,
		`SELECT create_hypertable('readings', 'timestamp',
			chunk_time_interval => INTERVAL '1 day',
			if_not_exists => TRUE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_device_timestamp
		 ON readings(device_id, timestamp DESC)`,
	}

	for _, query := range queries {
		if _, err := r.db.GetDB().ExecContext(ctx, query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}

func (r *ReadingRepo) InsertReading(ctx context.Context, reading *models.Reading) error {
	if reading.ID == "" {
		reading.ID = nuts.NID("rd", 12)
	}
	query := `
		INSERT INTO readings (id, device_id, timestamp, x, y, z)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.GetDB().ExecContext(ctx, query,
		reading.ID, reading.DeviceID, reading.Timestamp, reading.X, reading.Y, reading.Z)
	if err != nil {
		return errors.NewDatabaseError("failed to insert reading", err)
	}
	return nil
}

// GetReadings returns the device's readings with start <= timestamp <= end
func (r *ReadingRepo) GetReadings(ctx context.Context, deviceID int64, start, end time.Time) ([]models.Reading, error) {
	readings := []models.Reading{}
	query := `
		SELECT id, device_id, timestamp, x, y, z
		FROM readings
		WHERE device_id = $1 AND timestamp BETWEEN $2 AND $3
		ORDER BY timestamp`

	err := r.db.GetDB().SelectContext(ctx, &readings, query, deviceID, start, end)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to get readings", err)
	}
	return readings, nil
}
