package postgres

import (
	"context"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS devices (
		id BIGSERIAL PRIMARY KEY,
		device_id TEXT NOT NULL UNIQUE,
		owner TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_devices_owner ON devices(owner)`,
	`CREATE TABLE IF NOT EXISTS analysis_results (
		id BIGSERIAL PRIMARY KEY,
		job_id TEXT NOT NULL UNIQUE,
		device_id BIGINT NOT NULL REFERENCES devices(id),
		start_time TIMESTAMPTZ NOT NULL,
		end_time TIMESTAMPTZ NOT NULL,
		avg_x DOUBLE PRECISION NOT NULL,
		avg_y DOUBLE PRECISION NOT NULL,
		avg_z DOUBLE PRECISION NOT NULL,
		total_records INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analysis_results_device ON analysis_results(device_id, created_at)`,
}

// InitSchema creates the application tables if they do not exist
func InitSchema(ctx context.Context, db database.DB) error {
	for _, query := range schema {
		if _, err := db.GetDB().ExecContext(ctx, query); err != nil {
			return errors.NewDatabaseError("failed to initialize schema", err)
		}
	}
	return nil
}
