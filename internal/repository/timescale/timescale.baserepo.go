package timescale

import (
	"context"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
)

// TimeScaleBaseRepo carries the readings database handle
type TimeScaleBaseRepo struct {
	db database.DB
}

// Ping reports whether TimescaleDB answers; used by the health check
func (r *TimeScaleBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewUnavailableError("timescaledb unreachable", err)
	}
	return nil
}
