package postgres

import (
	"context"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
)

// PostgresBaseRepo carries the app database handle shared by the repositories
type PostgresBaseRepo struct {
	db database.DB
}

// Ping reports whether the app database answers; used by the health check
func (r *PostgresBaseRepo) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return errors.NewUnavailableError("app database unreachable", err)
	}
	return nil
}
