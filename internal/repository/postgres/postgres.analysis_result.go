// FilePath: internal/repository/postgres/postgres.analysis_result.go
package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	nuts "github.com/vaudience/go-nuts"
)

type AnalysisResultRepo struct {
	PostgresBaseRepo
}

func NewAnalysisResultRepository(db database.DB) *AnalysisResultRepo {
	repo := &PostgresBaseRepo{db: db}
	return &AnalysisResultRepo{PostgresBaseRepo: *repo}
}

// Save inserts the result unless a row for the same job id exists.
// The unique constraint on job_id arbitrates concurrent writers.
func (r *AnalysisResultRepo) Save(ctx context.Context, result *models.AnalysisResult) (bool, error) {
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO analysis_results (
			job_id, device_id, start_time, end_time,
			avg_x, avg_y, avg_z, total_records, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (job_id) DO NOTHING
		RETURNING id`

	err := r.db.GetDB().QueryRowxContext(ctx, query,
		result.JobID, result.DeviceID, result.StartTime, result.EndTime,
		result.AvgX, result.AvgY, result.AvgZ, result.TotalRecords, result.CreatedAt,
	).Scan(&result.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			nuts.L.Infof("[AnalysisResultRepo] Result for job %s already stored, skipping", result.JobID)
			return false, nil
		}
		return false, errors.NewPersistenceError("failed to store analysis result", err)
	}
	return true, nil
}

func (r *AnalysisResultRepo) GetByJobID(ctx context.Context, jobID string) (*models.AnalysisResult, error) {
	result := &models.AnalysisResult{}
	query := `
		SELECT id, job_id, device_id, start_time, end_time,
			avg_x, avg_y, avg_z, total_records, created_at
		FROM analysis_results
		WHERE job_id = $1`

	err := r.db.GetDB().GetContext(ctx, result, query, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("analysis result not found", err)
		}
		return nil, errors.NewDatabaseError("failed to get analysis result", err)
	}
	return result, nil
}

func (r *AnalysisResultRepo) ListByDevice(ctx context.Context, deviceID int64) ([]*models.AnalysisResult, error) {
	results := []*models.AnalysisResult{}
	query := `
		SELECT id, job_id, device_id, start_time, end_time,
			avg_x, avg_y, avg_z, total_records, created_at
		FROM analysis_results
		WHERE device_id = $1
		ORDER BY created_at, id`

	err := r.db.GetDB().SelectContext(ctx, &results, query, deviceID)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to list analysis results", err)
	}
	return results, nil
}
