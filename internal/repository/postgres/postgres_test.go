package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (database.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return database.Wrap(sqlx.NewDb(db, "postgres")), mock
}

var deviceColumns = []string{"id", "device_id", "owner", "created_at"}

func TestDeviceRepoCreate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)
	now := time.Now().UTC()
	owner := "alice"

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO devices (device_id, owner)")).
		WithArgs("acc-1", "alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), now))

	device := &models.Device{DeviceID: "acc-1", Owner: &owner}
	require.NoError(t, repo.Create(context.Background(), device))
	assert.Equal(t, int64(4), device.ID)
	assert.Equal(t, now, device.CreatedAt)
}

func TestDeviceRepoCreateDuplicateIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO devices")).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	err := repo.Create(context.Background(), &models.Device{DeviceID: "acc-1"})
	assert.True(t, errors.IsConflict(err))
}

func TestDeviceRepoGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM devices WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), 9)
	assert.True(t, errors.IsNotFound(err))
}

func TestDeviceRepoGetByDeviceID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM devices WHERE device_id = $1")).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows(deviceColumns).AddRow(int64(2), "acc-1", nil, now))

	device, err := repo.GetByDeviceID(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), device.ID)
	assert.Nil(t, device.Owner)
}

func TestDeviceRepoListByOwner(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewDeviceRepository(db)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE owner = $1 ORDER BY id")).
		WithArgs("bob").
		WillReturnRows(sqlmock.NewRows(deviceColumns).
			AddRow(int64(1), "acc-1", "bob", now).
			AddRow(int64(3), "acc-3", "bob", now))

	devices, err := repo.ListByOwner(context.Background(), "bob")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "acc-3", devices[1].DeviceID)
	assert.Equal(t, "bob", *devices[0].Owner)
}

func analysisResult() *models.AnalysisResult {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &models.AnalysisResult{
		JobID:        "job-1",
		DeviceID:     1,
		StartTime:    start,
		EndTime:      start.Add(time.Hour),
		AvgX:         2,
		AvgY:         2,
		AvgZ:         2,
		TotalRecords: 2,
	}
}

func TestAnalysisResultRepoSaveInserts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisResultRepository(db)
	result := analysisResult()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (job_id) DO NOTHING")).
		WithArgs("job-1", int64(1), result.StartTime, result.EndTime, 2.0, 2.0, 2.0, 2, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	inserted, err := repo.Save(context.Background(), result)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, int64(11), result.ID)
	assert.False(t, result.CreatedAt.IsZero())
}

func TestAnalysisResultRepoSaveDuplicateIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (job_id) DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	inserted, err := repo.Save(context.Background(), analysisResult())
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestAnalysisResultRepoSaveFailureIsPersistenceError(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisResultRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO analysis_results")).
		WillReturnError(sql.ErrConnDone)

	_, err := repo.Save(context.Background(), analysisResult())
	assert.True(t, errors.IsType(err, errors.ErrorTypePersistence))
}

func TestAnalysisResultRepoGetByJobID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnalysisResultRepository(db)
	r := analysisResult()
	columns := []string{"id", "job_id", "device_id", "start_time", "end_time", "avg_x", "avg_y", "avg_z", "total_records", "created_at"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE job_id = $1")).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(11), r.JobID, r.DeviceID, r.StartTime, r.EndTime, 1.5, 2.5, 3.5, 4, time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE job_id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	stored, err := repo.GetByJobID(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, 2.5, stored.AvgY)
	assert.Equal(t, 4, stored.TotalRecords)

	_, err = repo.GetByJobID(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}

func TestInitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	for range schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, InitSchema(context.Background(), db))
}

func TestPingMapsToUnavailable(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	repo := NewDeviceRepository(database.Wrap(sqlx.NewDb(db, "postgres")))
	err = repo.Ping(context.Background())
	assert.True(t, errors.IsType(err, errors.ErrorTypeUnavailable))
	assert.NoError(t, mock.ExpectationsWereMet())
}
