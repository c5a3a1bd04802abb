package timescale

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/errors"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/jmoiron/sqlx"
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

func TestNewReadingRepositoryCreatesHypertable(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS readings")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("SELECT create_hypertable('readings'")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE INDEX IF NOT EXISTS idx_readings_device_timestamp")).WillReturnResult(sqlmock.NewResult(0, 0))

	repo, err := NewReadingRepository(context.Background(), db)
	require.NoError(t, err)
	assert.NotNil(t, repo)
}

func TestNewReadingRepositorySchemaFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS readings")).WillReturnError(assert.AnError)

	_, err := NewReadingRepository(context.Background(), db)
	assert.True(t, errors.IsType(err, errors.ErrorTypeDatabase))
}

func TestInsertReadingAssignsID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newReadingRepo(db)
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO readings (id, device_id, timestamp, x, y, z)")).
		WithArgs(sqlmock.AnyArg(), int64(3), ts, 1.0, 2.0, 3.0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	reading := &models.Reading{DeviceID: 3, Timestamp: ts, X: 1, Y: 2, Z: 3}
	require.NoError(t, repo.InsertReading(context.Background(), reading))
	assert.NotEmpty(t, reading.ID)
}

func TestGetReadingsFiltersByWindow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := newReadingRepo(db)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE device_id = $1 AND timestamp BETWEEN $2 AND $3")).
		WithArgs(int64(3), start, end).
		WillReturnRows(sqlmock.NewRows([]string{"id", "device_id", "timestamp", "x", "y", "z"}).
			AddRow("rd1", int64(3), start.Add(time.Minute), 1.0, 1.0, 1.0).
			AddRow("rd2", int64(3), start.Add(2*time.Minute), 3.0, 3.0, 3.0))

	readings, err := repo.GetReadings(context.Background(), 3, start, end)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, "rd2", readings[1].ID)
	assert.Equal(t, 3.0, readings[1].Z)
}
