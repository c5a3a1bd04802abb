package queue

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/itsatony/triaxis/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisQueue(t *testing.T) (*RedisQueue, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	q, err := NewRedisQueue(client, RedisConfig{Name: "test", StatusTTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { q.Close() })
	return q, mr
}

func TestNewRedisQueueValidates(t *testing.T) {
	_, err := NewRedisQueue(nil, RedisConfig{Name: "x"})
	assert.Error(t, err)

	_, err = NewRedisQueue(redis.NewClient(&redis.Options{}), RedisConfig{})
	assert.Error(t, err)
}

func TestRedisQueueLifecycle(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)

	task := newTask("job-1")
	require.NoError(t, q.Enqueue(ctx, task))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), pending)

	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, job.State)
	assert.Equal(t, KindDeviceAnalysis, job.Kind)
	assert.False(t, job.CreatedAt.IsZero())

	reserved, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, task.ID, reserved.ID)
	assert.True(t, task.Window.Start.Equal(reserved.Window.Start))

	inFlight, err := mr.List("test:processing")
	require.NoError(t, err)
	assert.Len(t, inFlight, 1)

	job, err = q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, job.State)

	avg := 2.0
	require.NoError(t, q.Complete(ctx, "job-1", SingleOutcome(&models.DeviceAnalysis{DeviceID: 7, AvgX: &avg, TotalRecords: 2})))

	job, err = q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, job.State)
	require.NotNil(t, job.Outcome)
	assert.Equal(t, OutcomeSingle, job.Outcome.Kind)
	assert.Equal(t, 2.0, *job.Outcome.Analysis.AvgX)

	assert.False(t, mr.Exists("test:processing"), "finished task must leave the processing list")
	assert.True(t, mr.TTL("test:job:job-1") > 0)
}

func TestRedisQueueReserveTimesOut(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	_, err := q.Reserve(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoTask)
}

func TestRedisQueueUnknownJob(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	_, err := q.Status(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestRedisQueueTerminalStateIsFinal(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))

	require.NoError(t, q.Complete(ctx, "job-1", NoDataOutcome(&models.DeviceAnalysis{DeviceID: 7})))
	require.NoError(t, q.Fail(ctx, "job-1", "late failure"))

	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateSucceeded, job.State)
	assert.Empty(t, job.Error)
	assert.Equal(t, OutcomeNoData, job.Outcome.Kind)
}

func TestRedisQueueFailRecordsDetail(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))
	_, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, q.Fail(ctx, "job-1", "persistence: write failed"))

	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, "persistence: write failed", job.Error)
	assert.Nil(t, job.Outcome)
}

func TestRedisQueueCompleteCreatesFanOutParent(t *testing.T) {
	ctx := context.Background()
	q, _ := newTestRedisQueue(t)

	jobs := map[string]string{"dev-a": "c1", "dev-b": "c2", "dev-c": "c3"}
	require.NoError(t, q.Complete(ctx, "parent", FanOutOutcome(jobs)))

	job, err := q.Status(ctx, "parent")
	require.NoError(t, err)
	assert.Equal(t, KindFanOut, job.Kind)
	assert.Equal(t, StateSucceeded, job.State)
	assert.Equal(t, OutcomeFanOut, job.Outcome.Kind)
	assert.Equal(t, jobs, job.Outcome.Jobs)
}

func TestRedisQueueRecover(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))
	require.NoError(t, q.Enqueue(ctx, newTask("job-2")))

	_, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	_, err = q.Reserve(ctx, time.Second)
	require.NoError(t, err)

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, moved)
	assert.False(t, mr.Exists("test:processing"))

	pending, err := q.Pending(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, job.State)
}

func TestRedisQueueRecoverKeepsFinishedJobsFinished(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))
	require.NoError(t, q.Enqueue(ctx, newTask("job-2")))
	_, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	_, err = q.Reserve(ctx, time.Second)
	require.NoError(t, err)

	// job-1 committed its failure but its worker died before releasing it
	mr.HSet("test:job:job-1", fieldState, string(StateFailed), fieldError, "upstream: boom")

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.False(t, mr.Exists("test:processing"))

	reserved, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "job-2", reserved.ID)
	_, err = q.Reserve(ctx, 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrNoTask)

	require.NoError(t, q.Complete(ctx, "job-1", NoDataOutcome(&models.DeviceAnalysis{DeviceID: 7})))
	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateFailed, job.State)
	assert.Equal(t, "upstream: boom", job.Error)
}

func TestRedisQueueRecoverDropsExpiredRecords(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))
	_, err := q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	mr.Del("test:job:job-1")

	moved, err := q.Recover(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)
	assert.False(t, mr.Exists("test:processing"))
	assert.False(t, mr.Exists("test:job:job-1"), "recovery must not recreate an expired record")
}

func TestRedisQueueStatusTTLStartsWhenJobFinishes(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	require.NoError(t, q.Enqueue(ctx, newTask("job-1")))
	require.NoError(t, q.Enqueue(ctx, newTask("job-2")))

	mr.FastForward(2 * time.Hour)
	job, err := q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, job.State)

	_, err = q.Reserve(ctx, time.Second)
	require.NoError(t, err)
	mr.FastForward(2 * time.Hour)
	job, err = q.Status(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, StateRunning, job.State)

	require.NoError(t, q.Complete(ctx, "job-1", NoDataOutcome(&models.DeviceAnalysis{DeviceID: 7})))
	assert.True(t, mr.TTL("test:job:job-1") > 0)
	assert.Equal(t, time.Duration(0), mr.TTL("test:job:job-2"))

	mr.FastForward(2 * time.Hour)
	_, err = q.Status(ctx, "job-1")
	assert.ErrorIs(t, err, ErrUnknownJob)
	job, err = q.Status(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, StatePending, job.State)
}

func TestRedisQueueDropsUndecodablePayload(t *testing.T) {
	ctx := context.Background()
	q, mr := newTestRedisQueue(t)
	_, err := mr.Lpush("test:pending", "{not json")
	require.NoError(t, err)

	_, err = q.Reserve(ctx, time.Second)
	assert.Error(t, err)
	assert.False(t, mr.Exists("test:processing"))
}

func TestRedisQueueReserveAfterClose(t *testing.T) {
	q, _ := newTestRedisQueue(t)
	require.NoError(t, q.Close())

	_, err := q.Reserve(context.Background(), 50*time.Millisecond)
	assert.ErrorIs(t, err, ErrClosed)
}
