package queue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

// RedisConfig holds configuration for the Redis queue
type RedisConfig struct {
	Name      string
	StatusTTL time.Duration
}

// RedisQueue keeps pending tasks in a list, reserved tasks in a processing
// list, and one hash per job holding its state and outcome.
type RedisQueue struct {
	client *redis.Client
	config RedisConfig
}

const (
	fieldKind      = "kind"
	fieldState     = "state"
	fieldPayload   = "payload"
	fieldOutcome   = "outcome"
	fieldError     = "error"
	fieldCreatedAt = "created_at"
	fieldUpdatedAt = "updated_at"

	maxWatchRetries = 5
)

// NewRedisQueue wraps an existing client
func NewRedisQueue(client *redis.Client, config RedisConfig) (*RedisQueue, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	return &RedisQueue{client: client, config: config}, nil
}

func (q *RedisQueue) pendingKey() string {
	return q.config.Name + ":pending"
}

func (q *RedisQueue) processingKey() string {
	return q.config.Name + ":processing"
}

func (q *RedisQueue) jobKey(jobID string) string {
	return q.config.Name + ":job:" + jobID
}

func (q *RedisQueue) Enqueue(ctx context.Context, task *Task) error {
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	now := time.Now().UTC()
	if task.EnqueuedAt.IsZero() {
		task.EnqueuedAt = now
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", task.ID, err)
	}

	// no TTL until the job finishes, a queued job must never vanish
	key := q.jobKey(task.ID)
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			fieldKind, string(task.Kind),
			fieldState, string(StatePending),
			fieldPayload, string(payload),
			fieldCreatedAt, formatTime(now),
			fieldUpdatedAt, formatTime(now),
		)
		pipe.LPush(ctx, q.pendingKey(), payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", task.ID, err)
	}
	return nil
}

func (q *RedisQueue) Reserve(ctx context.Context, timeout time.Duration) (*Task, error) {
	payload, err := q.client.BRPopLPush(ctx, q.pendingKey(), q.processingKey(), timeout).Result()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, ErrNoTask
		}
		if stderrors.Is(err, redis.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("failed to reserve task: %w", err)
	}

	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		// an undecodable payload can never succeed, drop it from the processing list
		q.release(ctx, payload)
		return nil, fmt.Errorf("failed to decode task payload: %w", err)
	}

	_, _, err = q.transition(ctx, task.ID, true, func(pipe redis.Pipeliner, key string) {
		pipe.HSet(ctx, key, fieldState, string(StateRunning), fieldUpdatedAt, formatTime(time.Now().UTC()))
	})
	if err != nil {
		nuts.L.Warnf("[Queue] Failed to mark job %s running: %v", task.ID, err)
	}
	return &task, nil
}

func (q *RedisQueue) Complete(ctx context.Context, jobID string, outcome Outcome) error {
	encoded, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome of job %s: %w", jobID, err)
	}
	return q.finish(ctx, jobID, func(pipe redis.Pipeliner, key string) {
		now := formatTime(time.Now().UTC())
		pipe.HSetNX(ctx, key, fieldKind, string(kindOf(outcome)))
		pipe.HSetNX(ctx, key, fieldCreatedAt, now)
		pipe.HSet(ctx, key,
			fieldState, string(StateSucceeded),
			fieldOutcome, string(encoded),
			fieldUpdatedAt, now,
		)
	})
}

func (q *RedisQueue) Fail(ctx context.Context, jobID string, detail string) error {
	return q.finish(ctx, jobID, func(pipe redis.Pipeliner, key string) {
		now := formatTime(time.Now().UTC())
		pipe.HSetNX(ctx, key, fieldKind, string(KindDeviceAnalysis))
		pipe.HSetNX(ctx, key, fieldCreatedAt, now)
		pipe.HSet(ctx, key,
			fieldState, string(StateFailed),
			fieldError, detail,
			fieldUpdatedAt, now,
		)
	})
}

// finish applies a terminal transition and releases the in-flight copy
func (q *RedisQueue) finish(ctx context.Context, jobID string, apply func(redis.Pipeliner, string)) error {
	// Complete also creates synthetic fan-out parents, so no record is required
	payload, _, err := q.transition(ctx, jobID, false, func(pipe redis.Pipeliner, key string) {
		apply(pipe, key)
		q.expire(ctx, pipe, key)
	})
	if err != nil {
		return err
	}
	if payload != "" {
		q.release(ctx, payload)
	}
	return nil
}

// transition runs apply atomically unless the job already reached a
// terminal state. With requireRecord it also skips jobs whose record is
// gone. It returns the stored task payload and whether apply ran.
func (q *RedisQueue) transition(ctx context.Context, jobID string, requireRecord bool, apply func(redis.Pipeliner, string)) (string, bool, error) {
	key := q.jobKey(jobID)

	var (
		payload string
		applied bool
	)
	txf := func(tx *redis.Tx) error {
		applied = false
		values, err := tx.HMGet(ctx, key, fieldState, fieldPayload).Result()
		if err != nil {
			return err
		}
		state, _ := values[0].(string)
		payload, _ = values[1].(string)
		if State(state).Terminal() || (requireRecord && state == "") {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			apply(pipe, key)
			return nil
		})
		applied = err == nil
		return err
	}

	var err error
	for i := 0; i < maxWatchRetries; i++ {
		err = q.client.Watch(ctx, txf, key)
		if !stderrors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to update job %s: %w", jobID, err)
	}
	return payload, applied, nil
}

// release removes one in-flight copy of payload from the processing list
func (q *RedisQueue) release(ctx context.Context, payload string) {
	if err := q.client.LRem(ctx, q.processingKey(), 1, payload).Err(); err != nil {
		nuts.L.Warnf("[Queue] Failed to release task from processing list: %v", err)
	}
}

func (q *RedisQueue) Status(ctx context.Context, jobID string) (*JobRecord, error) {
	values, err := q.client.HGetAll(ctx, q.jobKey(jobID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get status of job %s: %w", jobID, err)
	}
	if len(values) == 0 {
		return nil, ErrUnknownJob
	}

	job := &JobRecord{
		ID:        jobID,
		Kind:      TaskKind(values[fieldKind]),
		State:     State(values[fieldState]),
		Error:     values[fieldError],
		CreatedAt: parseTime(values[fieldCreatedAt]),
		UpdatedAt: parseTime(values[fieldUpdatedAt]),
	}
	if raw := values[fieldOutcome]; raw != "" {
		var outcome Outcome
		if err := json.Unmarshal([]byte(raw), &outcome); err != nil {
			return nil, fmt.Errorf("failed to decode outcome of job %s: %w", jobID, err)
		}
		job.Outcome = &outcome
	}
	return job, nil
}

// Recover moves every unfinished in-flight task back to the pending list.
// Tasks whose job already reached a terminal state, or whose record has
// expired, are dropped instead. Only call it when no other worker process is
// consuming the same queue.
func (q *RedisQueue) Recover(ctx context.Context) (int, error) {
	payloads, err := q.client.LRange(ctx, q.processingKey(), 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to list in-flight tasks: %w", err)
	}

	moved := 0
	for _, payload := range payloads {
		var task Task
		if err := json.Unmarshal([]byte(payload), &task); err != nil {
			nuts.L.Warnf("[Queue] Dropping undecodable in-flight task: %v", err)
			q.release(ctx, payload)
			continue
		}

		_, applied, err := q.transition(ctx, task.ID, true, func(pipe redis.Pipeliner, key string) {
			pipe.HSet(ctx, key, fieldState, string(StatePending), fieldUpdatedAt, formatTime(time.Now().UTC()))
		})
		if err != nil {
			return moved, fmt.Errorf("failed to recover in-flight tasks: %w", err)
		}
		if !applied {
			nuts.L.Infof("[Queue] Job %s already finished or expired, dropping its in-flight copy", task.ID)
			q.release(ctx, payload)
			continue
		}

		_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.LRem(ctx, q.processingKey(), 1, payload)
			pipe.RPush(ctx, q.pendingKey(), payload)
			return nil
		})
		if err != nil {
			return moved, fmt.Errorf("failed to re-queue job %s: %w", task.ID, err)
		}
		moved++
	}
	return moved, nil
}

// Pending returns the number of tasks waiting to be reserved
func (q *RedisQueue) Pending(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.pendingKey()).Result()
}

// Ping reports whether Redis answers
func (q *RedisQueue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *RedisQueue) Close() error {
	return q.client.Close()
}

func (q *RedisQueue) expire(ctx context.Context, pipe redis.Pipeliner, key string) {
	if q.config.StatusTTL > 0 {
		pipe.Expire(ctx, key, q.config.StatusTTL)
	}
}

func formatTime(t time.Time) string {
	return strconv.FormatInt(t.UnixNano(), 10)
}

func parseTime(s string) time.Time {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
