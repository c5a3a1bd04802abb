package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/itsatony/triaxis/internal/config"
	"github.com/itsatony/triaxis/internal/database"
	"github.com/itsatony/triaxis/internal/queue"
	"github.com/itsatony/triaxis/internal/repository"
	"github.com/itsatony/triaxis/internal/repository/memory"
	"github.com/itsatony/triaxis/internal/repository/postgres"
	"github.com/itsatony/triaxis/internal/repository/timescale"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// dependencies holds the stores and the queue selected by configuration
type dependencies struct {
	Devices  repository.DeviceRepository
	Readings repository.ReadingRepository
	Results  repository.AnalysisResultRepository
	Queue    queue.Queue
	Pingers  map[string]pinger

	closers []func() error
}

func initDependencies(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{Pingers: map[string]pinger{}}

	if err := deps.initStores(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	if err := deps.initQueue(ctx, cfg); err != nil {
		deps.Close()
		return nil, err
	}
	return deps, nil
}

func (d *dependencies) initStores(ctx context.Context, cfg *config.Config) error {
	if cfg.Storage.Backend == config.BackendMemory {
		nuts.L.Warnf("[Server] Using in-memory storage, data is lost on restart")
		d.Devices = memory.NewDeviceRepository()
		d.Readings = memory.NewReadingRepository()
		d.Results = memory.NewAnalysisResultRepository()
		return nil
	}

	tsdb, err := database.NewTimescaleDB(cfg.Database.TimescaleDB)
	if err != nil {
		return fmt.Errorf("failed to connect to TimescaleDB: %w", err)
	}
	d.closers = append(d.closers, tsdb.Close)

	appDB, err := database.NewPostgresDB(cfg.Database.AppDB)
	if err != nil {
		return fmt.Errorf("failed to connect to AppDB: %w", err)
	}
	d.closers = append(d.closers, appDB.Close)

	if err := postgres.InitSchema(ctx, appDB); err != nil {
		return err
	}
	readings, err := timescale.NewReadingRepository(ctx, tsdb)
	if err != nil {
		return err
	}

	devices := postgres.NewDeviceRepository(appDB)
	d.Devices = devices
	d.Readings = readings
	d.Results = postgres.NewAnalysisResultRepository(appDB)
	d.Pingers["postgres_app"] = devices
	d.Pingers["timescaledb"] = readings
	return nil
}

func (d *dependencies) initQueue(ctx context.Context, cfg *config.Config) error {
	if cfg.Queue.Backend == config.BackendMemory {
		q := queue.NewMemoryQueue()
		d.Queue = q
		d.closers = append(d.closers, q.Close)
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Redis.Addr(), err)
	}

	q, err := queue.NewRedisQueue(client, queue.RedisConfig{
		Name:      cfg.Queue.Name,
		StatusTTL: cfg.Queue.StatusTTL,
	})
	if err != nil {
		client.Close()
		return err
	}
	nuts.L.Infof("[Server] Connected to Redis queue %q at %s", cfg.Queue.Name, cfg.Redis.Addr())
	d.Queue = q
	d.Pingers["redis"] = q
	d.closers = append(d.closers, q.Close)
	return nil
}

// Close releases connections in reverse order of creation
func (d *dependencies) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	d.closers = nil
	return errors.Join(errs...)
}
