package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/itsatony/triaxis/internal/config"
	"github.com/itsatony/triaxis/internal/events"
	"github.com/itsatony/triaxis/internal/monitoring"
	"github.com/itsatony/triaxis/internal/queue"
	"github.com/itsatony/triaxis/internal/service"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ShutdownTimeout: time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Storage:    config.StorageConfig{Backend: config.BackendMemory},
		Queue:      config.QueueConfig{Backend: config.BackendMemory, Name: "analysis", ReserveTimeout: 20 * time.Millisecond},
		Worker:     config.WorkerConfig{Embedded: true, Concurrency: 2},
		Monitoring: config.MonitoringConfig{MetricsPath: "/metrics"},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := memoryConfig()
	deps, err := initDependencies(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { deps.Close() })

	s := New(cfg)
	s.deps = deps
	s.events = events.NewBus()
	s.monitoring = monitoring.NewService()
	s.service = service.New(deps.Devices, deps.Readings, deps.Results, deps.Queue, s.events)
	require.NoError(t, setupJobEventHandlers(s.events, s.monitoring))
	return s
}

func TestInitDependenciesMemory(t *testing.T) {
	deps, err := initDependencies(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer deps.Close()

	assert.NotNil(t, deps.Devices)
	assert.NotNil(t, deps.Readings)
	assert.NotNil(t, deps.Results)
	assert.IsType(t, &queue.MemoryQueue{}, deps.Queue)
	assert.Empty(t, deps.Pingers)
}

func TestInitDependenciesRedisUnreachable(t *testing.T) {
	cfg := memoryConfig()
	cfg.Queue.Backend = config.BackendRedis
	cfg.Redis = config.RedisConfig{Host: "127.0.0.1", Port: 1}

	_, err := initDependencies(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to Redis")
}

func TestHandlerServesAPIHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	h := s.handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHandlerRecoversPanics(t *testing.T) {
	s := newTestServer(t)
	s.service = nil // a nil service makes every API handler panic

	rec := httptest.NewRecorder()
	s.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analysis/x", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestJobEventsFeedMonitoring(t *testing.T) {
	bus := events.NewBus()
	mon := monitoring.NewService()
	require.NoError(t, setupJobEventHandlers(bus, mon))
	assert.Equal(t, 1, bus.ListenerCount(events.JobSucceeded))

	bus.Emit(events.JobEnqueued, events.JobEvent{JobID: "j1", Kind: string(queue.KindDeviceAnalysis)})
	bus.Emit(events.JobFailed, events.JobEvent{JobID: "j1", Outcome: "failed", Duration: time.Millisecond})

	// Emit is synchronous, the counters are already updated
	count, err := testutil.GatherAndCount(mon.Registry(), "triaxis_jobs_enqueued_total", "triaxis_jobs_finished_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	expected := `
# HELP triaxis_jobs_enqueued_total Analysis jobs accepted by the queue.
# TYPE triaxis_jobs_enqueued_total counter
triaxis_jobs_enqueued_total{kind="device_analysis"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(mon.Registry(), strings.NewReader(expected), "triaxis_jobs_enqueued_total"))
}

func TestRecoverInFlightHonoursConfig(t *testing.T) {
	cfg := memoryConfig()
	deps, err := initDependencies(context.Background(), cfg)
	require.NoError(t, err)
	defer deps.Close()

	ctx := context.Background()
	require.NoError(t, deps.Queue.Enqueue(ctx, &queue.Task{ID: "j1", Kind: queue.KindDeviceAnalysis}))
	_, err = deps.Queue.Reserve(ctx, time.Second)
	require.NoError(t, err)

	require.NoError(t, recoverInFlight(ctx, cfg, deps))
	assert.Equal(t, 0, deps.Queue.(*queue.MemoryQueue).Len())

	cfg.Queue.RecoverOnStart = true
	require.NoError(t, recoverInFlight(ctx, cfg, deps))
	assert.Equal(t, 1, deps.Queue.(*queue.MemoryQueue).Len())
}
