package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	return dir
}

const memoryConfig = `
storage:
  backend: memory
queue:
  backend: memory
worker:
  embedded: true
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, memoryConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "analysis", cfg.Queue.Name)
	assert.Equal(t, 24*time.Hour, cfg.Queue.StatusTTL)
	assert.Equal(t, 5*time.Second, cfg.Queue.ReserveTimeout)
	assert.Equal(t, 4, cfg.Worker.Concurrency)
	assert.Equal(t, "/metrics", cfg.Monitoring.MetricsPath)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	t.Setenv("TRIAXIS_WORKER__CONCURRENCY", "9")
	t.Setenv("TRIAXIS_QUEUE__NAME", "jobs")

	cfg, err := LoadFrom(writeConfig(t, memoryConfig))
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Worker.Concurrency)
	assert.Equal(t, "jobs", cfg.Queue.Name)
}

func TestLoadWithoutFileUsesPostgresDefaults(t *testing.T) {
	_, err := LoadFrom(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timescaledb host is required")
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "postgres needs app db",
			yaml: `
database:
  timescaledb:
    host: ts
queue:
  backend: memory
worker:
  embedded: true
`,
			wantErr: "postgres app host is required",
		},
		{
			name: "memory queue needs embedded worker",
			yaml: `
database:
  timescaledb:
    host: ts
  postgres_app:
    host: app
queue:
  backend: memory
`,
			wantErr: "memory queue requires worker.embedded",
		},
		{
			name: "memory storage needs embedded worker",
			yaml: `
storage:
  backend: memory
queue:
  backend: redis
worker:
  embedded: false
`,
			wantErr: "memory storage requires worker.embedded",
		},
		{
			name: "unknown queue backend",
			yaml: `
storage:
  backend: memory
queue:
  backend: kafka
worker:
  embedded: true
`,
			wantErr: "unknown queue backend",
		},
		{
			name:    "zero concurrency",
			yaml:    memoryConfig + "  concurrency: 0\n",
			wantErr: "worker concurrency must be at least 1",
		},
		{
			name:    "metrics path at root",
			yaml:    memoryConfig + "monitoring:\n  metrics_path: /\n",
			wantErr: "metrics path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMemoryStorageWithRedisQueueAndEmbeddedWorker(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `
storage:
  backend: memory
queue:
  backend: redis
worker:
  embedded: true
`))
	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Queue.Backend)
}

func TestValidateStandaloneWorker(t *testing.T) {
	tests := []struct {
		name    string
		storage string
		queue   string
		wantErr string
	}{
		{name: "shared backends", storage: BackendPostgres, queue: BackendRedis},
		{name: "memory queue", storage: BackendPostgres, queue: BackendMemory, wantErr: "redis queue backend"},
		{name: "memory storage", storage: BackendMemory, queue: BackendRedis, wantErr: "postgres storage backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Storage: StorageConfig{Backend: tt.storage},
				Queue:   QueueConfig{Backend: tt.queue},
			}
			err := cfg.ValidateStandaloneWorker()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	_, err := LoadFrom(writeConfig(t, "server: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}
