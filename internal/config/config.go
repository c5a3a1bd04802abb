package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// Config holds all configuration for the service
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Host            string        `mapstructure:"host"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

// DatabaseConfig separates the readings hypertable from the application tables.
// Both may point at the same server.
type DatabaseConfig struct {
	TimescaleDB PostgresConfig `mapstructure:"timescaledb"`
	AppDB       PostgresConfig `mapstructure:"postgres_app"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// StorageConfig selects where devices, readings and analysis results live
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Addr returns host:port
func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type QueueConfig struct {
	Backend        string        `mapstructure:"backend"`
	Name           string        `mapstructure:"name"`
	StatusTTL      time.Duration `mapstructure:"status_ttl"`
	ReserveTimeout time.Duration `mapstructure:"reserve_timeout"`
	RecoverOnStart bool          `mapstructure:"recover_on_start"`
}

type WorkerConfig struct {
	Embedded    bool `mapstructure:"embedded"`
	Concurrency int  `mapstructure:"concurrency"`
}

type MonitoringConfig struct {
	MetricsPath string `mapstructure:"metrics_path"`
}

// Load initializes configuration from environment variables and config file
func Load() (*Config, error) {
	return LoadFrom("./config")
}

// LoadFrom is Load with an explicit directory for config.yaml
func LoadFrom(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRIAXIS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__"))
	v.AutomaticEnv()

	// Set defaults
	setDefaults(v)

	// Load config file if exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation error: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.allowed_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.timescaledb.host", "")
	v.SetDefault("database.timescaledb.port", 5432)
	v.SetDefault("database.timescaledb.user", "")
	v.SetDefault("database.timescaledb.password", "")
	v.SetDefault("database.timescaledb.dbname", "")
	v.SetDefault("database.timescaledb.sslmode", "disable")
	v.SetDefault("database.postgres_app.host", "")
	v.SetDefault("database.postgres_app.port", 5432)
	v.SetDefault("database.postgres_app.user", "")
	v.SetDefault("database.postgres_app.password", "")
	v.SetDefault("database.postgres_app.dbname", "")
	v.SetDefault("database.postgres_app.sslmode", "disable")
	v.SetDefault("storage.backend", BackendPostgres)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	// Queue defaults
	v.SetDefault("queue.backend", BackendRedis)
	v.SetDefault("queue.name", "analysis")
	v.SetDefault("queue.status_ttl", "24h")
	v.SetDefault("queue.reserve_timeout", "5s")
	v.SetDefault("queue.recover_on_start", false)

	// Worker defaults
	v.SetDefault("worker.embedded", false)
	v.SetDefault("worker.concurrency", 4)

	// Monitoring defaults
	v.SetDefault("monitoring.metrics_path", "/metrics")
}

func validateConfig(config *Config) error {
	switch config.Storage.Backend {
	case BackendPostgres:
		if config.Database.TimescaleDB.Host == "" {
			return fmt.Errorf("timescaledb host is required")
		}
		if config.Database.AppDB.Host == "" {
			return fmt.Errorf("postgres app host is required")
		}
	case BackendMemory:
		// memory stores are private to this process, an external worker would never see them
		if !config.Worker.Embedded {
			return fmt.Errorf("memory storage requires worker.embedded")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", config.Storage.Backend)
	}

	switch config.Queue.Backend {
	case BackendRedis:
		if config.Redis.Host == "" {
			return fmt.Errorf("redis host is required for the redis queue")
		}
	case BackendMemory:
		// a memory queue is only visible to workers inside this process
		if !config.Worker.Embedded {
			return fmt.Errorf("memory queue requires worker.embedded")
		}
	default:
		return fmt.Errorf("unknown queue backend %q", config.Queue.Backend)
	}

	if config.Queue.Name == "" {
		return fmt.Errorf("queue name is required")
	}
	if !strings.HasPrefix(config.Monitoring.MetricsPath, "/") || config.Monitoring.MetricsPath == "/" {
		return fmt.Errorf("metrics path must be an absolute path other than /, got %q", config.Monitoring.MetricsPath)
	}
	if config.Worker.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1, got %d", config.Worker.Concurrency)
	}
	return nil
}

// ValidateStandaloneWorker checks that a worker running in its own process
// shares the queue and the stores with the API
func (c *Config) ValidateStandaloneWorker() error {
	if c.Queue.Backend != BackendRedis {
		return fmt.Errorf("a standalone worker needs the redis queue backend, got %q", c.Queue.Backend)
	}
	if c.Storage.Backend != BackendPostgres {
		return fmt.Errorf("a standalone worker needs the postgres storage backend, got %q", c.Storage.Backend)
	}
	return nil
}
