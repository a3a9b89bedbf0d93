// Package config loads and validates application configuration from YAML
// files with environment-variable overrides. It provides typed structs for
// every subsystem (server, broker, indexing, worker, logging, metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Language is a normalization language supported by the text normalizer.
type Language string

const (
	English Language = "english"
	Spanish Language = "spanish"
)

// Config is the top-level application configuration shared by the
// coordinator and worker binaries.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Indexing IndexingConfig `yaml:"indexing"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the coordinator's HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"`
}

// RedisConfig holds broker connection parameters. The broker is assumed to
// be a Redis-compatible store offering blocking list pop, pub/sub, and
// TTL'd string keys.
type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"poolSize"`
	DialTimeout  time.Duration `yaml:"dialTimeout"`
	ConnectRetry time.Duration `yaml:"connectRetryInitialDelay"`
	ConnectCap   time.Duration `yaml:"connectRetryMaxDelay"`
	CallTimeout  time.Duration `yaml:"callTimeout"`
}

// Addr returns the host:port address go-redis expects.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IndexingConfig controls normalization language and filesystem paths.
type IndexingConfig struct {
	Language         Language `yaml:"language"`
	LocalUploadsPath string   `yaml:"localUploadsPath"`
	IndexStoragePath string   `yaml:"indexFileStoragePath"`
}

// WorkerConfig controls worker identity and loop cadence.
type WorkerConfig struct {
	IDPrefix          string        `yaml:"idPrefix"`
	HeartbeatInterval time.Duration `yaml:"heartbeatInterval"`
	DequeueTimeout    time.Duration `yaml:"dequeueTimeout"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server, served on its own
// port independent of the coordinator's request-serving port.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment
// variable overrides. The environment variable names are fixed by the
// broker wire contract and must not be renamed.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				applyEnvOverrides(cfg)
				return cfg, nil
			}
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// defaultConfig returns a Config with production-ready defaults for local
// development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8000,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  10 * time.Second,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			DB:           0,
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ConnectRetry: 500 * time.Millisecond,
			ConnectCap:   30 * time.Second,
			CallTimeout:  2 * time.Second,
		},
		Indexing: IndexingConfig{
			Language:         English,
			LocalUploadsPath: "./uploads",
			IndexStoragePath: "./data/index.json.gz",
		},
		Worker: WorkerConfig{
			IDPrefix:          "worker",
			HeartbeatInterval: 2 * time.Second,
			DequeueTimeout:    1 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads the recognized environment variables and
// overrides the corresponding config fields. Names here are part of the
// external contract and must match exactly.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Redis.Host = v
	}
	if v := os.Getenv("REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Redis.Port = port
		}
	}
	// COORDINATOR_PROCESSING_LANGUAGE takes precedence over PROCESSING_LANGUAGE
	// when both are set; this lets a coordinator and its workers share a base
	// environment while the coordinator pins its own language explicitly.
	lang := os.Getenv("PROCESSING_LANGUAGE")
	if v := os.Getenv("COORDINATOR_PROCESSING_LANGUAGE"); v != "" {
		lang = v
	}
	if lang != "" {
		cfg.Indexing.Language = Language(lang)
	}
	if v := os.Getenv("LOCAL_UPLOADS_PATH"); v != "" {
		cfg.Indexing.LocalUploadsPath = v
	}
	if v := os.Getenv("INDEX_FILE_STORAGE_PATH"); v != "" {
		cfg.Indexing.IndexStoragePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WORKER_ID_PREFIX"); v != "" {
		cfg.Worker.IDPrefix = v
	}
}
