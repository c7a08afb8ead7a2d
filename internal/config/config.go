// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package config

import "time"

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in defaults for every setting
//  2. Config File: Optional YAML file (CONFIG_PATH or DefaultConfigPaths)
//  3. Environment Variables: Explicitly mapped names override both
//
// Example:
//
//	cfg, err := config.LoadWithKoanf()
//	if err != nil {
//	    log.Fatal("Failed to load config:", err)
//	}
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Model      ModelConfig      `koanf:"model"`
	Catalog    CatalogConfig    `koanf:"catalog"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Training   TrainingConfig   `koanf:"training"`
	Feedback   FeedbackConfig   `koanf:"feedback"`
	NATS       NATSConfig       `koanf:"nats"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// Timeout bounds each request and the server read/write deadlines.
	Timeout time.Duration `koanf:"timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Environment is development, staging or production.
	Environment string `koanf:"environment"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (trace, debug, info, warn, error).
	Level string `koanf:"level"`

	// Format is json or console.
	Format string `koanf:"format"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`
}

// ModelConfig locates the snapshot the service serves.
type ModelConfig struct {
	// SnapshotDir holds snapshot_v{N}.gob.gz files.
	SnapshotDir string `koanf:"snapshot_dir"`

	// Version pins a snapshot version at startup. 0 serves the latest.
	Version int `koanf:"version"`

	// Watch enables hot-swapping newer snapshots written to SnapshotDir.
	Watch bool `koanf:"watch"`

	// WatchInterval is the periodic rescan interval backing the file watcher.
	WatchInterval time.Duration `koanf:"watch_interval"`

	// WatchDebounce coalesces bursts of file events.
	WatchDebounce time.Duration `koanf:"watch_debounce"`
}

// CatalogConfig locates the product catalog.
type CatalogConfig struct {
	// Path is the sales export CSV. A missing file yields an empty catalog.
	Path string `koanf:"path"`

	// Threads and MaxMemory tune the DuckDB reader.
	Threads   int    `koanf:"threads"`
	MaxMemory string `koanf:"max_memory"`
}

// RecommendConfig holds serving parameters.
type RecommendConfig struct {
	DefaultN           int  `koanf:"default_n"`
	MaxN               int  `koanf:"max_n"`
	FilterAlreadyLiked bool `koanf:"filter_already_liked"`
}

// TrainingConfig holds ALS refit and incremental update parameters.
type TrainingConfig struct {
	Factors        int     `koanf:"factors"`
	Iterations     int     `koanf:"iterations"`
	Regularization float64 `koanf:"regularization"`
	Alpha          float64 `koanf:"alpha"`

	// Workers is the number of parallel solvers. 0 means runtime.NumCPU().
	Workers int `koanf:"workers"`

	// MaxBatch bounds interactions per update request.
	MaxBatch int `koanf:"max_batch"`

	// KeepSnapshots is how many stored snapshots survive pruning.
	KeepSnapshots int `koanf:"keep_snapshots"`
}

// FeedbackConfig holds the feedback log and forwarder settings.
type FeedbackConfig struct {
	StorePath  string        `koanf:"store_path"`
	InMemory   bool          `koanf:"in_memory"`
	SyncWrites bool          `koanf:"sync_writes"`
	TTL        time.Duration `koanf:"ttl"`

	// GCInterval is how often the Badger value log is compacted.
	GCInterval time.Duration `koanf:"gc_interval"`

	// ForwardEnabled starts the forwarder.
	ForwardEnabled bool          `koanf:"forward_enabled"`
	Topic          string        `koanf:"topic"`
	PollInterval   time.Duration `koanf:"poll_interval"`
	BatchSize      int           `koanf:"batch_size"`
	MaxAttempts    int           `koanf:"max_attempts"`
	RatePerSecond  float64       `koanf:"rate_per_second"`
	Burst          int           `koanf:"burst"`

	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// NATSConfig holds the feedback transport settings.
type NATSConfig struct {
	Enabled    bool          `koanf:"enabled"`
	URL        string        `koanf:"url"`
	StreamName string        `koanf:"stream_name"`
	MaxAge     time.Duration `koanf:"max_age"`

	// EmbeddedServer runs NATS JetStream in-process.
	EmbeddedServer bool   `koanf:"embedded_server"`
	Host           string `koanf:"host"`
	Port           int    `koanf:"port"`
	StoreDir       string `koanf:"store_dir"`
	MaxMemory      int64  `koanf:"max_memory"`
	MaxStore       int64  `koanf:"max_store"`
}

// SecurityConfig holds admin authentication and request limits.
type SecurityConfig struct {
	// AdminJWTSecret signs admin tokens (HS256). Empty disables admin routes.
	AdminJWTSecret string `koanf:"admin_jwt_secret"`

	// AdminJWTIssuer is required in the iss claim when set.
	AdminJWTIssuer string `koanf:"admin_jwt_issuer"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`

	// StrictByDefault answers unknown ids with 404 unless ?strict=false.
	StrictByDefault bool `koanf:"strict_by_default"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// AdminEnabled reports whether admin routes can authenticate callers.
func (c *Config) AdminEnabled() bool {
	return c.Security.AdminJWTSecret != ""
}
