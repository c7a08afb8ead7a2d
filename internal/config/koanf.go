// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sawitrec/config.yaml",
	"/etc/sawitrec/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			Timeout:         30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			Environment:     "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Model: ModelConfig{
			SnapshotDir:   "/data/snapshots",
			Version:       0, // latest
			Watch:         true,
			WatchInterval: time.Minute,
			WatchDebounce: 2 * time.Second,
		},
		Catalog: CatalogConfig{
			Path:      "/data/df_sale.csv",
			Threads:   2,
			MaxMemory: "512MB",
		},
		Recommend: RecommendConfig{
			DefaultN:           10,
			MaxN:               100,
			FilterAlreadyLiked: true,
		},
		Training: TrainingConfig{
			Factors:        64,
			Iterations:     15,
			Regularization: 0.01,
			Alpha:          40,
			Workers:        0, // runtime.NumCPU()
			MaxBatch:       100000,
			KeepSnapshots:  5,
		},
		Feedback: FeedbackConfig{
			StorePath:        "/data/feedback",
			InMemory:         false,
			SyncWrites:       true,
			TTL:              30 * 24 * time.Hour,
			GCInterval:       10 * time.Minute,
			ForwardEnabled:   true,
			Topic:            "recommendation.feedback",
			PollInterval:     2 * time.Second,
			BatchSize:        100,
			MaxAttempts:      20,
			RatePerSecond:    200,
			Burst:            50,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		NATS: NATSConfig{
			Enabled:        false, // in-process channel unless a broker is configured
			URL:            "nats://127.0.0.1:4222",
			StreamName:     "RECOMMENDATION_FEEDBACK",
			MaxAge:         7 * 24 * time.Hour,
			EmbeddedServer: false,
			Host:           "127.0.0.1",
			Port:           4222,
			StoreDir:       "/data/nats",
			MaxMemory:      64 << 20,
			MaxStore:       1 << 30,
		},
		Security: SecurityConfig{
			AdminJWTSecret:    "", // admin routes answer 503 until set
			AdminJWTIssuer:    "",
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
			StrictByDefault:   false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources.
//
// Loading order (later sources override earlier ones):
//  1. Built-in defaults
//  2. Config file (YAML), if found
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// HTTP_PORT -> server.port
	// ALS_FACTORS -> training.factors
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// ConfigFile returns the config file LoadWithKoanf would read, or "".
func ConfigFile() string {
	return findConfigFile()
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated environment values into slices.
// Values that already arrived as YAML lists are left alone.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps environment variable names (lowercased) to koanf paths.
var envMappings = map[string]string{
	// Server
	"http_host":        "server.host",
	"http_port":        "server.port",
	"http_timeout":     "server.timeout",
	"shutdown_timeout": "server.shutdown_timeout",
	"environment":      "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Model snapshots
	"snapshot_dir":            "model.snapshot_dir",
	"model_version":           "model.version",
	"snapshot_watch":          "model.watch",
	"snapshot_watch_interval": "model.watch_interval",
	"snapshot_watch_debounce": "model.watch_debounce",

	// Catalog
	"catalog_path":      "catalog.path",
	"duckdb_threads":    "catalog.threads",
	"duckdb_max_memory": "catalog.max_memory",

	// Serving
	"recommend_default_n":  "recommend.default_n",
	"recommend_max_n":      "recommend.max_n",
	"filter_already_liked": "recommend.filter_already_liked",

	// Training
	"als_factors":        "training.factors",
	"als_iterations":     "training.iterations",
	"als_regularization": "training.regularization",
	"als_alpha":          "training.alpha",
	"als_workers":        "training.workers",
	"ingest_max_batch":   "training.max_batch",
	"snapshot_keep":      "training.keep_snapshots",

	// Feedback
	"feedback_store_path":        "feedback.store_path",
	"feedback_in_memory":         "feedback.in_memory",
	"feedback_sync_writes":       "feedback.sync_writes",
	"feedback_ttl":               "feedback.ttl",
	"feedback_gc_interval":       "feedback.gc_interval",
	"feedback_forward_enabled":   "feedback.forward_enabled",
	"feedback_topic":             "feedback.topic",
	"feedback_poll_interval":     "feedback.poll_interval",
	"feedback_batch_size":        "feedback.batch_size",
	"feedback_max_attempts":      "feedback.max_attempts",
	"feedback_rate_per_second":   "feedback.rate_per_second",
	"feedback_burst":             "feedback.burst",
	"feedback_breaker_threshold": "feedback.breaker_threshold",
	"feedback_breaker_timeout":   "feedback.breaker_timeout",

	// NATS
	"nats_enabled":     "nats.enabled",
	"nats_url":         "nats.url",
	"nats_stream_name": "nats.stream_name",
	"nats_max_age":     "nats.max_age",
	"nats_embedded":    "nats.embedded_server",
	"nats_host":        "nats.host",
	"nats_port":        "nats.port",
	"nats_store_dir":   "nats.store_dir",
	"nats_max_memory":  "nats.max_memory",
	"nats_max_store":   "nats.max_store",

	// Security
	"admin_jwt_secret":   "security.admin_jwt_secret",
	"admin_jwt_issuer":   "security.admin_jwt_issuer",
	"rate_limit_reqs":    "security.rate_limit_reqs",
	"rate_limit_window":  "security.rate_limit_window",
	"disable_rate_limit": "security.rate_limit_disabled",
	"cors_origins":       "security.cors_origins",
	"strict_by_default":  "security.strict_by_default",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc transforms environment variable names to koanf config paths.
func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile calls callback whenever the file at path changes.
// The caller is responsible for synchronizing any state the callback updates.
func WatchConfigFile(path string, callback func()) error {
	return file.Provider(path).Watch(func(_ interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
