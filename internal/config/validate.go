// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package config

import (
	"fmt"
	"strings"
)

var validLogLevels = map[string]bool{
	"trace": true, "debug": true, "info": true, "warn": true, "error": true,
}

var validLogFormats = map[string]bool{
	"json": true, "console": true,
}

var validEnvironments = map[string]bool{
	"development": true, "staging": true, "production": true,
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateServer,
		c.validateLogging,
		c.validateModel,
		c.validateCatalog,
		c.validateRecommend,
		c.validateTraining,
		c.validateFeedback,
		c.validateNATS,
		c.validateSecurity,
		c.validateSupervisor,
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	if !validEnvironments[c.Server.Environment] {
		return fmt.Errorf("ENVIRONMENT must be one of development, staging, production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateLogging() error {
	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of trace, debug, info, warn, error, got %q", c.Logging.Level)
	}
	c.Logging.Format = strings.ToLower(c.Logging.Format)
	if !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateModel() error {
	if strings.TrimSpace(c.Model.SnapshotDir) == "" {
		return fmt.Errorf("SNAPSHOT_DIR is required")
	}
	if c.Model.Version < 0 {
		return fmt.Errorf("MODEL_VERSION must be >= 0, got %d", c.Model.Version)
	}
	if c.Model.Watch {
		if c.Model.WatchInterval <= 0 {
			return fmt.Errorf("SNAPSHOT_WATCH_INTERVAL must be positive when watching")
		}
		if c.Model.WatchDebounce < 0 {
			return fmt.Errorf("SNAPSHOT_WATCH_DEBOUNCE must not be negative")
		}
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.Threads < 1 {
		return fmt.Errorf("DUCKDB_THREADS must be at least 1, got %d", c.Catalog.Threads)
	}
	if strings.TrimSpace(c.Catalog.MaxMemory) == "" {
		return fmt.Errorf("DUCKDB_MAX_MEMORY is required")
	}
	return nil
}

func (c *Config) validateRecommend() error {
	if c.Recommend.MaxN < 1 {
		return fmt.Errorf("RECOMMEND_MAX_N must be at least 1, got %d", c.Recommend.MaxN)
	}
	if c.Recommend.DefaultN < 1 || c.Recommend.DefaultN > c.Recommend.MaxN {
		return fmt.Errorf("RECOMMEND_DEFAULT_N must be between 1 and %d, got %d", c.Recommend.MaxN, c.Recommend.DefaultN)
	}
	return nil
}

func (c *Config) validateTraining() error {
	t := c.Training
	switch {
	case t.Factors < 1:
		return fmt.Errorf("ALS_FACTORS must be at least 1, got %d", t.Factors)
	case t.Iterations < 1:
		return fmt.Errorf("ALS_ITERATIONS must be at least 1, got %d", t.Iterations)
	case t.Regularization <= 0:
		return fmt.Errorf("ALS_REGULARIZATION must be positive, got %g", t.Regularization)
	case t.Alpha <= 0:
		return fmt.Errorf("ALS_ALPHA must be positive, got %g", t.Alpha)
	case t.Workers < 0:
		return fmt.Errorf("ALS_WORKERS must not be negative, got %d", t.Workers)
	case t.MaxBatch < 1:
		return fmt.Errorf("INGEST_MAX_BATCH must be at least 1, got %d", t.MaxBatch)
	case t.KeepSnapshots < 1:
		return fmt.Errorf("SNAPSHOT_KEEP must be at least 1, got %d", t.KeepSnapshots)
	}
	return nil
}

func (c *Config) validateFeedback() error {
	f := c.Feedback
	if !f.InMemory && strings.TrimSpace(f.StorePath) == "" {
		return fmt.Errorf("FEEDBACK_STORE_PATH is required unless FEEDBACK_IN_MEMORY is set")
	}
	if f.TTL < 0 {
		return fmt.Errorf("FEEDBACK_TTL must not be negative")
	}
	if f.GCInterval <= 0 {
		return fmt.Errorf("FEEDBACK_GC_INTERVAL must be positive")
	}
	if !f.ForwardEnabled {
		return nil
	}
	switch {
	case strings.TrimSpace(f.Topic) == "":
		return fmt.Errorf("FEEDBACK_TOPIC is required when forwarding")
	case f.PollInterval <= 0:
		return fmt.Errorf("FEEDBACK_POLL_INTERVAL must be positive")
	case f.BatchSize < 1:
		return fmt.Errorf("FEEDBACK_BATCH_SIZE must be at least 1, got %d", f.BatchSize)
	case f.MaxAttempts < 1:
		return fmt.Errorf("FEEDBACK_MAX_ATTEMPTS must be at least 1, got %d", f.MaxAttempts)
	case f.RatePerSecond <= 0:
		return fmt.Errorf("FEEDBACK_RATE_PER_SECOND must be positive")
	case f.Burst < 1:
		return fmt.Errorf("FEEDBACK_BURST must be at least 1, got %d", f.Burst)
	case f.BreakerThreshold < 1:
		return fmt.Errorf("FEEDBACK_BREAKER_THRESHOLD must be at least 1")
	case f.BreakerTimeout <= 0:
		return fmt.Errorf("FEEDBACK_BREAKER_TIMEOUT must be positive")
	}
	return nil
}

func (c *Config) validateNATS() error {
	n := c.NATS
	if !n.Enabled {
		return nil
	}
	if strings.TrimSpace(n.StreamName) == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required when NATS is enabled")
	}
	if n.MaxAge <= 0 {
		return fmt.Errorf("NATS_MAX_AGE must be positive")
	}
	if n.EmbeddedServer {
		if n.Port < 1 || n.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535, got %d", n.Port)
		}
		if n.Port == c.Server.Port && n.Host == c.Server.Host {
			return fmt.Errorf("NATS_PORT %d conflicts with HTTP_PORT", n.Port)
		}
		if strings.TrimSpace(n.StoreDir) == "" {
			return fmt.Errorf("NATS_STORE_DIR is required for the embedded server")
		}
		return nil
	}
	if !strings.HasPrefix(n.URL, "nats://") && !strings.HasPrefix(n.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://, got %q", n.URL)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.AdminJWTSecret != "" && len(s.AdminJWTSecret) < 32 {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least 32 characters")
	}
	if !s.RateLimitDisabled {
		if s.RateLimitReqs < 1 {
			return fmt.Errorf("RATE_LIMIT_REQS must be at least 1, got %d", s.RateLimitReqs)
		}
		if s.RateLimitWindow <= 0 {
			return fmt.Errorf("RATE_LIMIT_WINDOW must be positive")
		}
	}
	if c.IsProduction() {
		for _, origin := range s.CORSOrigins {
			if origin == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * in production")
			}
		}
	}
	return nil
}

func (c *Config) validateSupervisor() error {
	s := c.Supervisor
	if s.FailureThreshold <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD must be positive")
	}
	if s.FailureDecay <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_DECAY must be positive")
	}
	if s.FailureBackoff <= 0 || s.ShutdownTimeout <= 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_BACKOFF and SUPERVISOR_SHUTDOWN_TIMEOUT must be positive")
	}
	return nil
}
