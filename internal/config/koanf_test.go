// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// clearEnv points CONFIG_PATH at a missing file and blanks the mapped variables
// a developer machine might carry.
func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "absent.yaml"))
	for name := range envMappings {
		if _, ok := os.LookupEnv(strings.ToUpper(name)); ok {
			t.Setenv(strings.ToUpper(name), "")
			os.Unsetenv(strings.ToUpper(name))
		}
	}
}

// TestDefaultConfig verifies that defaultConfig() returns proper defaults
func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Model.Version != 0 {
		t.Errorf("Model.Version = %d, want 0 (latest)", cfg.Model.Version)
	}
	if cfg.Recommend.DefaultN != 10 || cfg.Recommend.MaxN != 100 {
		t.Errorf("Recommend = %+v, want DefaultN 10 MaxN 100", cfg.Recommend)
	}
	if !cfg.Recommend.FilterAlreadyLiked {
		t.Error("Recommend.FilterAlreadyLiked should be true by default")
	}
	if cfg.Training.Factors != 64 || cfg.Training.Iterations != 15 {
		t.Errorf("Training = %+v, want 64 factors and 15 iterations", cfg.Training)
	}
	if cfg.NATS.Enabled {
		t.Error("NATS.Enabled should be false by default")
	}
	if cfg.Security.AdminJWTSecret != "" {
		t.Error("Security.AdminJWTSecret should be empty by default")
	}
	if cfg.AdminEnabled() {
		t.Error("AdminEnabled() should be false without a secret")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if !reflect.DeepEqual(cfg, defaultConfig()) {
		t.Errorf("LoadWithKoanf() without sources = %+v, want defaults", cfg)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SNAPSHOT_DIR", "/srv/models")
	t.Setenv("MODEL_VERSION", "7")
	t.Setenv("RECOMMEND_MAX_N", "50")
	t.Setenv("ALS_ALPHA", "15.5")
	t.Setenv("FEEDBACK_POLL_INTERVAL", "500ms")
	t.Setenv("CORS_ORIGINS", "https://shop.example.com, https://admin.example.com,")
	t.Setenv("ADMIN_JWT_SECRET", strings.Repeat("s", 32))
	t.Setenv("SOME_UNRELATED_VARIABLE", "ignored")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Model.SnapshotDir != "/srv/models" || cfg.Model.Version != 7 {
		t.Errorf("Model = %+v", cfg.Model)
	}
	if cfg.Recommend.MaxN != 50 {
		t.Errorf("Recommend.MaxN = %d, want 50", cfg.Recommend.MaxN)
	}
	if cfg.Training.Alpha != 15.5 {
		t.Errorf("Training.Alpha = %g, want 15.5", cfg.Training.Alpha)
	}
	if cfg.Feedback.PollInterval != 500*time.Millisecond {
		t.Errorf("Feedback.PollInterval = %v, want 500ms", cfg.Feedback.PollInterval)
	}
	wantOrigins := []string{"https://shop.example.com", "https://admin.example.com"}
	if !reflect.DeepEqual(cfg.Security.CORSOrigins, wantOrigins) {
		t.Errorf("CORSOrigins = %v, want %v", cfg.Security.CORSOrigins, wantOrigins)
	}
	if !cfg.AdminEnabled() {
		t.Error("AdminEnabled() should be true with a secret")
	}
}

func TestLoadWithKoanf_FileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 7000
  environment: staging
catalog:
  path: /srv/df_sale.csv
training:
  factors: 32
security:
  cors_origins:
    - https://a.example.com
    - https://b.example.com
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "7001")

	if got := ConfigFile(); got != path {
		t.Errorf("ConfigFile() = %q, want %q", got, path)
	}

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("env should override file: Server.Port = %d, want 7001", cfg.Server.Port)
	}
	if cfg.Server.Environment != "staging" {
		t.Errorf("Server.Environment = %q, want staging", cfg.Server.Environment)
	}
	if cfg.Catalog.Path != "/srv/df_sale.csv" {
		t.Errorf("Catalog.Path = %q", cfg.Catalog.Path)
	}
	if cfg.Training.Factors != 32 {
		t.Errorf("Training.Factors = %d, want 32", cfg.Training.Factors)
	}
	if cfg.Training.Iterations != 15 {
		t.Errorf("unset file keys keep defaults: Training.Iterations = %d", cfg.Training.Iterations)
	}
	if len(cfg.Security.CORSOrigins) != 2 {
		t.Errorf("CORSOrigins = %v, want two entries", cfg.Security.CORSOrigins)
	}
}

func TestLoadWithKoanf_InvalidFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	if _, err := LoadWithKoanf(); err == nil {
		t.Fatal("expected error for malformed YAML")
	}
}

func TestLoadWithKoanf_ValidationFailure(t *testing.T) {
	clearEnv(t)
	t.Setenv("RECOMMEND_DEFAULT_N", "500")

	_, err := LoadWithKoanf()
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "RECOMMEND_DEFAULT_N") {
		t.Errorf("error = %v, want mention of RECOMMEND_DEFAULT_N", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"http_port", "server.port"},
		{"ALS_FACTORS", "training.factors"},
		{"NATS_EMBEDDED", "nats.embedded_server"},
		{"DISABLE_RATE_LIMIT", "security.rate_limit_disabled"},
		{"PATH", ""},
		{"HOME", ""},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"unknown environment", func(c *Config) { c.Server.Environment = "qa" }, "ENVIRONMENT"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"empty snapshot dir", func(c *Config) { c.Model.SnapshotDir = " " }, "SNAPSHOT_DIR"},
		{"negative version", func(c *Config) { c.Model.Version = -1 }, "MODEL_VERSION"},
		{"watch interval", func(c *Config) { c.Model.WatchInterval = 0 }, "SNAPSHOT_WATCH_INTERVAL"},
		{"watch interval ignored when off", func(c *Config) {
			c.Model.Watch = false
			c.Model.WatchInterval = 0
		}, ""},
		{"duckdb threads", func(c *Config) { c.Catalog.Threads = 0 }, "DUCKDB_THREADS"},
		{"max n", func(c *Config) { c.Recommend.MaxN = 0 }, "RECOMMEND_MAX_N"},
		{"factors", func(c *Config) { c.Training.Factors = 0 }, "ALS_FACTORS"},
		{"regularization", func(c *Config) { c.Training.Regularization = 0 }, "ALS_REGULARIZATION"},
		{"keep snapshots", func(c *Config) { c.Training.KeepSnapshots = 0 }, "SNAPSHOT_KEEP"},
		{"feedback path", func(c *Config) { c.Feedback.StorePath = "" }, "FEEDBACK_STORE_PATH"},
		{"feedback in memory", func(c *Config) {
			c.Feedback.StorePath = ""
			c.Feedback.InMemory = true
		}, ""},
		{"feedback topic", func(c *Config) { c.Feedback.Topic = "" }, "FEEDBACK_TOPIC"},
		{"feedback max attempts", func(c *Config) { c.Feedback.MaxAttempts = 0 }, "FEEDBACK_MAX_ATTEMPTS"},
		{"forwarder off skips topic", func(c *Config) {
			c.Feedback.ForwardEnabled = false
			c.Feedback.Topic = ""
		}, ""},
		{"nats url", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.URL = "http://broker"
		}, "NATS_URL"},
		{"embedded port clash", func(c *Config) {
			c.NATS.Enabled = true
			c.NATS.EmbeddedServer = true
			c.NATS.Host = c.Server.Host
			c.NATS.Port = c.Server.Port
		}, "conflicts"},
		{"short secret", func(c *Config) { c.Security.AdminJWTSecret = "short" }, "ADMIN_JWT_SECRET"},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"rate limit", func(c *Config) { c.Security.RateLimitReqs = 0 }, "RATE_LIMIT_REQS"},
		{"supervisor", func(c *Config) { c.Supervisor.FailureDecay = 0 }, "SUPERVISOR_FAILURE_DECAY"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
