// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package config provides centralized configuration management for the
recommendation server.

# Configuration Sources

Configuration is layered with Koanf v2. Later sources override earlier ones:
  - Built-in defaults (defaultConfig)
  - Optional YAML file: CONFIG_PATH, then config.yaml, then /etc/sawitrec/config.yaml
  - Environment variables, mapped explicitly in envMappings

Unmapped environment variables are ignored.

# Configuration Structure

  - ServerConfig: HTTP listener and timeouts
  - LoggingConfig: zerolog level and format
  - ModelConfig: snapshot directory, pinned version and hot-swap watching
  - CatalogConfig: sales CSV location and DuckDB reader tuning
  - RecommendConfig: default and maximum N, already-liked filtering
  - TrainingConfig: ALS hyperparameters and incremental update limits
  - FeedbackConfig: Badger feedback log and forwarder settings
  - NATSConfig: JetStream transport, optionally embedded
  - SecurityConfig: admin JWT secret, CORS and rate limits
  - SupervisorConfig: suture restart policy

# Environment Variables

Common variables:
  - HTTP_PORT: Listen port (default: 8080)
  - LOG_LEVEL: trace, debug, info, warn, error (default: info)
  - SNAPSHOT_DIR: Model snapshot directory (default: /data/snapshots)
  - MODEL_VERSION: Pinned snapshot version, 0 for latest (default: 0)
  - CATALOG_PATH: Sales export CSV (default: /data/df_sale.csv)
  - RECOMMEND_DEFAULT_N / RECOMMEND_MAX_N: Result sizes (default: 10 / 100)
  - ADMIN_JWT_SECRET: HS256 secret for admin routes, at least 32 characters
  - CORS_ORIGINS: Comma-separated allowed origins (default: *)
  - NATS_ENABLED / NATS_URL / NATS_EMBEDDED: Feedback transport

# Usage Example

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Printf("Serving snapshots from %s\n", cfg.Model.SnapshotDir)

# Thread Safety

Config values are read-only after LoadWithKoanf returns and safe for
concurrent reads. WatchConfigFile callbacks must synchronize their own state.
*/
package config
