// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package main is the entry point of the plantation supply recommendation
server.

The server answers "what should this customer buy next" and "what is
similar to this product" from a precomputed factorization snapshot. It
accepts feedback on served recommendations and applies incremental
interaction batches from operators.

# Application Architecture

	RootSupervisor ("sawitrec")
	├── DataSupervisor ("data-layer")
	│   ├── SnapshotWatcherService (model.watch)
	│   └── FeedbackMaintenanceService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService (nats.embedded_server)
	│   └── FeedbackForwarderService (feedback.forward_enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Startup order:

 1. Configuration: Koanf v2 (defaults, config.yaml, environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Snapshot and catalog: loaded in parallel; no snapshot is fatal
 4. Feedback: Badger outbox, optional NATS JetStream forwarding
 5. Admin auth: HS256 JWT, admin routes answer 503 without a secret
 6. Supervisor tree: suture v4

# Configuration

	HTTP_PORT=8080
	LOG_LEVEL=info
	SNAPSHOT_DIR=/data/snapshots
	MODEL_VERSION=0              # 0 serves the newest snapshot
	CATALOG_PATH=/data/df_sale.csv
	FEEDBACK_STORE_PATH=/data/feedback
	NATS_ENABLED=false
	NATS_EMBEDDED=false
	ADMIN_JWT_SECRET=<32+ chars>
	CORS_ORIGINS=https://shop.example.com

The logging.level key of the config file is reloaded without a restart.

# Signal Handling

SIGINT and SIGTERM cancel the root context. The HTTP server drains for
server.shutdown_timeout, the forwarder stops between batches, and the
feedback store is closed last.
*/
package main
