// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package supervisor provides process supervision for the recommendation
server using suture v4.

# Overview

Services are grouped into three child supervisors so a failure in one layer
restarts only that layer:

	RootSupervisor ("sawitrec")
	├── DataSupervisor ("data-layer")
	│   ├── SnapshotWatcherService
	│   └── FeedbackMaintenanceService
	├── MessagingSupervisor ("messaging-layer")
	│   ├── EmbeddedNATSService (if nats.embedded_server)
	│   └── FeedbackForwarderService (if feedback.forward_enabled)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A NATS outage restarts the forwarder with backoff while the API keeps
serving recommendations from the in-memory snapshot and accepting feedback
into the local outbox.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logging.Logger()), supervisor.TreeConfig{
	    FailureThreshold: cfg.Supervisor.FailureThreshold,
	    FailureDecay:     cfg.Supervisor.FailureDecay,
	    FailureBackoff:   cfg.Supervisor.FailureBackoff,
	    ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	errCh := tree.ServeBackground(ctx)

Lifecycle events (start, failure, backoff, restart) are logged through
sutureslog into the application's slog handler, which forwards to zerolog.

# See Also

  - internal/supervisor/services: the service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
