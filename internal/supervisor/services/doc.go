// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package services adapts the recommendation server's long-running parts to
suture's Serve(ctx) error contract.

# Available Services

HTTPServerService (api layer):
  - Runs *http.Server and shuts it down with a drain timeout

SnapshotWatcherService (data layer):
  - Watches the snapshot directory with fsnotify and polls as a fallback
  - Debounces file events, then calls storage.Reloader.ReloadLatest
  - Logs reload failures and keeps the current snapshot

FeedbackMaintenanceService (data layer):
  - Runs Badger value log GC on the feedback store
  - Refreshes the pending feedback gauge

FeedbackForwarderService (messaging layer):
  - Runs feedback.Forwarder, which drains the outbox to NATS

EmbeddedNATSService (messaging layer):
  - Owns shutdown of the in-process NATS server
  - Returns an error if the server stops on its own

# Usage

	tree.Add(supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.Add(supervisor.LayerData, services.NewSnapshotWatcherService(reloader, watchCfg, logger))
	tree.Add(supervisor.LayerMessaging, services.NewFeedbackForwarderService(forwarder))

Every service returns ctx.Err() on cancellation so suture treats the stop
as intentional.
*/
package services
