// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sawitrec/internal/metrics"
)

// WelcomeMessage is served at the root path.
const WelcomeMessage = "Welcome to the plantation supply recommendation API"

// Ping handles GET /ping
func (h *Handler) Ping(w http.ResponseWriter, _ *http.Request) {
	writePlain(w, http.StatusOK, map[string]string{"message": "pong"})
}

// Welcome handles GET /
func (h *Handler) Welcome(w http.ResponseWriter, _ *http.Request) {
	writePlain(w, http.StatusOK, map[string]string{"message": WelcomeMessage})
}

// HealthLive handles GET /health/live. The process is alive if it can answer.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	metrics.UpdateUptime(h.startTime)
	respond(w, r).ok(map[string]interface{}{
		"status":         "alive",
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady handles GET /health/ready. Ready means a snapshot is served.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	snap := h.recs.Snapshot()
	if snap == nil {
		rw.fail(http.StatusServiceUnavailable, "No snapshot loaded")
		return
	}
	stats := h.recs.Stats()
	rw.ok(map[string]interface{}{
		"status":           "ready",
		"snapshot_version": snap.Version,
		"users":            stats.Users,
		"products":         stats.Products,
		"catalog_size":     stats.CatalogSize,
	})
}

// writePlain writes an unwrapped JSON body. /ping and / keep their
// historical shape for existing probes.
func writePlain(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body) //nolint:errcheck // client went away
}
