// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/feedback"
	"github.com/tomtom215/sawitrec/internal/ingest"
	"github.com/tomtom215/sawitrec/internal/recommend"
	"github.com/tomtom215/sawitrec/internal/recommend/storage"
)

// Recommender answers recommendation queries. *recommend.Service satisfies it.
type Recommender interface {
	RecommendForUser(ctx context.Context, userID string, n int) recommend.Result
	RecommendSimilar(ctx context.Context, productID string, n int) recommend.Result
	IsKnownUser(id string) bool
	IsKnownProduct(id string) bool
	Snapshot() *recommend.Snapshot
	Stats() recommend.Stats
}

// FeedbackSubmitter accepts feedback. *feedback.Acceptor satisfies it.
type FeedbackSubmitter interface {
	Submit(ctx context.Context, fb *feedback.Feedback) (*feedback.Record, error)
}

// InteractionUpdater folds interaction batches into the model. *ingest.Updater satisfies it.
type InteractionUpdater interface {
	Apply(ctx context.Context, batch []dataset.Interaction) (*ingest.UpdateReport, error)
	ApplyFile(ctx context.Context, loader ingest.InteractionLoader, path string) (*ingest.UpdateReport, error)
}

// SnapshotReloader swaps in the newest stored snapshot. *storage.Reloader satisfies it.
type SnapshotReloader interface {
	ReloadLatest(ctx context.Context) (*storage.ReloadResult, error)
}

// HandlerConfig holds request-level settings.
type HandlerConfig struct {
	// DefaultN is used when the N query parameter is absent.
	DefaultN int

	// MaxN is the largest accepted N.
	MaxN int

	// StrictByDefault answers unknown ids with 404 unless strict=false.
	StrictByDefault bool

	// MaxBodyBytes bounds JSON request bodies.
	MaxBodyBytes int64

	// UpdateTimeout bounds one incremental update.
	UpdateTimeout time.Duration
}

// DefaultHandlerConfig returns the default handler settings.
func DefaultHandlerConfig() HandlerConfig {
	return HandlerConfig{
		DefaultN:      10,
		MaxN:          100,
		MaxBodyBytes:  1 << 20,
		UpdateTimeout: 10 * time.Minute,
	}
}

// Handler serves the HTTP API.
type Handler struct {
	config    HandlerConfig
	recs      Recommender
	feedback  FeedbackSubmitter
	updater   InteractionUpdater
	loader    ingest.InteractionLoader
	reloader  SnapshotReloader
	startTime time.Time
}

// Deps are the collaborators behind the optional routes. Each nil field makes
// its routes answer 503.
type Deps struct {
	Feedback FeedbackSubmitter
	Updater  InteractionUpdater

	// Loader parses CSV interaction uploads. *dataset.Reader satisfies it.
	Loader   ingest.InteractionLoader
	Reloader SnapshotReloader
}

// NewHandler creates a handler serving recs.
func NewHandler(cfg HandlerConfig, recs Recommender, deps Deps) (*Handler, error) {
	if recs == nil {
		return nil, errors.New("recommender is required")
	}
	defaults := DefaultHandlerConfig()
	if cfg.MaxN < 1 {
		cfg.MaxN = defaults.MaxN
	}
	if cfg.DefaultN < 1 || cfg.DefaultN > cfg.MaxN {
		cfg.DefaultN = min(defaults.DefaultN, cfg.MaxN)
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if cfg.UpdateTimeout <= 0 {
		cfg.UpdateTimeout = defaults.UpdateTimeout
	}
	return &Handler{
		config:    cfg,
		recs:      recs,
		feedback:  deps.Feedback,
		updater:   deps.Updater,
		loader:    deps.Loader,
		reloader:  deps.Reloader,
		startTime: time.Now(),
	}, nil
}
