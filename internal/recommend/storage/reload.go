// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/metrics"
	"github.com/tomtom215/sawitrec/internal/recommend"
)

// Target serves snapshots. *recommend.Service satisfies it.
type Target interface {
	Snapshot() *recommend.Snapshot
	CompareAndSwap(old, next *recommend.Snapshot) (bool, error)
}

// ReloadResult describes one ReloadLatest call.
type ReloadResult struct {
	PreviousVersion int               `json:"previous_version"`
	Version         int               `json:"version"`
	Swapped         bool              `json:"swapped"`
	Metadata        *SnapshotMetadata `json:"metadata,omitempty"`
}

// Reloader swaps newer stored snapshots into a Target.
type Reloader struct {
	mu     sync.Mutex
	store  *Store
	target Target
	logger zerolog.Logger
}

// NewReloader creates a reloader for store and target.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewReloader(store *Store, target Target, logger zerolog.Logger) *Reloader {
	return &Reloader{
		store:  store,
		target: target,
		logger: logger.With().Str("component", "snapshot_reloader").Logger(),
	}
}

// ReloadLatest rescans the store and swaps in the newest version when it is
// newer than the served one. On any error the served snapshot is unchanged.
func (r *Reloader) ReloadLatest(ctx context.Context) (*ReloadResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.store.Rescan(); err != nil {
		metrics.RecordSnapshotReloadError("scan")
		return nil, fmt.Errorf("rescan %s: %w", r.store.Dir(), err)
	}

	current := r.target.Snapshot()
	res := &ReloadResult{PreviousVersion: current.Version, Version: current.Version}

	latest, ok := r.store.LatestVersion()
	if !ok || latest <= current.Version {
		return res, nil
	}

	snap, meta, err := r.store.Load(ctx, latest)
	if err != nil {
		metrics.RecordSnapshotReloadError(reloadErrorReason(err))
		return res, fmt.Errorf("load snapshot v%d: %w", latest, err)
	}

	if snap.Drifted() {
		r.logger.Warn().
			Int("version", snap.Version).
			Int("model_users", snap.Model.Users()).
			Int("encoder_users", snap.Users.Len()).
			Int("model_items", snap.Model.Items()).
			Int("encoder_items", snap.Products.Len()).
			Msg("Snapshot model and encoders disagree; stale indices will fall back")
	}

	swapped, err := r.target.CompareAndSwap(current, snap)
	if err != nil {
		metrics.RecordSnapshotReloadError("swap")
		return res, fmt.Errorf("swap snapshot v%d: %w", latest, err)
	}
	if !swapped {
		// An incremental update swapped meanwhile; the next reload compares
		// against it.
		r.logger.Info().Int("version", latest).Msg("Served snapshot changed during reload, skipping swap")
		return res, nil
	}

	res.Version = snap.Version
	res.Swapped = true
	res.Metadata = meta
	return res, nil
}

func reloadErrorReason(err error) string {
	switch {
	case errors.Is(err, ErrChecksumMismatch):
		return "checksum"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "decode"
	}
}
