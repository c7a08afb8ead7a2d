// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package ingest

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/metrics"
	"github.com/tomtom215/sawitrec/internal/recommend"
	"github.com/tomtom215/sawitrec/internal/recommend/storage"
)

var (
	// ErrBatchTooLarge is returned when a batch exceeds Config.MaxBatch.
	ErrBatchTooLarge = errors.New("interaction batch too large")

	// ErrNoFactorModel is returned when the served snapshot cannot be refit.
	ErrNoFactorModel = errors.New("served snapshot has no factor model")

	// ErrSnapshotChanged is returned when another snapshot was published or
	// served while the batch was being fit. The batch was not applied and
	// can be resubmitted against the new snapshot.
	ErrSnapshotChanged = errors.New("served snapshot changed during update")
)

// Rejection reasons reported per dropped row.
const (
	RejectUnknownUser     = "unknown_user"
	RejectUnknownProduct  = "unknown_product"
	RejectInvalidStrength = "invalid_strength"
)

// Refitter fits a factor model, optionally warm-started. *train.ALS satisfies it.
type Refitter interface {
	Fit(ctx context.Context, m *recommend.InteractionMatrix, warm *recommend.FactorModel) (*recommend.FactorModel, error)
}

// SnapshotStore persists snapshots. *storage.Store satisfies it.
type SnapshotStore interface {
	Save(ctx context.Context, snap *recommend.Snapshot, meta storage.SnapshotMetadata) (*storage.SnapshotMetadata, error)
	Prune(ctx context.Context, keep int) (int, error)
}

// Target is the service whose snapshot is updated. *recommend.Service satisfies it.
type Target interface {
	Snapshot() *recommend.Snapshot
	CompareAndSwap(old, next *recommend.Snapshot) (bool, error)
}

// InteractionLoader reads interaction files. *dataset.Reader satisfies it.
type InteractionLoader interface {
	LoadInteractions(ctx context.Context, path string) ([]dataset.Interaction, error)
}

// Config controls incremental updates.
type Config struct {
	// MaxBatch bounds the rows accepted per Apply. 0 disables the limit.
	MaxBatch int

	// KeepSnapshots is the number of stored snapshots kept after a save.
	// 0 disables pruning.
	KeepSnapshots int
}

// DefaultConfig returns default update configuration.
func DefaultConfig() Config {
	return Config{
		MaxBatch:      100000,
		KeepSnapshots: 5,
	}
}

// UpdateReport describes the outcome of one Apply.
type UpdateReport struct {
	Received        int            `json:"received"`
	Applied         int            `json:"applied"`
	Rejected        map[string]int `json:"rejected"`
	PreviousVersion int            `json:"previous_version"`
	Version         int            `json:"version"`
	Swapped         bool           `json:"swapped"`
	DurationMS      int64          `json:"duration_ms"`
}

// Updater folds new interactions into the served snapshot: it refits the
// model on the combined matrix, persists the result as the next version and
// swaps it in. Updates are serialized; queries keep reading the previous
// snapshot until the swap.
type Updater struct {
	mu sync.Mutex

	config  Config
	target  Target
	trainer Refitter
	store   SnapshotStore
	logger  zerolog.Logger
}

// NewUpdater creates an Updater. store may be nil, in which case new
// snapshots are only served, not persisted.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewUpdater(cfg Config, target Target, trainer Refitter, store SnapshotStore, logger zerolog.Logger) (*Updater, error) {
	if target == nil {
		return nil, errors.New("update target is required")
	}
	if trainer == nil {
		return nil, errors.New("refitter is required")
	}
	if cfg.MaxBatch < 0 || cfg.KeepSnapshots < 0 {
		return nil, fmt.Errorf("invalid update config: max_batch=%d keep_snapshots=%d", cfg.MaxBatch, cfg.KeepSnapshots)
	}
	return &Updater{
		config:  cfg,
		target:  target,
		trainer: trainer,
		store:   store,
		logger:  logger.With().Str("component", "ingest").Logger(),
	}, nil
}

// Apply folds batch into the served snapshot. Rows naming an unknown user or
// product, or carrying a non-positive strength, are dropped and counted.
// When nothing remains the served snapshot is left untouched and the report
// has Applied == 0.
func (u *Updater) Apply(ctx context.Context, batch []dataset.Interaction) (*UpdateReport, error) {
	if u.config.MaxBatch > 0 && len(batch) > u.config.MaxBatch {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrBatchTooLarge, len(batch), u.config.MaxBatch)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	start := time.Now()
	snap := u.target.Snapshot()
	report := &UpdateReport{
		Received:        len(batch),
		Rejected:        map[string]int{},
		PreviousVersion: snap.Version,
		Version:         snap.Version,
	}

	entries := u.encode(snap, batch, report)
	report.Applied = len(entries)
	metrics.RecordInteractions(report.Applied, report.Rejected)

	if len(entries) == 0 {
		report.DurationMS = time.Since(start).Milliseconds()
		u.logger.Info().
			Int("received", report.Received).
			Interface("rejected", report.Rejected).
			Msg("No applicable interactions in batch")
		return report, nil
	}

	warm := snap.FactorModel()
	if warm == nil {
		return nil, ErrNoFactorModel
	}

	matrix, err := snap.Interactions.WithEntries(entries)
	if err != nil {
		return nil, fmt.Errorf("failed to extend interaction matrix: %w", err)
	}

	fitStart := time.Now()
	model, err := u.trainer.Fit(ctx, matrix, warm)
	fitDuration := time.Since(fitStart)
	metrics.RecordTraining(fitDuration, err)
	if err != nil {
		return nil, fmt.Errorf("refit failed: %w", err)
	}

	next, err := recommend.NewSnapshot(snap.Version+1, time.Now().UTC(), snap.Users, snap.Products, matrix, model)
	if err != nil {
		return nil, fmt.Errorf("failed to build snapshot: %w", err)
	}

	// The fit can take minutes; a reload may have replaced snap meanwhile.
	if u.target.Snapshot() != snap {
		return nil, fmt.Errorf("%w: v%d is no longer served", ErrSnapshotChanged, snap.Version)
	}

	if u.store != nil {
		meta := storage.SnapshotMetadata{TrainingDurationMS: fitDuration.Milliseconds()}
		if _, err := u.store.Save(ctx, next, meta); err != nil {
			if errors.Is(err, storage.ErrVersionExists) {
				return nil, fmt.Errorf("%w: %w", ErrSnapshotChanged, err)
			}
			return nil, fmt.Errorf("failed to persist snapshot v%d: %w", next.Version, err)
		}
	}

	swapped, err := u.target.CompareAndSwap(snap, next)
	if err != nil {
		return nil, fmt.Errorf("failed to swap snapshot: %w", err)
	}
	if !swapped {
		// The watcher may have loaded the file saved above, which is this
		// same snapshot. Anything else is a newer publish.
		if u.store == nil || u.target.Snapshot().Version != next.Version {
			return nil, fmt.Errorf("%w: v%d superseded before swap", ErrSnapshotChanged, next.Version)
		}
	}
	report.Version = next.Version
	report.Swapped = true

	if u.store != nil && u.config.KeepSnapshots > 0 {
		if removed, err := u.store.Prune(ctx, u.config.KeepSnapshots); err != nil {
			u.logger.Warn().Err(err).Msg("Failed to prune old snapshots")
		} else if removed > 0 {
			u.logger.Debug().Int("removed", removed).Msg("Pruned old snapshots")
		}
	}

	report.DurationMS = time.Since(start).Milliseconds()
	u.logger.Info().
		Int("received", report.Received).
		Int("applied", report.Applied).
		Interface("rejected", report.Rejected).
		Int("version", report.Version).
		Dur("fit_duration", fitDuration).
		Msg("Interactions applied")

	return report, nil
}

// ApplyFile loads a CSV batch through loader and applies it.
func (u *Updater) ApplyFile(ctx context.Context, loader InteractionLoader, path string) (*UpdateReport, error) {
	batch, err := loader.LoadInteractions(ctx, path)
	if err != nil {
		return nil, err
	}
	return u.Apply(ctx, batch)
}

// encode maps batch rows to matrix entries, recording rejections in report.
func (u *Updater) encode(snap *recommend.Snapshot, batch []dataset.Interaction, report *UpdateReport) []recommend.MatrixEntry {
	entries := make([]recommend.MatrixEntry, 0, len(batch))
	for _, in := range batch {
		if in.Strength <= 0 || math.IsNaN(in.Strength) || math.IsInf(in.Strength, 0) {
			report.Rejected[RejectInvalidStrength]++
			continue
		}
		ui, ok := snap.Users.Encode(strings.TrimSpace(in.UserID))
		if !ok {
			report.Rejected[RejectUnknownUser]++
			continue
		}
		pi, ok := snap.Products.Encode(strings.TrimSpace(in.ProductID))
		if !ok {
			report.Rejected[RejectUnknownProduct]++
			continue
		}
		entries = append(entries, recommend.MatrixEntry{User: ui, Item: pi, Value: in.Strength})
	}
	return entries
}
