// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package main

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/sawitrec/internal/config"
	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/ingest"
	"github.com/tomtom215/sawitrec/internal/recommend"
	"github.com/tomtom215/sawitrec/internal/recommend/storage"
	"github.com/tomtom215/sawitrec/internal/recommend/train"
)

// RecommendComponents holds the serving side: snapshot store, service,
// reloader, incremental updater and the DuckDB reader behind catalog and
// CSV interaction loads.
type RecommendComponents struct {
	Store    *storage.Store
	Service  *recommend.Service
	Reloader *storage.Reloader
	Updater  *ingest.Updater
	Reader   *dataset.Reader
}

// Close releases the DuckDB reader.
func (c *RecommendComponents) Close() error {
	if c == nil || c.Reader == nil {
		return nil
	}
	return c.Reader.Close()
}

// initRecommend loads the snapshot and the catalog in parallel and builds
// the serving components. A missing snapshot is fatal; a missing catalog
// file is not, items are then served with placeholder metadata.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initRecommend(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*RecommendComponents, error) {
	store, err := storage.NewStore(cfg.Model.SnapshotDir)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store: %w", err)
	}

	reader, err := dataset.Open(buildDatasetConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("open dataset reader: %w", err)
	}

	var (
		snap     *recommend.Snapshot
		meta     *storage.SnapshotMetadata
		products []recommend.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap, meta, err = store.Load(gctx, cfg.Model.Version)
		if err != nil {
			return fmt.Errorf("load snapshot from %s: %w", store.Dir(), err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		products, err = reader.LoadCatalog(gctx, cfg.Catalog.Path)
		if errors.Is(err, dataset.ErrNotFound) {
			logger.Warn().Str("path", cfg.Catalog.Path).Msg("Catalog file not found, serving placeholder product metadata")
			return nil
		}
		return err
	})
	if err := g.Wait(); err != nil {
		_ = reader.Close() //nolint:errcheck // load error takes precedence
		return nil, err
	}

	catalog := recommend.NewCatalog(products)
	svc, err := recommend.NewService(buildRecommendConfig(cfg), snap, catalog, logger)
	if err != nil {
		_ = reader.Close() //nolint:errcheck // construction error takes precedence
		return nil, fmt.Errorf("create recommendation service: %w", err)
	}

	als, err := train.NewALS(buildTrainConfig(cfg), logger)
	if err != nil {
		_ = reader.Close() //nolint:errcheck // construction error takes precedence
		return nil, fmt.Errorf("create trainer: %w", err)
	}

	updater, err := ingest.NewUpdater(buildIngestConfig(cfg), svc, als, store, logger)
	if err != nil {
		_ = reader.Close() //nolint:errcheck // construction error takes precedence
		return nil, fmt.Errorf("create updater: %w", err)
	}

	logger.Info().
		Int("version", snap.Version).
		Str("checksum", meta.Checksum).
		Int("users", snap.Users.Len()).
		Int("products", snap.Products.Len()).
		Int("catalog", catalog.Len()).
		Bool("drifted", snap.Drifted()).
		Msg("Snapshot loaded")

	return &RecommendComponents{
		Store:    store,
		Service:  svc,
		Reloader: storage.NewReloader(store, svc, logger),
		Updater:  updater,
		Reader:   reader,
	}, nil
}

func buildRecommendConfig(cfg *config.Config) *recommend.Config {
	return &recommend.Config{
		DefaultN:           cfg.Recommend.DefaultN,
		MaxN:               cfg.Recommend.MaxN,
		FilterAlreadyLiked: cfg.Recommend.FilterAlreadyLiked,
	}
}

func buildTrainConfig(cfg *config.Config) train.Config {
	workers := cfg.Training.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return train.Config{
		Factors:        cfg.Training.Factors,
		Iterations:     cfg.Training.Iterations,
		Regularization: cfg.Training.Regularization,
		Alpha:          cfg.Training.Alpha,
		Workers:        workers,
	}
}

func buildIngestConfig(cfg *config.Config) ingest.Config {
	return ingest.Config{
		MaxBatch:      cfg.Training.MaxBatch,
		KeepSnapshots: cfg.Training.KeepSnapshots,
	}
}

func buildDatasetConfig(cfg *config.Config) dataset.Config {
	return dataset.Config{
		Threads:   cfg.Catalog.Threads,
		MaxMemory: cfg.Catalog.MaxMemory,
	}
}
