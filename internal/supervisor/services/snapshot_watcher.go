// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package services

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/recommend/storage"
)

// SnapshotReloader is satisfied by *storage.Reloader.
type SnapshotReloader interface {
	ReloadLatest(ctx context.Context) (*storage.ReloadResult, error)
}

// SnapshotWatcherConfig controls when the watcher checks for new snapshots.
type SnapshotWatcherConfig struct {
	// Dir is the snapshot directory to watch.
	Dir string

	// Interval is the polling period. Polling also covers filesystems
	// without inotify support, such as some network mounts.
	Interval time.Duration

	// Debounce delays a reload after the last file event so a snapshot
	// that is still being written is not read early.
	Debounce time.Duration
}

// SnapshotWatcherService swaps in newer snapshots published by the
// offline trainer. Reload failures are logged and the current snapshot
// keeps being served.
type SnapshotWatcherService struct {
	reloader SnapshotReloader
	config   SnapshotWatcherConfig
	logger   zerolog.Logger
}

// NewSnapshotWatcherService creates a watcher. Zero durations default to
// one minute polling and a two second debounce.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSnapshotWatcherService(reloader SnapshotReloader, cfg SnapshotWatcherConfig, logger zerolog.Logger) *SnapshotWatcherService {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 2 * time.Second
	}
	return &SnapshotWatcherService{
		reloader: reloader,
		config:   cfg,
		logger:   logger.With().Str("service", "snapshot-watcher").Logger(),
	}
}

// Serve implements suture.Service.
func (s *SnapshotWatcherService) Serve(ctx context.Context) error {
	var events <-chan fsnotify.Event
	var watchErrs <-chan error

	watcher, err := fsnotify.NewWatcher()
	if err == nil {
		err = watcher.Add(s.config.Dir)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.config.Dir).Msg("Filesystem notifications unavailable, polling only")
	} else {
		events, watchErrs = watcher.Events, watcher.Errors
	}
	if watcher != nil {
		defer watcher.Close() //nolint:errcheck // best effort on shutdown
	}

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	debounce := time.NewTimer(s.config.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	s.logger.Info().
		Str("dir", s.config.Dir).
		Dur("interval", s.config.Interval).
		Msg("Snapshot watcher started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if !isSnapshotEvent(ev) {
				continue
			}
			s.logger.Debug().Str("file", ev.Name).Str("op", ev.Op.String()).Msg("Snapshot file changed")
			debounce.Reset(s.config.Debounce)

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			s.logger.Warn().Err(err).Msg("Snapshot watch error")

		case <-debounce.C:
			s.reload(ctx, "fsnotify")

		case <-ticker.C:
			s.reload(ctx, "poll")
		}
	}
}

func (s *SnapshotWatcherService) reload(ctx context.Context, trigger string) {
	res, err := s.reloader.ReloadLatest(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error().Err(err).Str("trigger", trigger).Msg("Snapshot reload failed, keeping current snapshot")
		}
		return
	}
	if res.Swapped {
		s.logger.Info().
			Int("previous_version", res.PreviousVersion).
			Int("version", res.Version).
			Str("trigger", trigger).
			Msg("Snapshot reloaded")
	}
}

func isSnapshotEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
		return false
	}
	_, ok := storage.ParseFilename(filepath.Base(ev.Name))
	return ok
}

func (s *SnapshotWatcherService) String() string {
	return "snapshot-watcher"
}
