// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/feedback"
)

// FeedbackRunner is satisfied by *feedback.Forwarder.
type FeedbackRunner interface {
	Run(ctx context.Context) error
}

// FeedbackForwarderService drains the feedback outbox to the broker.
type FeedbackForwarderService struct {
	forwarder FeedbackRunner
}

// NewFeedbackForwarderService wraps forwarder.
func NewFeedbackForwarderService(forwarder FeedbackRunner) *FeedbackForwarderService {
	return &FeedbackForwarderService{forwarder: forwarder}
}

// Serve implements suture.Service.
func (s *FeedbackForwarderService) Serve(ctx context.Context) error {
	return s.forwarder.Run(ctx)
}

func (s *FeedbackForwarderService) String() string {
	return "feedback-forwarder"
}

// FeedbackStore is the maintenance surface of *feedback.BadgerStore.
type FeedbackStore interface {
	RunGC(ratio float64) error
	Stats() feedback.StoreStats
}

// FeedbackMaintenanceService periodically compacts the feedback store and
// refreshes the pending gauge.
type FeedbackMaintenanceService struct {
	store    FeedbackStore
	interval time.Duration
	gcRatio  float64
	logger   zerolog.Logger
}

// NewFeedbackMaintenanceService creates the maintenance loop. A
// non-positive interval defaults to ten minutes.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewFeedbackMaintenanceService(store FeedbackStore, interval time.Duration, logger zerolog.Logger) *FeedbackMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &FeedbackMaintenanceService{
		store:    store,
		interval: interval,
		gcRatio:  0.5,
		logger:   logger.With().Str("service", "feedback-maintenance").Logger(),
	}
}

// Serve implements suture.Service.
func (s *FeedbackMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runOnce()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *FeedbackMaintenanceService) runOnce() {
	start := time.Now()
	if err := s.store.RunGC(s.gcRatio); err != nil {
		s.logger.Warn().Err(err).Msg("Feedback store GC failed")
	}
	stats := s.store.Stats()
	s.logger.Debug().
		Int64("pending", stats.Pending).
		Int64("forwarded", stats.Forwarded).
		Int64("size_bytes", stats.SizeBytes).
		Dur("duration", time.Since(start)).
		Msg("Feedback store maintenance complete")
}

func (s *FeedbackMaintenanceService) String() string {
	return "feedback-maintenance"
}
