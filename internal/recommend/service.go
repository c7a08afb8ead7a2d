// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/tomtom215/sawitrec/internal/logging"
	"github.com/tomtom215/sawitrec/internal/metrics"
)

// Query kinds used in logs and metrics.
const (
	KindUser    = "user"
	KindSimilar = "similar"
)

// errModelQuery wraps failures raised inside a model query.
var errModelQuery = errors.New("model query failed")

// Service answers recommendation queries against the current snapshot.
//
// Queries load the snapshot pointer once, so a concurrent Swap never mixes
// the encoders of one snapshot with the model of another. A query never
// returns an error: every failure degrades to the fallback list.
type Service struct {
	config *Config
	logger zerolog.Logger

	snapshot atomic.Pointer[Snapshot]
	catalog  atomic.Pointer[Catalog]

	newID func() string

	personalized atomic.Int64
	fallbacks    atomic.Int64
	failures     atomic.Int64
	swaps        atomic.Int64
}

// Stats contains service counters.
type Stats struct {
	Personalized    int64 `json:"personalized"`
	Fallbacks       int64 `json:"fallbacks"`
	ModelFailures   int64 `json:"model_failures"`
	Swaps           int64 `json:"swaps"`
	SnapshotVersion int   `json:"snapshot_version"`
	Users           int   `json:"users"`
	Products        int   `json:"products"`
	CatalogSize     int   `json:"catalog_size"`
}

// NewService creates a service serving snap. A nil catalog is treated as empty.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewService(cfg *Config, snap *Snapshot, catalog *Catalog, logger zerolog.Logger) (*Service, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if catalog == nil {
		catalog = EmptyCatalog()
	}

	s := &Service{
		config: cfg.Clone(),
		logger: logger.With().Str("component", "recommend").Logger(),
		newID:  uuid.NewString,
	}
	s.snapshot.Store(snap)
	s.catalog.Store(catalog)
	metrics.SetSnapshotInfo(snap.Version, snap.Users.Len(), snap.Products.Len())
	metrics.SetCatalogSize(catalog.Len())

	return s, nil
}

// Config returns a copy of the serving configuration.
func (s *Service) Config() *Config {
	return s.config.Clone()
}

// Snapshot returns the snapshot currently served.
func (s *Service) Snapshot() *Snapshot {
	return s.snapshot.Load()
}

// Catalog returns the catalog currently used for enrichment.
func (s *Service) Catalog() *Catalog {
	return s.catalog.Load()
}

// Swap atomically replaces the served snapshot and returns the previous one.
func (s *Service) Swap(next *Snapshot) (*Snapshot, error) {
	if next == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	prev := s.snapshot.Swap(next)
	s.recordSwap(prev, next)
	return prev, nil
}

// CompareAndSwap installs next only while old is still served. It reports
// false, leaving the served snapshot alone, when another writer got there
// first.
func (s *Service) CompareAndSwap(old, next *Snapshot) (bool, error) {
	if next == nil {
		return false, fmt.Errorf("%w: nil snapshot", ErrInvalidSnapshot)
	}
	if !s.snapshot.CompareAndSwap(old, next) {
		return false, nil
	}
	s.recordSwap(old, next)
	return true, nil
}

func (s *Service) recordSwap(prev, next *Snapshot) {
	s.swaps.Add(1)
	metrics.RecordSnapshotSwap()
	metrics.SetSnapshotInfo(next.Version, next.Users.Len(), next.Products.Len())

	event := s.logger.Info().
		Int("version", next.Version).
		Int("users", next.Users.Len()).
		Int("products", next.Products.Len())
	if prev != nil {
		event = event.Int("previous_version", prev.Version)
	}
	event.Msg("Snapshot swapped")
}

// SetCatalog atomically replaces the enrichment catalog. Nil means empty.
func (s *Service) SetCatalog(c *Catalog) {
	if c == nil {
		c = EmptyCatalog()
	}
	s.catalog.Store(c)
	metrics.SetCatalogSize(c.Len())
}

// IsKnownUser reports whether the current snapshot knows the user id.
func (s *Service) IsKnownUser(id string) bool {
	return s.snapshot.Load().Users.IsKnown(id)
}

// IsKnownProduct reports whether the current snapshot knows the product id.
func (s *Service) IsKnownProduct(id string) bool {
	return s.snapshot.Load().Products.IsKnown(id)
}

// SnapshotVersion returns the version of the served snapshot.
func (s *Service) SnapshotVersion() int {
	return s.snapshot.Load().Version
}

// Stats returns current counters.
func (s *Service) Stats() Stats {
	snap := s.snapshot.Load()
	return Stats{
		Personalized:    s.personalized.Load(),
		Fallbacks:       s.fallbacks.Load(),
		ModelFailures:   s.failures.Load(),
		Swaps:           s.swaps.Load(),
		SnapshotVersion: snap.Version,
		Users:           snap.Users.Len(),
		Products:        snap.Products.Len(),
		CatalogSize:     s.catalog.Load().Len(),
	}
}

// RecommendForUser returns up to n items for the user.
// Unknown users, stale indices, empty results and model failures all yield
// the fallback list truncated to n.
func (s *Service) RecommendForUser(ctx context.Context, userID string, n int) Result {
	start := time.Now()
	n = s.config.clampN(n)
	snap := s.snapshot.Load()
	catalog := s.catalog.Load()

	res := s.recommendForUser(ctx, snap, catalog, userID, n)
	s.record(ctx, KindUser, userID, &res, time.Since(start))
	return res
}

func (s *Service) recommendForUser(ctx context.Context, snap *Snapshot, catalog *Catalog, userID string, n int) Result {
	u, ok := snap.Users.Encode(userID)
	if !ok {
		return s.fallback(snap, catalog, n, ReasonUnknownID)
	}
	if u >= snap.Model.Users() {
		s.log(ctx).Warn().
			Str("user_id", userID).
			Int("index", u).
			Int("model_users", snap.Model.Users()).
			Msg("User index outside loaded model, serving fallback")
		return s.fallback(snap, catalog, n, ReasonStaleIndex)
	}

	items, err := s.query(snap, catalog, n, -1, func() ([]Scored, error) {
		return snap.Model.Recommend(u, snap.Interactions.Row(u), n, s.config.FilterAlreadyLiked)
	})
	return s.finish(ctx, KindUser, userID, snap, catalog, n, items, err)
}

// RecommendSimilar returns up to n items similar to the product, never
// including the product itself.
func (s *Service) RecommendSimilar(ctx context.Context, productID string, n int) Result {
	start := time.Now()
	n = s.config.clampN(n)
	snap := s.snapshot.Load()
	catalog := s.catalog.Load()

	res := s.recommendSimilar(ctx, snap, catalog, productID, n)
	s.record(ctx, KindSimilar, productID, &res, time.Since(start))
	return res
}

func (s *Service) recommendSimilar(ctx context.Context, snap *Snapshot, catalog *Catalog, productID string, n int) Result {
	p, ok := snap.Products.Encode(productID)
	if !ok {
		return s.fallback(snap, catalog, n, ReasonUnknownID)
	}
	if p >= snap.Model.Items() {
		s.log(ctx).Warn().
			Str("product_id", productID).
			Int("index", p).
			Int("model_items", snap.Model.Items()).
			Msg("Product index outside loaded model, serving fallback")
		return s.fallback(snap, catalog, n, ReasonStaleIndex)
	}

	// The neighbor search returns the query item as its own best match,
	// so ask for one extra and drop it.
	items, err := s.query(snap, catalog, n, p, func() ([]Scored, error) {
		return snap.Model.SimilarItems(p, n+1)
	})
	return s.finish(ctx, KindSimilar, productID, snap, catalog, n, items, err)
}

// finish turns a query outcome into a Result, falling back on error or empty output.
func (s *Service) finish(ctx context.Context, kind, id string, snap *Snapshot, catalog *Catalog, n int, items []ResultItem, err error) Result {
	if err != nil {
		s.failures.Add(1)
		metrics.RecordModelFailure(kind)
		s.log(ctx).Error().
			Err(err).
			Str("kind", kind).
			Str("id", id).
			Int("snapshot_version", snap.Version).
			Msg("Model query failed, serving fallback")
		return s.fallback(snap, catalog, n, ReasonModelFailure)
	}
	if len(items) == 0 {
		return s.fallback(snap, catalog, n, ReasonEmptyResult)
	}
	return Result{
		Items:           items,
		Source:          SourcePersonalized,
		Reason:          ReasonNone,
		SnapshotVersion: snap.Version,
	}
}

// query runs fn and maps its output to enriched items. A panic anywhere in
// the query or the mapping is converted into an error.
func (s *Service) query(snap *Snapshot, catalog *Catalog, n, exclude int, fn func() ([]Scored, error)) (items []ResultItem, err error) {
	defer func() {
		if r := recover(); r != nil {
			items = nil
			err = fmt.Errorf("%w: panic: %v", errModelQuery, r)
		}
	}()

	scored, err := fn()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errModelQuery, err)
	}

	for _, sc := range scored {
		if math.IsNaN(sc.Score) || math.IsInf(sc.Score, 0) {
			return nil, fmt.Errorf("%w: item %d", ErrNonFiniteScore, sc.Index)
		}
	}

	ranked := make([]Scored, len(scored))
	copy(ranked, scored)
	SortScored(ranked)
	ranked = lo.Filter(ranked, func(sc Scored, _ int) bool { return sc.Index != exclude })
	ranked = lo.UniqBy(ranked, func(sc Scored) int { return sc.Index })

	items = make([]ResultItem, 0, n)
	for _, sc := range ranked {
		if len(items) == n {
			break
		}
		productID, ok := snap.Products.Decode(sc.Index)
		if !ok {
			continue
		}
		items = append(items, catalog.enrich(productID, sc.Score, s.newID()))
	}
	return items, nil
}

func (s *Service) fallback(snap *Snapshot, catalog *Catalog, n int, reason FallbackReason) Result {
	return Result{
		Items:           Fallback(catalog, n, s.newID),
		Source:          SourceFallback,
		Reason:          reason,
		SnapshotVersion: snap.Version,
	}
}

func (s *Service) record(ctx context.Context, kind, id string, res *Result, d time.Duration) {
	if res.IsFallback() {
		s.fallbacks.Add(1)
	} else {
		s.personalized.Add(1)
	}
	metrics.RecordRecommendation(kind, res.Source.String(), res.Reason.String(), d.Seconds())

	s.log(ctx).Debug().
		Str("kind", kind).
		Str("id", id).
		Str("source", res.Source.String()).
		Str("reason", res.Reason.String()).
		Int("items", len(res.Items)).
		Dur("duration", d).
		Msg("Recommendation served")
}

func (s *Service) log(ctx context.Context) *zerolog.Logger {
	l := s.logger
	if requestID := logging.RequestIDFromContext(ctx); requestID != "" {
		l = l.With().Str("request_id", requestID).Logger()
	}
	return &l
}
