// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import (
	"fmt"
	"time"
)

// Snapshot bundles the encoders, interaction matrix and factor model that
// were built together. A snapshot is never mutated; reloads build a new one.
type Snapshot struct {
	Version      int
	TrainedAt    time.Time
	Users        *Encoder
	Products     *Encoder
	Interactions *InteractionMatrix
	Model        Recommender
}

// NewSnapshot validates the parts and assembles a snapshot.
//
// The matrix shape must equal the encoder cardinalities. The model may hold
// fewer vectors than the encoders; such indices are served as stale.
func NewSnapshot(version int, trainedAt time.Time, users, products *Encoder, interactions *InteractionMatrix, model Recommender) (*Snapshot, error) {
	if users == nil || products == nil {
		return nil, fmt.Errorf("%w: missing encoder", ErrInvalidSnapshot)
	}
	if interactions == nil {
		return nil, fmt.Errorf("%w: missing interaction matrix", ErrInvalidSnapshot)
	}
	if model == nil {
		return nil, fmt.Errorf("%w: missing factor model", ErrInvalidSnapshot)
	}
	rows, cols := interactions.Shape()
	if rows != users.Len() || cols != products.Len() {
		return nil, fmt.Errorf("%w: matrix shape (%d, %d) does not match encoders (%d, %d)",
			ErrInvalidSnapshot, rows, cols, users.Len(), products.Len())
	}

	return &Snapshot{
		Version:      version,
		TrainedAt:    trainedAt,
		Users:        users,
		Products:     products,
		Interactions: interactions,
		Model:        model,
	}, nil
}

// FactorModel returns the concrete factor model, or nil when the snapshot
// was built around another Recommender.
func (s *Snapshot) FactorModel() *FactorModel {
	fm, _ := s.Model.(*FactorModel)
	return fm
}

// Drifted reports whether the model vector counts differ from the encoders.
func (s *Snapshot) Drifted() bool {
	return s.Model.Users() != s.Users.Len() || s.Model.Items() != s.Products.Len()
}
