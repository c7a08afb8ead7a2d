// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import (
	"fmt"
	"math"
	"sort"
)

// FactorModel holds learned user and item latent vectors.
// Scores are inner products. The model is immutable after construction.
type FactorModel struct {
	// X is the user factor matrix (numUsers x numFactors)
	x [][]float64

	// Y is the item factor matrix (numItems x numFactors)
	y [][]float64

	factors int
}

// NewFactorModel copies the factor matrices into a new model.
// All rows of both matrices must share one dimensionality.
func NewFactorModel(userFactors, itemFactors [][]float64) (*FactorModel, error) {
	factors := -1
	check := func(kind string, rows [][]float64) error {
		for i, row := range rows {
			if factors < 0 {
				factors = len(row)
			}
			if len(row) != factors {
				return fmt.Errorf("%w: %s row %d has %d factors, want %d", ErrInvalidModel, kind, i, len(row), factors)
			}
		}
		return nil
	}
	if err := check("user", userFactors); err != nil {
		return nil, err
	}
	if err := check("item", itemFactors); err != nil {
		return nil, err
	}
	if factors < 0 {
		factors = 0
	}

	return &FactorModel{
		x:       copyMatrix(userFactors),
		y:       copyMatrix(itemFactors),
		factors: factors,
	}, nil
}

// Users returns the number of user vectors.
func (m *FactorModel) Users() int { return len(m.x) }

// Items returns the number of item vectors.
func (m *FactorModel) Items() int { return len(m.y) }

// Factors returns the latent dimensionality.
func (m *FactorModel) Factors() int { return m.factors }

// UserFactors returns a copy of the user factor matrix.
func (m *FactorModel) UserFactors() [][]float64 { return copyMatrix(m.x) }

// ItemFactors returns a copy of the item factor matrix.
func (m *FactorModel) ItemFactors() [][]float64 { return copyMatrix(m.y) }

// Recommend scores every item against user u and returns the best n.
// Items present in row are skipped when filterLiked is set.
func (m *FactorModel) Recommend(u int, row []MatrixEntry, n int, filterLiked bool) ([]Scored, error) {
	if u < 0 || u >= len(m.x) {
		return nil, fmt.Errorf("%w: user %d, model has %d users", ErrIndexOutOfRange, u, len(m.x))
	}
	if n <= 0 {
		return []Scored{}, nil
	}

	var liked map[int]struct{}
	if filterLiked && len(row) > 0 {
		liked = make(map[int]struct{}, len(row))
		for _, e := range row {
			liked[e.Item] = struct{}{}
		}
	}

	userVec := m.x[u]
	scores := make([]Scored, 0, len(m.y))
	for i, itemVec := range m.y {
		if _, skip := liked[i]; skip {
			continue
		}
		s := dot(userVec, itemVec)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: user %d item %d", ErrNonFiniteScore, u, i)
		}
		scores = append(scores, Scored{Index: i, Score: s})
	}

	return topN(scores, n), nil
}

// SimilarItems returns the n items whose vectors have the largest inner
// product with item i. Item i itself is included like any other item.
func (m *FactorModel) SimilarItems(i, n int) ([]Scored, error) {
	if i < 0 || i >= len(m.y) {
		return nil, fmt.Errorf("%w: item %d, model has %d items", ErrIndexOutOfRange, i, len(m.y))
	}
	if n <= 0 {
		return []Scored{}, nil
	}

	source := m.y[i]
	scores := make([]Scored, 0, len(m.y))
	for j, itemVec := range m.y {
		s := dot(source, itemVec)
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("%w: item %d item %d", ErrNonFiniteScore, i, j)
		}
		scores = append(scores, Scored{Index: j, Score: s})
	}

	return topN(scores, n), nil
}

// SortScored orders by descending score, ties by ascending index.
func SortScored(scores []Scored) {
	sort.SliceStable(scores, func(a, b int) bool {
		if scores[a].Score != scores[b].Score {
			return scores[a].Score > scores[b].Score
		}
		return scores[a].Index < scores[b].Index
	})
}

func topN(scores []Scored, n int) []Scored {
	SortScored(scores)
	if len(scores) > n {
		scores = scores[:n]
	}
	return scores
}

func dot(a, b []float64) float64 {
	var s float64
	for f := range a {
		s += a[f] * b[f]
	}
	return s
}

func copyMatrix(src [][]float64) [][]float64 {
	if src == nil {
		return nil
	}
	out := make([][]float64, len(src))
	for i := range src {
		out[i] = make([]float64, len(src[i]))
		copy(out[i], src[i])
	}
	return out
}

var _ Recommender = (*FactorModel)(nil)
