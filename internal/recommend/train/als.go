// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package train

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/sawitrec/internal/recommend"
)

// ErrInvalidConfig is returned for unusable training parameters.
var ErrInvalidConfig = errors.New("invalid training config")

// Config contains configuration for the ALS refit.
type Config struct {
	// Factors is the dimension of the latent vectors.
	Factors int `koanf:"factors" json:"factors"`

	// Iterations is the number of alternating passes.
	Iterations int `koanf:"iterations" json:"iterations"`

	// Regularization is the L2 penalty lambda.
	Regularization float64 `koanf:"regularization" json:"regularization"`

	// Alpha scales implicit strengths into confidence: c = 1 + alpha * r.
	Alpha float64 `koanf:"alpha" json:"alpha"`

	// Workers bounds the number of parallel solves.
	Workers int `koanf:"workers" json:"workers"`
}

// DefaultConfig returns default ALS configuration.
func DefaultConfig() Config {
	return Config{
		Factors:        64,
		Iterations:     15,
		Regularization: 0.01,
		Alpha:          40.0,
		Workers:        4,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	switch {
	case c.Factors < 1:
		return fmt.Errorf("%w: factors must be positive, got %d", ErrInvalidConfig, c.Factors)
	case c.Iterations < 1:
		return fmt.Errorf("%w: iterations must be positive, got %d", ErrInvalidConfig, c.Iterations)
	case c.Regularization <= 0:
		return fmt.Errorf("%w: regularization must be positive, got %v", ErrInvalidConfig, c.Regularization)
	case c.Alpha <= 0:
		return fmt.Errorf("%w: alpha must be positive, got %v", ErrInvalidConfig, c.Alpha)
	case c.Workers < 1:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	return nil
}

// ALS fits implicit-feedback factor models with Alternating Least Squares.
// Reference: "Collaborative Filtering for Implicit Feedback Datasets" (Hu, Koren, Volinsky, 2008)
//
// The objective minimizes
//
//	sum_{u,i} c_ui * (p_ui - x_u' * y_i)^2 + lambda * (||x_u||^2 + ||y_i||^2)
//
// where p_ui = 1 when the matrix holds a positive strength r_ui and
// c_ui = 1 + alpha * r_ui.
type ALS struct {
	config Config
	logger zerolog.Logger
}

// NewALS creates a trainer.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewALS(cfg Config, logger zerolog.Logger) (*ALS, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ALS{
		config: cfg,
		logger: logger.With().Str("component", "als").Logger(),
	}, nil
}

// Config returns the trainer configuration.
func (a *ALS) Config() Config {
	return a.config
}

// confidence is one nonzero of the confidence matrix.
type confidence struct {
	index int
	c     float64
}

// Fit factorizes m. When warm has the configured factor count its vectors
// seed the first rows, so existing users and items start from their
// previous position; rows beyond warm get a deterministic initialisation.
// Fit checks ctx between half-steps.
func (a *ALS) Fit(ctx context.Context, m *recommend.InteractionMatrix, warm *recommend.FactorModel) (*recommend.FactorModel, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil matrix", recommend.ErrInvalidMatrix)
	}
	start := time.Now()
	numUsers, numItems := m.Shape()
	k := a.config.Factors

	userRows := make([][]confidence, numUsers)
	itemCols := make([][]confidence, numItems)
	for _, e := range m.Entries() {
		c := 1.0 + a.config.Alpha*e.Value
		userRows[e.User] = append(userRows[e.User], confidence{index: e.Item, c: c})
		itemCols[e.Item] = append(itemCols[e.Item], confidence{index: e.User, c: c})
	}

	x := initFactors(numUsers, k, 0)
	y := initFactors(numItems, k, 1)
	warmStarted := warm != nil && warm.Factors() == k
	if warmStarted {
		copyRows(x, warm.UserFactors())
		copyRows(y, warm.ItemFactors())
	}

	for iter := 0; iter < a.config.Iterations; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.solveAll(ctx, x, y, userRows); err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := a.solveAll(ctx, y, x, itemCols); err != nil {
			return nil, err
		}
	}

	model, err := recommend.NewFactorModel(x, y)
	if err != nil {
		return nil, err
	}

	a.logger.Debug().
		Int("users", numUsers).
		Int("items", numItems).
		Int("nnz", m.NNZ()).
		Bool("warm_start", warmStarted).
		Dur("duration", time.Since(start)).
		Msg("ALS fit complete")

	return model, nil
}

// solveAll recomputes every row of target with fixed held constant.
// Rows are split into contiguous chunks, one per worker.
func (a *ALS) solveAll(ctx context.Context, target, fixed [][]float64, weights [][]confidence) error {
	n := len(target)
	if n == 0 {
		return nil
	}
	gram := gramian(fixed, a.config.Factors)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)

	chunk := (n + a.config.Workers - 1) / a.config.Workers
	for lo := 0; lo < n; lo += chunk {
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			for r := lo; r < hi; r++ {
				if r%256 == 0 {
					if err := gctx.Err(); err != nil {
						return err
					}
				}
				target[r] = a.solveRow(weights[r], fixed, gram)
			}
			return nil
		})
	}
	return g.Wait()
}

// solveRow solves (F'F + F' (C - I) F + lambda I) v = F' C p for one row.
//
//nolint:gocritic // A follows standard linear algebra notation
func (a *ALS) solveRow(weights []confidence, fixed, gram [][]float64) []float64 {
	k := a.config.Factors
	A := make([][]float64, k)
	for f := range A {
		A[f] = make([]float64, k)
		copy(A[f], gram[f])
		A[f][f] += a.config.Regularization
	}

	b := make([]float64, k)
	for _, w := range weights {
		v := fixed[w.index]
		cMinus1 := w.c - 1.0
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				delta := cMinus1 * v[f1] * v[f2]
				A[f1][f2] += delta
				if f1 != f2 {
					A[f2][f1] += delta
				}
			}
			b[f1] += w.c * v[f1]
		}
	}
	return solveCholesky(A, b)
}

// gramian returns F'F.
func gramian(rows [][]float64, k int) [][]float64 {
	g := make([][]float64, k)
	for f := range g {
		g[f] = make([]float64, k)
	}
	for _, row := range rows {
		for f1 := 0; f1 < k; f1++ {
			for f2 := f1; f2 < k; f2++ {
				g[f1][f2] += row[f1] * row[f2]
			}
		}
	}
	for f1 := 0; f1 < k; f1++ {
		for f2 := 0; f2 < f1; f2++ {
			g[f1][f2] = g[f2][f1]
		}
	}
	return g
}

// solveCholesky solves A*x = b for symmetric positive definite A.
// Non-positive pivots are clamped to keep the solve finite.
//
//nolint:gocritic // A, L follow standard linear algebra notation
func solveCholesky(A [][]float64, b []float64) []float64 {
	n := len(b)
	L := make([][]float64, n)
	for i := range L {
		L[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			sum := A[i][j]
			for k := 0; k < j; k++ {
				sum -= L[i][k] * L[j][k]
			}
			if i == j {
				if sum <= 0 {
					sum = 1e-10
				}
				L[i][j] = math.Sqrt(sum)
			} else {
				L[i][j] = sum / L[j][j]
			}
		}
	}

	z := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= L[i][j] * z[j]
		}
		z[i] = sum / L[i][i]
	}

	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := z[i]
		for j := i + 1; j < n; j++ {
			sum -= L[j][i] * x[j]
		}
		x[i] = sum / L[i][i]
	}
	return x
}

// initFactors returns a small deterministic initialisation. salt keeps the
// user and item matrices from starting identical.
func initFactors(rows, k, salt int) [][]float64 {
	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, k)
		for f := 0; f < k; f++ {
			out[r][f] = 0.1 * (float64((r*k+f+salt*7919)%1000)/1000.0 - 0.5)
		}
	}
	return out
}

// copyRows overwrites the leading rows of dst with src where shapes allow.
func copyRows(dst, src [][]float64) {
	for r := 0; r < len(dst) && r < len(src); r++ {
		if len(src[r]) == len(dst[r]) {
			copy(dst[r], src[r])
		}
	}
}
