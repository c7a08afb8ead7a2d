// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package dataset

import (
	"context"
	"fmt"
)

// Interaction is one observed (user, product, strength) event.
type Interaction struct {
	UserID    string  `json:"user_id" validate:"required,notblank,max=128"`
	ProductID string  `json:"product_id" validate:"required,notblank,max=128"`
	Strength  float64 `json:"strength" validate:"gt=0"`
}

// strengthColumns are tried in order.
var strengthColumns = []string{"quantity", "rating"}

// LoadInteractions reads a batch of interactions. The strength comes from
// the quantity column, or rating when quantity is absent. Repeated
// (user, product) pairs are summed. Rows whose strength does not parse are
// dropped. Results are ordered by user id then product id.
func (r *Reader) LoadInteractions(ctx context.Context, path string) ([]Interaction, error) {
	cols, err := r.columns(ctx, path)
	if err != nil {
		return nil, err
	}
	if !cols["user_id"] || !cols["product_id"] {
		return nil, fmt.Errorf("%w: %s needs user_id and product_id columns", ErrInvalidFile, path)
	}

	strength := ""
	for _, c := range strengthColumns {
		if cols[c] {
			strength = c
			break
		}
	}
	if strength == "" {
		return nil, fmt.Errorf("%w: %s has neither quantity nor rating column", ErrInvalidFile, path)
	}

	query := fmt.Sprintf(`SELECT
		trim(user_id) AS uid,
		trim(product_id) AS pid,
		SUM(TRY_CAST(%s AS DOUBLE)) AS strength
	FROM %s
	WHERE TRY_CAST(%s AS DOUBLE) IS NOT NULL
		AND trim(coalesce(user_id, '')) <> ''
		AND trim(coalesce(product_id, '')) <> ''
	GROUP BY uid, pid
	ORDER BY uid, pid`,
		quoteIdent(strength), readCSV(path), quoteIdent(strength))

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query interactions %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var out []Interaction
	for rows.Next() {
		var in Interaction
		if err := rows.Scan(&in.UserID, &in.ProductID, &in.Strength); err != nil {
			return nil, fmt.Errorf("failed to scan interaction row: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate interaction rows: %w", err)
	}

	r.logger.Info().
		Str("path", path).
		Str("strength_column", strength).
		Int("pairs", len(out)).
		Msg("Interactions loaded")

	return out, nil
}
