// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/tomtom215/sawitrec/internal/recommend"
)

// CatalogFileName is the conventional catalog export name.
const CatalogFileName = "df_sale.csv"

// LoadCatalog reads product rows from a sales export. The file may repeat a
// product on many sale lines; the first row per product id wins. Rows with
// a blank product id are skipped. Optional columns that are absent read as
// empty strings, and a price that does not parse as a number is nil.
func (r *Reader) LoadCatalog(ctx context.Context, path string) ([]recommend.Product, error) {
	cols, err := r.columns(ctx, path)
	if err != nil {
		return nil, err
	}
	if !cols["product_id"] {
		return nil, fmt.Errorf("%w: %s has no product_id column", ErrInvalidFile, path)
	}

	query := fmt.Sprintf(`SELECT
		product_id,
		%s,
		TRY_CAST(%s AS DOUBLE),
		%s,
		%s,
		%s,
		%s
	FROM %s`,
		columnOr(cols, "product_name_en"),
		columnOr(cols, "product_price"),
		columnOr(cols, "product_type"),
		columnOr(cols, "unit_of_measurement"),
		columnOr(cols, "product_description_en"),
		columnOr(cols, "product_sku"),
		readCSV(path),
	)

	rows, err := r.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog %s: %w", path, err)
	}
	defer closeQuietly(rows)

	var (
		products  []recommend.Product
		seen      = make(map[string]bool)
		duplicate int
	)
	for rows.Next() {
		var (
			id, name, typ, unit, desc, sku sql.NullString
			price                          sql.NullFloat64
		)
		if err := rows.Scan(&id, &name, &price, &typ, &unit, &desc, &sku); err != nil {
			return nil, fmt.Errorf("failed to scan catalog row: %w", err)
		}
		pid := strings.TrimSpace(id.String)
		if pid == "" {
			continue
		}
		if seen[pid] {
			duplicate++
			continue
		}
		seen[pid] = true

		p := recommend.Product{
			ID:          pid,
			Name:        name.String,
			Type:        typ.String,
			Unit:        unit.String,
			Description: desc.String,
			SKU:         sku.String,
		}
		if price.Valid {
			v := price.Float64
			p.Price = &v
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate catalog rows: %w", err)
	}

	r.logger.Info().
		Str("path", path).
		Int("products", len(products)).
		Int("duplicate_rows", duplicate).
		Msg("Catalog loaded")

	return products, nil
}
