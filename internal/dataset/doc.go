// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package dataset reads the CSV files the recommender consumes: the product
catalog export (df_sale.csv) and interaction batches for incremental updates.

Files are queried through an in-memory DuckDB database using read_csv with
all_varchar, so every column arrives as text and numeric fields are parsed
with TRY_CAST. A malformed price therefore becomes a nil price rather than a
load failure.

Usage:

	r, err := dataset.Open(dataset.DefaultConfig(), logger)
	if err != nil {
	    return err
	}
	defer r.Close()

	products, err := r.LoadCatalog(ctx, "data/df_sale.csv")
	if errors.Is(err, dataset.ErrNotFound) {
	    // serve with an empty catalog
	}
*/
package dataset
