// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package recommend serves product recommendations from a pre-trained
// matrix-factorization snapshot.
//
// # Architecture
//
// A Snapshot bundles everything trained together:
//
//   - Encoders: bijections between external user/product ids and matrix indices
//   - InteractionMatrix: sparse CSR user x product interaction strengths
//   - FactorModel: dense latent vectors scored by inner product
//
// The Service holds the current snapshot behind an atomic pointer. Each query
// loads the pointer once, so a concurrent Swap is never observed half-way.
//
// # Queries
//
//   - RecommendForUser: top-N products for a user, skipping already-liked items
//   - RecommendSimilar: top-N products nearest to a product, excluding itself
//
// Results are ordered by descending relevance score with ties broken by
// ascending product index, then enriched from the Catalog. Products missing
// from the catalog are returned with placeholder name and type.
//
// # Fallback
//
// Queries never fail. Unknown ids, indices beyond the loaded model, empty
// results and model errors (including panics and non-finite scores) all
// degrade to the first N catalog products with a relevance score of 0.0.
// The Result carries the source and the FallbackReason so callers can
// distinguish personalized output from the fallback list.
//
// # Usage
//
//	svc, err := recommend.NewService(cfg, snap, catalog, logger)
//	if err != nil {
//	    return err
//	}
//	res := svc.RecommendForUser(ctx, userID, 10)
//
// # Thread Safety
//
// Service is safe for concurrent use. Snapshots and catalogs are immutable
// once built; updates construct new values and swap them in.
package recommend
