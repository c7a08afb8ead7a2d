// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package ingest applies batches of new interactions to the served snapshot.
//
// Only users and products already known to the snapshot are accepted; the
// encoders never grow during an update. The refit runs off the query path
// and the result becomes visible through a single atomic swap.
package ingest
