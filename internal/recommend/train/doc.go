// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package train refits factor models from interaction matrices.
//
// The serving path never trains; refits run in the incremental update job
// and produce a new recommend.FactorModel that is wrapped in a fresh
// snapshot and swapped in.
package train
