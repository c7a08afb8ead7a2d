// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package recommend

import "errors"

var (
	// ErrInvalidEncoder is returned for duplicate or empty encoder ids.
	ErrInvalidEncoder = errors.New("invalid encoder")

	// ErrInvalidMatrix is returned for out-of-range or negative matrix entries.
	ErrInvalidMatrix = errors.New("invalid interaction matrix")

	// ErrInvalidModel is returned for ragged or mismatched factor matrices.
	ErrInvalidModel = errors.New("invalid factor model")

	// ErrIndexOutOfRange is returned when a user or item index is outside the model.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNonFiniteScore is returned when a score is NaN or infinite.
	ErrNonFiniteScore = errors.New("non-finite score")

	// ErrInvalidSnapshot is returned when snapshot parts disagree on shape.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
