// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package validation provides struct validation using go-playground/validator v10.
//
// A single validator instance is shared process-wide; it caches struct
// metadata and is safe for concurrent use. Error field names follow json
// tags so API clients see the names they sent.
//
// Custom tags:
//   - isotime: RFC3339 or zone-less ISO-8601 timestamp (see TimestampLayouts)
//   - notblank: non-empty after trimming whitespace
//
// Example:
//
//	type request struct {
//	    UserID string `json:"user_id" validate:"required,notblank,max=128"`
//	    Action string `json:"action" validate:"required,oneof=view click purchase"`
//	}
//
//	if verr := validation.ValidateStruct(&req); verr != nil {
//	    // 400 with verr.Details()
//	}
package validation
