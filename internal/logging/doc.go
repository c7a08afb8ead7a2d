// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package logging provides centralized zerolog-based structured logging.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Int("version", 3).Msg("Snapshot loaded")
//	logging.Ctx(ctx).Warn().Str("user_id", logging.SanitizeID(id)).Msg("Unknown user")
//
// # Configuration
//
// The level and format come from the logging section of the service config
// (LOG_LEVEL and LOG_FORMAT in the environment). JSON is the production
// format; console output is meant for local development.
//
// # Adapters
//
//   - SlogHandler: slog.Handler for slog-only libraries such as sutureslog
//   - WatermillAdapter: watermill.LoggerAdapter for the feedback publishers
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send(). Prefer structured
// fields over formatted messages, and never log bearer tokens unmasked.
package logging
