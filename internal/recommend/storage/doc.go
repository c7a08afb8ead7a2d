// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

// Package storage persists recommendation snapshots.
//
// # Storage Format
//
// Each snapshot is one file named snapshot_v{N}.gob.gz in the store
// directory. The file holds a gob-encoded record of SnapshotMetadata plus
// the gzip-compressed gob state (encoders, interaction entries and factor
// vectors). The metadata carries a SHA-256 checksum of the uncompressed
// state; Load rejects files whose content does not match.
//
// # Versions
//
// Versions are positive and monotonically increasing. Load(ctx, 0) reads
// the latest version. Files are written under a temporary name and renamed
// into place, so a directory watcher only ever sees complete snapshots.
//
// # Thread Safety
//
// Store is safe for concurrent use. Rescan picks up files written by other
// processes, such as an offline training job.
package storage
