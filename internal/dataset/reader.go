// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when a dataset file does not exist.
	ErrNotFound = errors.New("dataset file not found")

	// ErrInvalidFile is returned when a file lacks a required column.
	ErrInvalidFile = errors.New("invalid dataset file")
)

// Config tunes the in-memory DuckDB instance used to read files.
type Config struct {
	// Threads is the DuckDB worker thread count. 0 means runtime.NumCPU().
	Threads int

	// MaxMemory caps DuckDB memory, e.g. "512MB".
	MaxMemory string
}

// DefaultConfig returns the default reader configuration.
func DefaultConfig() Config {
	return Config{
		Threads:   2,
		MaxMemory: "512MB",
	}
}

// Reader reads CSV datasets through an in-memory DuckDB connection.
// A Reader is safe for concurrent use.
type Reader struct {
	conn   *sql.DB
	logger zerolog.Logger
}

// Open creates a Reader backed by a private in-memory database.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func Open(cfg Config, logger zerolog.Logger) (*Reader, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	if cfg.MaxMemory == "" {
		cfg.MaxMemory = DefaultConfig().MaxMemory
	}

	// Extensions are never needed for read_csv; autoload stays off so a
	// restricted network cannot stall startup.
	connStr := fmt.Sprintf(":memory:?threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		threads, cfg.MaxMemory)

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb: %w", err)
	}
	if err := conn.Ping(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping duckdb: %w", err)
	}

	return &Reader{
		conn:   conn,
		logger: logger.With().Str("component", "dataset").Logger(),
	}, nil
}

// Close releases the database.
func (r *Reader) Close() error {
	return r.conn.Close()
}

// columns returns the lower-cased header of the CSV at path.
func (r *Reader) columns(ctx context.Context, path string) (map[string]bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	rows, err := r.conn.QueryContext(ctx, "SELECT * FROM "+readCSV(path)+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	defer closeQuietly(rows)

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[strings.ToLower(strings.TrimSpace(n))] = true
	}
	return out, nil
}

// readCSV renders a read_csv table function call. Every column is read as
// VARCHAR so malformed numbers surface as NULL through TRY_CAST instead of
// failing the whole file.
func readCSV(path string) string {
	return fmt.Sprintf("read_csv(%s, header = true, all_varchar = true)", quoteLiteral(path))
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// columnOr selects name when the file has it, otherwise NULL.
func columnOr(cols map[string]bool, name string) string {
	if cols[name] {
		return quoteIdent(name)
	}
	return "NULL"
}

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
