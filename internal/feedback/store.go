// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/metrics"
)

var (
	// ErrStoreClosed is returned after Close.
	ErrStoreClosed = errors.New("feedback store is closed")

	// ErrRecordNotFound is returned when no record has the given id.
	ErrRecordNotFound = errors.New("feedback record not found")
)

// Key prefixes. Record ids are UUIDv7 so keys within a prefix sort by arrival.
const (
	prefixPending   = "pending:"
	prefixForwarded = "forwarded:"
	prefixFailed    = "failed:"
)

// StoreConfig configures the durable feedback log.
type StoreConfig struct {
	// Path is the Badger directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps the log in memory only (tests, local runs).
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// TTL expires records this long after they are written. 0 keeps them forever.
	TTL time.Duration
}

// DefaultStoreConfig returns default store configuration.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Path:       "/data/feedback",
		SyncWrites: true,
		TTL:        30 * 24 * time.Hour,
	}
}

// StoreStats contains store counters.
type StoreStats struct {
	Pending        int64 `json:"pending"`
	Forwarded      int64 `json:"forwarded"`
	Failed         int64 `json:"failed"`
	TotalAppends   int64 `json:"total_appends"`
	TotalForwarded int64 `json:"total_forwarded"`
	SizeBytes      int64 `json:"size_bytes"`
}

// BadgerStore is a durable log of accepted feedback. Records are written
// under pending: and moved to forwarded: once published downstream, or to
// failed: once the forwarder stops retrying them.
type BadgerStore struct {
	db     *badger.DB
	config StoreConfig
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool

	appends   atomic.Int64
	forwarded atomic.Int64
}

// OpenStore opens (or creates) the store.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func OpenStore(cfg StoreConfig, logger zerolog.Logger) (*BadgerStore, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("feedback store path is required")
	}
	if cfg.TTL < 0 {
		return nil, fmt.Errorf("feedback store ttl must not be negative, got %v", cfg.TTL)
	}

	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerStore{
		db:     db,
		config: cfg,
		logger: logger.With().Str("component", "feedback_store").Logger(),
	}
	s.logger.Info().
		Str("path", cfg.Path).
		Bool("in_memory", cfg.InMemory).
		Dur("ttl", cfg.TTL).
		Msg("Feedback store opened")
	return s, nil
}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

func (s *BadgerStore) entry(key string, rec *Record) (*badger.Entry, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	e := badger.NewEntry([]byte(key), data)
	if s.config.TTL > 0 {
		e = e.WithTTL(s.config.TTL)
	}
	return e, nil
}

// Append durably stores rec as pending.
func (s *BadgerStore) Append(ctx context.Context, rec *Record) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if rec == nil || rec.ID == "" {
		return errors.New("record id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e, err := s.entry(prefixPending+rec.ID, rec)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	}); err != nil {
		return fmt.Errorf("write to BadgerDB: %w", err)
	}

	s.appends.Add(1)
	return nil
}

// MarkForwarded moves a pending record to forwarded.
func (s *BadgerStore) MarkForwarded(_ context.Context, id string) error {
	if err := s.movePending(id, prefixForwarded); err != nil {
		return err
	}
	s.forwarded.Add(1)
	return nil
}

// MarkFailed moves a pending record to failed. Failed records are kept
// until their TTL for inspection but are never forwarded again.
func (s *BadgerStore) MarkFailed(_ context.Context, id string) error {
	return s.movePending(id, prefixFailed)
}

func (s *BadgerStore) movePending(id, prefix string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	pendingKey := []byte(prefixPending + id)
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, pendingKey)
		if err != nil {
			return err
		}
		e, err := s.entry(prefix+id, rec)
		if err != nil {
			return err
		}
		if err := txn.SetEntry(e); err != nil {
			return fmt.Errorf("set %s record: %w", strings.TrimSuffix(prefix, ":"), err)
		}
		return txn.Delete(pendingKey)
	})
}

// RecordAttempt increments the attempt count of a pending record.
func (s *BadgerStore) RecordAttempt(_ context.Context, id, lastError string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}

	key := []byte(prefixPending + id)
	return s.db.Update(func(txn *badger.Txn) error {
		rec, err := getRecord(txn, key)
		if err != nil {
			return err
		}
		rec.Attempts++
		rec.LastError = lastError
		e, err := s.entry(prefixPending+id, rec)
		if err != nil {
			return err
		}
		return txn.SetEntry(e)
	})
}

// Pending returns up to limit pending records, oldest first. limit <= 0 returns all.
func (s *BadgerStore) Pending(ctx context.Context, limit int) ([]*Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var out []*Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(prefixPending)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable feedback record")
				continue
			}
			out = append(out, &rec)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("iterate pending records: %w", err)
	}
	return out, nil
}

// Get returns a record by id from any state.
func (s *BadgerStore) Get(_ context.Context, id string) (*Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var rec *Record
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		for _, prefix := range []string{prefixPending, prefixForwarded, prefixFailed} {
			rec, err = getRecord(txn, []byte(prefix+id))
			if !errors.Is(err, ErrRecordNotFound) {
				break
			}
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Stats returns store counters and updates the pending gauge.
func (s *BadgerStore) Stats() StoreStats {
	if s.checkOpen() != nil {
		return StoreStats{}
	}

	var pending, forwarded, failed int64
	if err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefixPending)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			pending++
		}
		f := []byte(prefixForwarded)
		for it.Seek(f); it.ValidForPrefix(f); it.Next() {
			forwarded++
		}
		x := []byte(prefixFailed)
		for it.Seek(x); it.ValidForPrefix(x); it.Next() {
			failed++
		}
		return nil
	}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to count feedback records")
	}

	lsm, vlog := s.db.Size()
	metrics.SetFeedbackPending(int(pending))

	return StoreStats{
		Pending:        pending,
		Forwarded:      forwarded,
		Failed:         failed,
		TotalAppends:   s.appends.Load(),
		TotalForwarded: s.forwarded.Load(),
		SizeBytes:      lsm + vlog,
	}
}

// RunGC reclaims value log space until Badger reports nothing to rewrite.
func (s *BadgerStore) RunGC(ratio float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if s.config.InMemory {
		return nil
	}
	for {
		err := s.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// Close closes the database. Safe to call more than once.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close BadgerDB: %w", err)
	}
	s.logger.Info().Msg("Feedback store closed")
	return nil
}

func getRecord(txn *badger.Txn, key []byte) (*Record, error) {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	var rec Record
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &rec)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

var _ Sink = (*BadgerStore)(nil)
