// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/sawitrec/internal/metrics"
)

// Outbox is the store side of forwarding. *BadgerStore satisfies it.
type Outbox interface {
	Pending(ctx context.Context, limit int) ([]*Record, error)
	MarkForwarded(ctx context.Context, id string) error
	RecordAttempt(ctx context.Context, id, lastError string) error
	MarkFailed(ctx context.Context, id string) error
	Stats() StoreStats
}

// BreakerConfig configures the publish circuit breaker.
type BreakerConfig struct {
	Name string

	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32

	// Interval is the closed-state window after which counts reset.
	Interval time.Duration

	// Timeout is how long the breaker stays open.
	Timeout time.Duration

	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32
}

// ForwarderConfig configures the forwarder.
type ForwarderConfig struct {
	Topic        string
	PollInterval time.Duration
	BatchSize    int

	// MaxAttempts is the number of failed publishes after which a record
	// is moved to failed and no longer retried.
	MaxAttempts int

	// RatePerSecond caps publishes per second; Burst is the bucket size.
	RatePerSecond float64
	Burst         int

	Breaker BreakerConfig
}

// DefaultForwarderConfig returns default forwarder configuration.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		Topic:         DefaultTopic,
		PollInterval:  2 * time.Second,
		BatchSize:     100,
		MaxAttempts:   20,
		RatePerSecond: 200,
		Burst:         50,
		Breaker: BreakerConfig{
			Name:             "feedback-publisher",
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
		},
	}
}

// Validate checks the configuration.
func (c *ForwarderConfig) Validate() error {
	switch {
	case c.Topic == "":
		return errors.New("forwarder topic is required")
	case c.PollInterval <= 0:
		return fmt.Errorf("forwarder poll interval must be positive, got %v", c.PollInterval)
	case c.BatchSize < 1:
		return fmt.Errorf("forwarder batch size must be positive, got %d", c.BatchSize)
	case c.MaxAttempts < 1:
		return fmt.Errorf("forwarder max attempts must be at least 1, got %d", c.MaxAttempts)
	case c.RatePerSecond <= 0 || c.Burst < 1:
		return fmt.Errorf("forwarder rate must be positive, got %v/%d", c.RatePerSecond, c.Burst)
	case c.Breaker.FailureThreshold < 1:
		return errors.New("breaker failure threshold must be positive")
	}
	return nil
}

// NewCircuitBreaker creates a breaker that reports state changes as metrics.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewCircuitBreaker(cfg BreakerConfig, logger zerolog.Logger) *gobreaker.CircuitBreaker[interface{}] {
	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			metrics.RecordCircuitBreakerState(name, int(to))
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	})
}

// Forwarder drains pending records from the outbox and publishes them.
// A record is marked forwarded only after a successful publish, so records
// survive broker outages and restarts.
type Forwarder struct {
	config    ForwarderConfig
	outbox    Outbox
	publisher message.Publisher
	breaker   *gobreaker.CircuitBreaker[interface{}]
	limiter   *rate.Limiter
	logger    zerolog.Logger
}

// NewForwarder creates a Forwarder.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewForwarder(cfg ForwarderConfig, outbox Outbox, publisher message.Publisher, logger zerolog.Logger) (*Forwarder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if outbox == nil || publisher == nil {
		return nil, errors.New("forwarder needs an outbox and a publisher")
	}
	logger = logger.With().Str("component", "feedback_forwarder").Logger()

	return &Forwarder{
		config:    cfg,
		outbox:    outbox,
		publisher: publisher,
		breaker:   NewCircuitBreaker(cfg.Breaker, logger),
		limiter:   rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:    logger,
	}, nil
}

// Run forwards on every poll interval until ctx ends.
func (f *Forwarder) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.config.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := f.ForwardOnce(ctx); err != nil && ctx.Err() == nil {
			f.logger.Debug().Err(err).Msg("Forward pass incomplete")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ForwardOnce publishes one batch and returns how many records were
// forwarded. Records that already failed MaxAttempts times are moved to
// failed instead. It stops early when the breaker rejects a publish.
func (f *Forwarder) ForwardOnce(ctx context.Context) (int, error) {
	records, err := f.outbox.Pending(ctx, f.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("read pending feedback: %w", err)
	}

	forwarded := 0
	defer func() {
		stats := f.outbox.Stats()
		metrics.SetFeedbackPending(int(stats.Pending))
	}()

	for _, rec := range records {
		if rec.Attempts >= f.config.MaxAttempts {
			f.giveUp(ctx, rec)
			continue
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return forwarded, err
		}

		if err := f.publish(rec); err != nil {
			metrics.RecordFeedbackForward(false)
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				metrics.RecordCircuitBreakerRequest(f.config.Breaker.Name, "rejected")
				return forwarded, err
			}
			metrics.RecordCircuitBreakerRequest(f.config.Breaker.Name, "failure")
			if aerr := f.outbox.RecordAttempt(ctx, rec.ID, err.Error()); aerr != nil {
				f.logger.Warn().Err(aerr).Str("feedback_id", rec.ID).Msg("Failed to record publish attempt")
			}
			f.logger.Warn().Err(err).Str("feedback_id", rec.ID).Msg("Failed to publish feedback")
			continue
		}

		metrics.RecordCircuitBreakerRequest(f.config.Breaker.Name, "success")
		metrics.RecordFeedbackForward(true)
		if err := f.outbox.MarkForwarded(ctx, rec.ID); err != nil {
			// Published but still pending: the Nats-Msg-Id header lets
			// JetStream drop the duplicate on the next pass.
			f.logger.Warn().Err(err).Str("feedback_id", rec.ID).Msg("Failed to mark feedback forwarded")
			continue
		}
		forwarded++
	}

	if forwarded > 0 {
		f.logger.Debug().Int("forwarded", forwarded).Int("batch", len(records)).Msg("Feedback forwarded")
	}
	return forwarded, nil
}

func (f *Forwarder) giveUp(ctx context.Context, rec *Record) {
	if err := f.outbox.MarkFailed(ctx, rec.ID); err != nil {
		f.logger.Error().Err(err).Str("feedback_id", rec.ID).Msg("Failed to move feedback to failed")
		return
	}
	metrics.RecordFeedbackMaxAttemptsExceeded()
	f.logger.Warn().
		Str("feedback_id", rec.ID).
		Int("attempts", rec.Attempts).
		Int("max_attempts", f.config.MaxAttempts).
		Str("last_error", rec.LastError).
		Msg("Feedback exceeded max publish attempts, giving up")
}

func (f *Forwarder) publish(rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	msg := message.NewMessage(rec.ID, payload)
	msg.Metadata.Set(natsgo.MsgIdHdr, rec.ID)
	msg.Metadata.Set("action", rec.Action)
	msg.Metadata.Set("snapshot_version", fmt.Sprintf("%d", rec.SnapshotVersion))

	_, err = f.breaker.Execute(func() (interface{}, error) {
		return nil, f.publisher.Publish(f.config.Topic, msg)
	})
	return err
}

// BreakerState returns the current breaker state name.
func (f *Forwarder) BreakerState() string {
	return f.breaker.State().String()
}
