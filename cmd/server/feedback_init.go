// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/config"
	"github.com/tomtom215/sawitrec/internal/feedback"
)

// FeedbackComponents holds the feedback pipeline: the Badger outbox, the
// acceptor used by the API, and the optional broker side.
type FeedbackComponents struct {
	Store     *feedback.BadgerStore
	Acceptor  *feedback.Acceptor
	Publisher message.Publisher
	Forwarder *feedback.Forwarder
	Embedded  *feedback.EmbeddedServer
}

// Close closes the publisher and the store. The embedded NATS server is
// shut down by its supervisor service.
func (c *FeedbackComponents) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.Publisher != nil {
		if err := c.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.Store != nil {
		if err := c.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close feedback store: %w", err))
		}
	}
	return errors.Join(errs...)
}

// initFeedback opens the feedback outbox and, when forwarding is enabled,
// connects the broker side. With NATS disabled the forwarder publishes to
// an in-process channel so the pipeline still drains the outbox.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func initFeedback(ctx context.Context, cfg *config.Config, directory feedback.Directory, logger zerolog.Logger) (*FeedbackComponents, error) {
	store, err := feedback.OpenStore(buildStoreConfig(cfg), logger)
	if err != nil {
		return nil, fmt.Errorf("open feedback store: %w", err)
	}
	c := &FeedbackComponents{Store: store}

	c.Acceptor, err = feedback.NewAcceptor(directory, store, logger)
	if err != nil {
		return nil, errors.Join(err, c.Close())
	}

	if !cfg.Feedback.ForwardEnabled {
		logger.Info().Msg("Feedback forwarding disabled, records stay in the local outbox")
		return c, nil
	}

	natsCfg := buildNATSConfig(cfg)
	if natsCfg.Enabled && natsCfg.Embedded.Enabled {
		c.Embedded, err = feedback.StartEmbedded(natsCfg.Embedded)
		if err != nil {
			return nil, errors.Join(fmt.Errorf("start embedded NATS: %w", err), c.Close())
		}
		natsCfg.URL = c.Embedded.ClientURL()
		logger.Info().Str("url", natsCfg.URL).Msg("Embedded NATS server started")
	}

	if natsCfg.Enabled {
		streamCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		err := feedback.EnsureStream(streamCtx, natsCfg, cfg.Feedback.Topic)
		cancel()
		if err != nil {
			return nil, errors.Join(err, c.shutdownEmbedded(), c.Close())
		}
	}

	c.Publisher, err = feedback.NewPublisher(natsCfg, logger)
	if err != nil {
		return nil, errors.Join(err, c.shutdownEmbedded(), c.Close())
	}

	c.Forwarder, err = feedback.NewForwarder(buildForwarderConfig(cfg), store, c.Publisher, logger)
	if err != nil {
		return nil, errors.Join(err, c.shutdownEmbedded(), c.Close())
	}

	logger.Info().
		Bool("nats", natsCfg.Enabled).
		Str("topic", cfg.Feedback.Topic).
		Msg("Feedback forwarding enabled")
	return c, nil
}

func (c *FeedbackComponents) shutdownEmbedded() error {
	if c.Embedded == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return c.Embedded.Shutdown(ctx)
}

func buildStoreConfig(cfg *config.Config) feedback.StoreConfig {
	return feedback.StoreConfig{
		Path:       cfg.Feedback.StorePath,
		InMemory:   cfg.Feedback.InMemory,
		SyncWrites: cfg.Feedback.SyncWrites,
		TTL:        cfg.Feedback.TTL,
	}
}

func buildNATSConfig(cfg *config.Config) feedback.NATSConfig {
	n := feedback.DefaultNATSConfig()
	n.Enabled = cfg.NATS.Enabled
	n.URL = cfg.NATS.URL
	n.StreamName = cfg.NATS.StreamName
	n.MaxAge = cfg.NATS.MaxAge
	n.Embedded.Enabled = cfg.NATS.EmbeddedServer
	n.Embedded.Host = cfg.NATS.Host
	n.Embedded.Port = cfg.NATS.Port
	n.Embedded.StoreDir = cfg.NATS.StoreDir
	n.Embedded.MaxMemory = cfg.NATS.MaxMemory
	n.Embedded.MaxStore = cfg.NATS.MaxStore
	return n
}

func buildForwarderConfig(cfg *config.Config) feedback.ForwarderConfig {
	f := feedback.DefaultForwarderConfig()
	f.Topic = cfg.Feedback.Topic
	f.PollInterval = cfg.Feedback.PollInterval
	f.BatchSize = cfg.Feedback.BatchSize
	f.MaxAttempts = cfg.Feedback.MaxAttempts
	f.RatePerSecond = cfg.Feedback.RatePerSecond
	f.Burst = cfg.Feedback.Burst
	f.Breaker.FailureThreshold = cfg.Feedback.BreakerThreshold
	f.Breaker.Timeout = cfg.Feedback.BreakerTimeout
	return f
}
