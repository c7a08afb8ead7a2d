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

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/logging"
)

// DefaultTopic is the subject feedback records are published to.
const DefaultTopic = "recommendation.feedback"

// NATSConfig selects and configures the feedback transport.
type NATSConfig struct {
	// Enabled publishes to NATS JetStream. When false an in-process
	// gochannel pub/sub is used.
	Enabled bool

	// URL is the NATS server URL. Overridden by the embedded server's URL
	// when Embedded.Enabled is set.
	URL string

	// StreamName is the JetStream stream holding feedback subjects.
	StreamName string

	// MaxAge bounds stream retention.
	MaxAge time.Duration

	// DuplicateWindow is the JetStream Nats-Msg-Id deduplication window.
	DuplicateWindow time.Duration

	MaxReconnects   int
	ReconnectWait   time.Duration
	ReconnectBuffer int

	Embedded EmbeddedConfig
}

// DefaultNATSConfig returns default transport configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		Enabled:         false,
		URL:             natsgo.DefaultURL,
		StreamName:      "RECOMMENDATION_FEEDBACK",
		MaxAge:          7 * 24 * time.Hour,
		DuplicateWindow: 2 * time.Minute,
		MaxReconnects:   -1,
		ReconnectWait:   2 * time.Second,
		ReconnectBuffer: 8 * 1024 * 1024,
		Embedded:        DefaultEmbeddedConfig(),
	}
}

// Validate checks the configuration.
func (c *NATSConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.URL == "" && !c.Embedded.Enabled {
		return errors.New("nats url is required when nats is enabled")
	}
	if c.StreamName == "" {
		return errors.New("nats stream name is required")
	}
	return nil
}

// NewPublisher returns the configured transport publisher. With NATS
// disabled it returns an in-process *gochannel.GoChannel, which local
// subscribers can also use.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewPublisher(cfg NATSConfig, logger zerolog.Logger) (message.Publisher, error) {
	wmLogger := logging.NewWatermillAdapter(logger.With().Str("component", "feedback_transport").Logger())

	if !cfg.Enabled {
		return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 256}, wmLogger), nil
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				wmLogger.Error("NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			wmLogger.Info("NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // EnsureStream creates the stream
			TrackMsgId:    true,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}
	return pub, nil
}

// EnsureStream creates or updates the JetStream stream capturing topic.
// Safe to call repeatedly.
func EnsureStream(ctx context.Context, cfg NATSConfig, topic string) error {
	nc, err := natsgo.Connect(cfg.URL, natsgo.Timeout(10*time.Second))
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer nc.Close()

	js, err := jetstream.New(nc)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:       cfg.StreamName,
		Subjects:   []string{topic},
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     cfg.MaxAge,
		Duplicates: cfg.DuplicateWindow,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", cfg.StreamName, err)
	}
	return nil
}
