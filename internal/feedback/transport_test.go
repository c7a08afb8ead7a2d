// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package feedback

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

func TestNATSConfig_Validate(t *testing.T) {
	cfg := DefaultNATSConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("disabled Validate() error = %v", err)
	}

	cfg.Enabled = true
	cfg.StreamName = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with empty stream error = nil")
	}

	cfg = DefaultNATSConfig()
	cfg.Enabled = true
	cfg.URL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() with no url error = nil")
	}
	cfg.Embedded.Enabled = true
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() with embedded server error = %v", err)
	}
}

func TestNewPublisher_GoChannelWhenDisabled(t *testing.T) {
	pub, err := NewPublisher(DefaultNATSConfig(), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer func() { _ = pub.Close() }()

	if _, ok := pub.(*gochannel.GoChannel); !ok {
		t.Errorf("NewPublisher() = %T, want *gochannel.GoChannel", pub)
	}
}

func TestEmbeddedServer_PublishThroughJetStream(t *testing.T) {
	if testing.Short() {
		t.Skip("starts an embedded NATS server")
	}

	srv, err := StartEmbedded(EmbeddedConfig{
		Enabled:      true,
		Host:         "127.0.0.1",
		Port:         -1,
		StoreDir:     t.TempDir(),
		MaxMemory:    16 * 1024 * 1024,
		MaxStore:     64 * 1024 * 1024,
		ReadyTimeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("StartEmbedded() error = %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if !srv.IsRunning() {
		t.Fatal("IsRunning() = false")
	}

	cfg := DefaultNATSConfig()
	cfg.Enabled = true
	cfg.URL = srv.ClientURL()
	ctx := context.Background()

	if err := EnsureStream(ctx, cfg, DefaultTopic); err != nil {
		t.Fatalf("EnsureStream() error = %v", err)
	}
	if err := EnsureStream(ctx, cfg, DefaultTopic); err != nil {
		t.Fatalf("second EnsureStream() error = %v", err)
	}

	pub, err := NewPublisher(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer func() { _ = pub.Close() }()

	msg := message.NewMessage("0190c3a2-0000-7000-8000-000000000001", []byte(`{"id":"x"}`))
	if err := pub.Publish(DefaultTopic, msg); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	nc, err := natsgo.Connect(cfg.URL)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer nc.Close()
	js, err := nc.JetStream()
	if err != nil {
		t.Fatalf("JetStream() error = %v", err)
	}
	info, err := js.StreamInfo(cfg.StreamName)
	if err != nil {
		t.Fatalf("StreamInfo() error = %v", err)
	}
	if info.State.Msgs != 1 {
		t.Errorf("stream holds %d messages, want 1", info.State.Msgs)
	}
}
