// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package feedback

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

type failingPublisher struct {
	mu    sync.Mutex
	calls int
}

func (p *failingPublisher) Publish(_ string, _ ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return errors.New("broker unavailable")
}

func (p *failingPublisher) Close() error { return nil }

func testForwarderConfig() ForwarderConfig {
	cfg := DefaultForwarderConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.RatePerSecond = 10000
	cfg.Burst = 100
	cfg.Breaker.FailureThreshold = 2
	cfg.Breaker.Timeout = time.Minute
	return cfg
}

func TestForwarderConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*ForwarderConfig)
	}{
		{"empty topic", func(c *ForwarderConfig) { c.Topic = "" }},
		{"zero poll", func(c *ForwarderConfig) { c.PollInterval = 0 }},
		{"zero batch", func(c *ForwarderConfig) { c.BatchSize = 0 }},
		{"zero max attempts", func(c *ForwarderConfig) { c.MaxAttempts = 0 }},
		{"zero rate", func(c *ForwarderConfig) { c.RatePerSecond = 0 }},
		{"zero threshold", func(c *ForwarderConfig) { c.Breaker.FailureThreshold = 0 }},
	}

	base := DefaultForwarderConfig()
	if err := base.Validate(); err != nil {
		t.Fatalf("default Validate() error = %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultForwarderConfig()
			tt.modify(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() error = nil")
			}
		})
	}
}

func TestForwarder_ForwardOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := store.Append(ctx, testRecord(i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	pubsub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 16}, nil)
	defer func() { _ = pubsub.Close() }()

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	messages, err := pubsub.Subscribe(subCtx, DefaultTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	fwd, err := NewForwarder(testForwarderConfig(), store, pubsub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewForwarder() error = %v", err)
	}

	n, err := fwd.ForwardOnce(ctx)
	if err != nil {
		t.Fatalf("ForwardOnce() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ForwardOnce() = %d, want 3", n)
	}

	for i := 1; i <= 3; i++ {
		select {
		case msg := <-messages:
			var rec Record
			if err := json.Unmarshal(msg.Payload, &rec); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if rec.ID != testRecord(i).ID {
				t.Errorf("message %d id = %q, want %q", i, rec.ID, testRecord(i).ID)
			}
			if msg.Metadata.Get(natsgo.MsgIdHdr) != rec.ID {
				t.Errorf("Nats-Msg-Id = %q, want %q", msg.Metadata.Get(natsgo.MsgIdHdr), rec.ID)
			}
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for message %d", i)
		}
	}

	stats := store.Stats()
	if stats.Pending != 0 || stats.Forwarded != 3 {
		t.Errorf("Stats() = %+v, want all forwarded", stats)
	}

	n, err = fwd.ForwardOnce(ctx)
	if err != nil || n != 0 {
		t.Errorf("second ForwardOnce() = %d, %v; want 0, nil", n, err)
	}
}

func TestForwarder_BreakerOpens(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if err := store.Append(ctx, testRecord(i)); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	pub := &failingPublisher{}
	fwd, err := NewForwarder(testForwarderConfig(), store, pub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewForwarder() error = %v", err)
	}

	n, err := fwd.ForwardOnce(ctx)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("ForwardOnce() error = %v, want ErrOpenState", err)
	}
	if n != 0 {
		t.Errorf("ForwardOnce() = %d, want 0", n)
	}
	if pub.calls != 2 {
		t.Errorf("publisher calls = %d, want 2 before the breaker opened", pub.calls)
	}
	if fwd.BreakerState() != gobreaker.StateOpen.String() {
		t.Errorf("BreakerState() = %q, want open", fwd.BreakerState())
	}

	rec, err := store.Get(ctx, testRecord(1).ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Attempts != 1 || rec.LastError == "" {
		t.Errorf("record after failure = %+v, want one attempt recorded", rec)
	}
	if stats := store.Stats(); stats.Pending != 5 {
		t.Errorf("pending = %d, want 5", stats.Pending)
	}
}

func TestForwarder_GivesUpAfterMaxAttempts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := testRecord(1)
	if err := store.Append(ctx, rec); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	cfg := testForwarderConfig()
	cfg.MaxAttempts = 2
	cfg.Breaker.FailureThreshold = 100
	pub := &failingPublisher{}
	fwd, err := NewForwarder(cfg, store, pub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewForwarder() error = %v", err)
	}

	for pass := 1; pass <= 4; pass++ {
		if n, err := fwd.ForwardOnce(ctx); err != nil || n != 0 {
			t.Fatalf("pass %d: ForwardOnce() = %d, %v; want 0, nil", pass, n, err)
		}
	}

	if pub.calls != 2 {
		t.Errorf("publisher calls = %d, want 2", pub.calls)
	}
	stats := store.Stats()
	if stats.Pending != 0 || stats.Failed != 1 || stats.Forwarded != 0 {
		t.Errorf("Stats() = %+v, want the record failed", stats)
	}
	got, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Attempts != 2 || got.LastError == "" {
		t.Errorf("failed record = %+v, want 2 attempts with last error", got)
	}
}

func TestForwarder_RunStopsOnCancel(t *testing.T) {
	store := newTestStore(t)
	pubsub := gochannel.NewGoChannel(gochannel.Config{}, nil)
	defer func() { _ = pubsub.Close() }()

	fwd, err := NewForwarder(testForwarderConfig(), store, pubsub, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewForwarder() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fwd.Run(ctx) }()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not stop")
	}
}

func TestNewForwarder_Validation(t *testing.T) {
	store := newTestStore(t)
	if _, err := NewForwarder(testForwarderConfig(), store, nil, zerolog.Nop()); err == nil {
		t.Error("NewForwarder(nil publisher) error = nil")
	}
	bad := testForwarderConfig()
	bad.Topic = ""
	if _, err := NewForwarder(bad, store, &failingPublisher{}, zerolog.Nop()); err == nil {
		t.Error("NewForwarder(invalid config) error = nil")
	}
}
