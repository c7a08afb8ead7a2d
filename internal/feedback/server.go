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

	"github.com/nats-io/nats-server/v2/server"
)

// EmbeddedConfig configures the in-process NATS JetStream server.
type EmbeddedConfig struct {
	Enabled  bool
	Host     string
	Port     int
	StoreDir string

	// MaxMemory and MaxStore bound JetStream resources in bytes.
	MaxMemory int64
	MaxStore  int64

	// ReadyTimeout bounds the wait for the server to accept connections.
	ReadyTimeout time.Duration
}

// DefaultEmbeddedConfig returns default embedded server configuration.
func DefaultEmbeddedConfig() EmbeddedConfig {
	return EmbeddedConfig{
		Enabled:      false,
		Host:         "127.0.0.1",
		Port:         4222,
		StoreDir:     "/data/nats",
		MaxMemory:    64 * 1024 * 1024,
		MaxStore:     1024 * 1024 * 1024,
		ReadyTimeout: 30 * time.Second,
	}
}

// EmbeddedServer is a self-contained NATS JetStream instance for
// single-node deployments.
type EmbeddedServer struct {
	server    *server.Server
	clientURL string
}

// StartEmbedded creates and starts the server and waits until it accepts
// connections.
func StartEmbedded(cfg EmbeddedConfig) (*EmbeddedServer, error) {
	if cfg.StoreDir == "" {
		return nil, errors.New("embedded nats store dir is required")
	}
	timeout := cfg.ReadyTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	ns, err := server.NewServer(&server.Options{
		ServerName:         "sawitrec-feedback",
		Host:               cfg.Host,
		Port:               cfg.Port,
		JetStream:          true,
		StoreDir:           cfg.StoreDir,
		JetStreamMaxMemory: cfg.MaxMemory,
		JetStreamMaxStore:  cfg.MaxStore,
		NoLog:              true,
		NoSigs:             true,
		MaxPayload:         1024 * 1024,
	})
	if err != nil {
		return nil, fmt.Errorf("create NATS server: %w", err)
	}

	go ns.Start()

	if !ns.ReadyForConnections(timeout) {
		ns.Shutdown()
		return nil, fmt.Errorf("NATS server not ready within %v", timeout)
	}

	return &EmbeddedServer{
		server:    ns,
		clientURL: ns.ClientURL(),
	}, nil
}

// ClientURL returns the connection URL for clients.
func (s *EmbeddedServer) ClientURL() string {
	return s.clientURL
}

// IsRunning reports server health.
func (s *EmbeddedServer) IsRunning() bool {
	return s.server.Running()
}

// Shutdown stops the server, waiting for it to exit or ctx to end.
func (s *EmbeddedServer) Shutdown(ctx context.Context) error {
	s.server.Shutdown()

	done := make(chan struct{})
	go func() {
		s.server.WaitForShutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
