// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/sawitrec/internal/api"
	"github.com/tomtom215/sawitrec/internal/auth"
	"github.com/tomtom215/sawitrec/internal/config"
	"github.com/tomtom215/sawitrec/internal/logging"
	"github.com/tomtom215/sawitrec/internal/metrics"
	"github.com/tomtom215/sawitrec/internal/supervisor"
	"github.com/tomtom215/sawitrec/internal/supervisor/services"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

//nolint:gocyclo // sequential startup wiring
func run() error {
	started := time.Now()

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Service:   "sawitrec",
		Output:    os.Stderr,
	})
	logger := logging.Logger()
	metrics.SetAppInfo(version, started)

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("snapshot_dir", cfg.Model.SnapshotDir).
		Str("catalog", cfg.Catalog.Path).
		Msg("Starting recommendation server")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// === SERVING STATE ===
	recs, err := initRecommend(ctx, cfg, logging.WithComponent("recommend"))
	if err != nil {
		return err
	}
	defer func() {
		if err := recs.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing dataset reader")
		}
	}()

	fb, err := initFeedback(ctx, cfg, recs.Service, logging.WithComponent("feedback"))
	if err != nil {
		return err
	}
	defer func() {
		if err := fb.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing feedback pipeline")
		}
	}()

	// === HTTP ===
	authMW, err := initAdminAuth(cfg)
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(buildHandlerConfig(cfg), recs.Service, api.Deps{
		Feedback: fb.Acceptor,
		Updater:  recs.Updater,
		Loader:   recs.Reader,
		Reloader: recs.Reloader,
	})
	if err != nil {
		return fmt.Errorf("create handler: %w", err)
	}

	router := api.NewRouter(handler, api.NewChiMiddleware(buildChiConfig(cfg)), authMW, cfg.Server.Timeout)
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		// Admin updates may outlive the request timeout.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// === SUPERVISOR TREE ===
	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(logger), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	type layered struct {
		layer supervisor.Layer
		svc   suture.Service
	}
	svcs := []layered{
		{supervisor.LayerData, services.NewFeedbackMaintenanceService(fb.Store, cfg.Feedback.GCInterval, logger)},
		{supervisor.LayerAPI, services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout)},
	}
	if cfg.Model.Watch {
		svcs = append(svcs, layered{supervisor.LayerData, services.NewSnapshotWatcherService(recs.Reloader, services.SnapshotWatcherConfig{
			Dir:      cfg.Model.SnapshotDir,
			Interval: cfg.Model.WatchInterval,
			Debounce: cfg.Model.WatchDebounce,
		}, logger)})
	}
	if fb.Embedded != nil {
		svcs = append(svcs, layered{supervisor.LayerMessaging, services.NewEmbeddedNATSService(fb.Embedded, cfg.Supervisor.ShutdownTimeout)})
	}
	if fb.Forwarder != nil {
		svcs = append(svcs, layered{supervisor.LayerMessaging, services.NewFeedbackForwarderService(fb.Forwarder)})
	}
	for _, ls := range svcs {
		if _, err := tree.Add(ls.layer, ls.svc); err != nil {
			return fmt.Errorf("add %v: %w", ls.svc, err)
		}
		logging.Debug().Str("layer", ls.layer.String()).Str("service", fmt.Sprint(ls.svc)).Msg("Service registered")
	}

	watchLogLevel()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for services to stop")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport() //nolint:errcheck // report is best effort
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped")
	return nil
}

// initAdminAuth returns nil when no admin secret is configured; the admin
// routes then answer 503.
func initAdminAuth(cfg *config.Config) (*auth.Middleware, error) {
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if errors.Is(err, auth.ErrAdminDisabled) {
		logging.Warn().Msg("Admin API disabled (ADMIN_JWT_SECRET not set)")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create admin JWT manager: %w", err)
	}
	logging.Info().Msg("Admin API enabled")
	return auth.NewMiddleware(jwtManager, api.WriteError), nil
}

// watchLogLevel applies logging.level changes from the config file
// without a restart.
func watchLogLevel() {
	path := config.ConfigFile()
	if path == "" {
		return
	}
	err := config.WatchConfigFile(path, func() {
		next, err := config.LoadWithKoanf()
		if err != nil {
			logging.Warn().Err(err).Str("path", path).Msg("Ignoring invalid configuration change")
			return
		}
		logging.SetLevelString(next.Logging.Level)
		logging.Info().Str("level", next.Logging.Level).Msg("Log level reloaded")
	})
	if err != nil {
		logging.Warn().Err(err).Str("path", path).Msg("Config file watch unavailable")
	}
}

func buildHandlerConfig(cfg *config.Config) api.HandlerConfig {
	h := api.DefaultHandlerConfig()
	h.DefaultN = cfg.Recommend.DefaultN
	h.MaxN = cfg.Recommend.MaxN
	h.StrictByDefault = cfg.Security.StrictByDefault
	return h
}

func buildChiConfig(cfg *config.Config) *api.ChiMiddlewareConfig {
	c := api.DefaultChiMiddlewareConfig()
	c.CORSAllowedOrigins = cfg.Security.CORSOrigins
	c.RateLimitRequests = cfg.Security.RateLimitReqs
	c.RateLimitWindow = cfg.Security.RateLimitWindow
	c.RateLimitDisabled = cfg.Security.RateLimitDisabled
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	return c
}
