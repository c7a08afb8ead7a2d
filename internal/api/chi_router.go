// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/sawitrec/internal/auth"
	"github.com/tomtom215/sawitrec/internal/middleware"
)

// Router wires handlers and middleware into a chi router.
type Router struct {
	handler        *Handler
	chiMiddleware  *ChiMiddleware
	auth           *auth.Middleware
	requestTimeout time.Duration
}

// NewRouter creates a router. A nil authMW disables the admin routes (503).
func NewRouter(handler *Handler, chiMW *ChiMiddleware, authMW *auth.Middleware, requestTimeout time.Duration) *Router {
	if chiMW == nil {
		chiMW = NewChiMiddleware(nil)
	}
	if authMW == nil {
		authMW = auth.NewMiddleware(nil, WriteError)
	}
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Router{
		handler:        handler,
		chiMiddleware:  chiMW,
		auth:           authMW,
		requestTimeout: requestTimeout,
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// ========================
	// Global Middleware Stack
	// ========================
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.PrometheusMetrics)
	r.Use(router.chiMiddleware.CORS()) // CORS must be global to handle OPTIONS preflight

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respond(w, req).fail(http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		WriteError(w, req, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed, "Method not allowed")
	})

	// ========================
	// Probes
	// ========================
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitHealth))
		r.Get("/", router.handler.Welcome)
		r.Get("/ping", router.handler.Ping)
		r.Get("/health/live", router.handler.HealthLive)
		r.Get("/health/ready", router.handler.HealthReady)
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	})

	// ========================
	// Recommendation API
	// ========================
	r.Route("/api/v1/ecommerce/recommendation", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(chimiddleware.Timeout(router.requestTimeout))
		r.Use(chimiddleware.Compress(5, "application/json"))

		r.Get("/user/{user_id}", router.handler.UserRecommendations)
		r.Get("/product/{product_id}", router.handler.ProductRecommendations)
		r.Post("/feedback", router.handler.SubmitFeedback)
	})

	// ========================
	// Admin API (JWT, role admin)
	// ========================
	// No request timeout: incremental updates bound themselves.
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimitCustom(RateLimitAdmin))
		r.Use(APISecurityHeaders())
		r.Use(router.auth.RequireRole(auth.RoleAdmin))

		r.Post("/interactions", router.handler.ApplyInteractions)
		r.Post("/snapshot/reload", router.handler.ReloadSnapshot)
		r.Get("/snapshot", router.handler.CurrentSnapshot)
	})

	return r
}
