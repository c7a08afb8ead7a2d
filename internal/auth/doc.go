// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

/*
Package auth protects the admin API with HS256 bearer tokens.

Key Components:

  - JWTManager: token generation and validation using HMAC-SHA256
  - Middleware: chi middleware enforcing a role claim

Admin auth is enabled by setting ADMIN_JWT_SECRET (at least 32 characters).
Without it NewJWTManager returns ErrAdminDisabled and protected routes answer
503 Service Unavailable.

Usage Example:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil && !errors.Is(err, auth.ErrAdminDisabled) {
	    return err
	}
	authMW := auth.NewMiddleware(jwtManager, nil)
	r.Route("/api/v1/admin", func(r chi.Router) {
	    r.Use(authMW.RequireRole(auth.RoleAdmin))
	    r.Post("/snapshot/reload", h.ReloadSnapshot)
	})

Token claims:

	{"username": "ops", "role": "admin", "sub": "ops", "exp": 1767225600, "iat": ..., "nbf": ...}
*/
package auth
