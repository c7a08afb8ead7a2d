// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/sawitrec/internal/logging"
)

type contextKey string

// ClaimsContextKey stores the verified *Claims on the request context.
const ClaimsContextKey contextKey = "claims"

// Error codes passed to DenyFunc.
const (
	CodeAdminDisabled = "ADMIN_DISABLED"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
)

// DenyFunc writes a rejection. The api package supplies one that renders the
// standard response envelope.
type DenyFunc func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware enforces bearer-token authentication on admin routes.
type Middleware struct {
	jwtManager *JWTManager
	deny       DenyFunc
}

// NewMiddleware creates the middleware. A nil jwtManager means admin auth is
// not configured and every protected request is answered with 503.
// A nil deny falls back to http.Error.
func NewMiddleware(jwtManager *JWTManager, deny DenyFunc) *Middleware {
	if deny == nil {
		deny = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{jwtManager: jwtManager, deny: deny}
}

// Enabled reports whether tokens can be verified.
func (m *Middleware) Enabled() bool {
	return m.jwtManager != nil
}

// RequireRole returns chi-compatible middleware admitting only callers whose
// token carries role.
//
//	r.With(authMW.RequireRole(auth.RoleAdmin)).Post("/interactions", h.ApplyInteractions)
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.jwtManager == nil {
				m.deny(w, r, http.StatusServiceUnavailable, CodeAdminDisabled, "Admin API is disabled")
				return
			}

			token, err := extractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				m.deny(w, r, http.StatusUnauthorized, CodeUnauthorized, err.Error())
				return
			}

			claims, err := m.jwtManager.ValidateToken(token)
			if err != nil {
				logging.Ctx(r.Context()).Warn().
					Err(err).
					Str("token", logging.SanitizeToken(token)).
					Msg("Admin token rejected")
				m.deny(w, r, http.StatusUnauthorized, CodeUnauthorized, "Unauthorized: invalid token")
				return
			}

			if claims.Role != role {
				logging.Ctx(r.Context()).Warn().
					Str("username", claims.Username).
					Str("role", claims.Role).
					Msg("Admin access denied")
				m.deny(w, r, http.StatusForbidden, CodeForbidden, "Forbidden: insufficient permissions")
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext returns the claims stored by RequireRole.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok
}

var errMissingToken = errors.New("unauthorized: missing token")

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", errors.New("unauthorized: invalid authorization header")
	}
	return strings.TrimSpace(parts[1]), nil
}
