// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequireRole(t *testing.T) {
	manager := newTestManager(t, "")
	adminToken, err := manager.GenerateToken("ops", RoleAdmin, 0)
	if err != nil {
		t.Fatal(err)
	}
	viewerToken, err := manager.GenerateToken("analyst", "viewer", 0)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name       string
		manager    *JWTManager
		header     string
		wantStatus int
		wantCode   string
	}{
		{"disabled", nil, "Bearer " + adminToken, http.StatusServiceUnavailable, CodeAdminDisabled},
		{"missing header", manager, "", http.StatusUnauthorized, CodeUnauthorized},
		{"wrong scheme", manager, "Basic b3BzOnB3", http.StatusUnauthorized, CodeUnauthorized},
		{"empty bearer", manager, "Bearer ", http.StatusUnauthorized, CodeUnauthorized},
		{"garbage token", manager, "Bearer not-a-jwt", http.StatusUnauthorized, CodeUnauthorized},
		{"wrong role", manager, "Bearer " + viewerToken, http.StatusForbidden, CodeForbidden},
		{"admin", manager, "Bearer " + adminToken, http.StatusOK, ""},
		{"lowercase scheme", manager, "bearer " + adminToken, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCode string
			deny := func(w http.ResponseWriter, _ *http.Request, status int, code, message string) {
				gotCode = code
				http.Error(w, message, status)
			}

			var sawClaims *Claims
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				sawClaims, _ = ClaimsFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			handler := NewMiddleware(tt.manager, deny).RequireRole(RoleAdmin)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/snapshot/reload", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if gotCode != tt.wantCode {
				t.Errorf("code = %q, want %q", gotCode, tt.wantCode)
			}
			if tt.wantStatus == http.StatusOK && (sawClaims == nil || sawClaims.Role != RoleAdmin) {
				t.Errorf("claims not propagated: %+v", sawClaims)
			}
		})
	}
}

func TestNewMiddleware_DefaultDeny(t *testing.T) {
	mw := NewMiddleware(nil, nil)
	if mw.Enabled() {
		t.Error("Enabled() = true without a manager")
	}

	handler := mw.RequireRole(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("next handler must not run")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/snapshot", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}
