// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestPingAndWelcome(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		path string
		want string
	}{
		{"/ping", "pong"},
		{"/", WelcomeMessage},
	}

	for _, tt := range tests {
		rec := ts.do(t, http.MethodGet, tt.path, nil, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: status = %d, want 200", tt.path, rec.Code)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%s: decode: %v", tt.path, err)
		}
		if body["message"] != tt.want {
			t.Errorf("%s: message = %q, want %q", tt.path, body["message"], tt.want)
		}
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	if rec := ts.do(t, http.MethodGet, "/health/live", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("live status = %d, want 200", rec.Code)
	}

	rec := ts.do(t, http.MethodGet, "/health/ready", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("ready status = %d, want 200", rec.Code)
	}
	var data map[string]interface{}
	decodeData(t, decodeEnvelope(t, rec), &data)
	if data["snapshot_version"] != float64(3) {
		t.Errorf("snapshot_version = %v, want 3", data["snapshot_version"])
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	ts.do(t, http.MethodGet, "/api/v1/ecommerce/recommendation/user/u1", nil, nil)
	rec := ts.do(t, http.MethodGet, "/metrics", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "# TYPE") {
		t.Error("metrics body is not in exposition format")
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/unknown", nil, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil || env.Error.Code != ErrCodeNotFound {
		t.Errorf("error = %+v, want NOT_FOUND", env.Error)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, withRateLimit(2))

	path := "/api/v1/ecommerce/recommendation/user/u1"
	for i := 0; i < 2; i++ {
		if rec := ts.do(t, http.MethodGet, path, nil, nil); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rec.Code)
		}
	}

	rec := ts.do(t, http.MethodGet, path, nil, nil)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != ErrCodeTooManyRequests {
		t.Errorf("error = %+v, want TOO_MANY_REQUESTS", env.Error)
	}

	// Probes use their own limiter.
	if rec := ts.do(t, http.MethodGet, "/ping", nil, nil); rec.Code != http.StatusOK {
		t.Errorf("ping status = %d, want 200", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", "https://shop.example.com", "https://shop.example.com"},
		{"other origin", "https://evil.example.net", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodOptions, "/api/v1/ecommerce/recommendation/user/u1", nil, map[string]string{
				"Origin":                        tt.origin,
				"Access-Control-Request-Method": http.MethodGet,
			})
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/ecommerce/recommendation/user/u1", nil, nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
