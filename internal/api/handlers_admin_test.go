// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/tomtom215/sawitrec/internal/auth"
	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/ingest"
	"github.com/tomtom215/sawitrec/internal/recommend/storage"
)

const interactionsPath = "/api/v1/admin/interactions"

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestAdmin_Authorization(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	tests := []struct {
		name       string
		headers    map[string]string
		wantStatus int
	}{
		{"no token", nil, http.StatusUnauthorized},
		{"garbage token", bearer("not.a.jwt"), http.StatusUnauthorized},
		{"basic scheme", map[string]string{"Authorization": "Basic b3BzOnNlY3JldA=="}, http.StatusUnauthorized},
		{"viewer role", bearer(ts.adminToken(t, "viewer")), http.StatusForbidden},
		{"admin role", bearer(ts.adminToken(t, auth.RoleAdmin)), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, http.MethodGet, "/api/v1/admin/snapshot", nil, tt.headers)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Code != http.StatusOK {
				env := decodeEnvelope(t, rec)
				if env.Success || env.Error == nil {
					t.Errorf("denial not rendered as an error envelope: %s", rec.Body.String())
				}
			}
		})
	}
}

func TestAdmin_Disabled(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t, withoutAdmin())

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/snapshot", nil, bearer("anything"))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Error == nil || env.Error.Code != auth.CodeAdminDisabled {
		t.Errorf("error = %+v, want %s", env.Error, auth.CodeAdminDisabled)
	}
}

func TestAdmin_CurrentSnapshot(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/admin/snapshot", nil, bearer(ts.adminToken(t, auth.RoleAdmin)))
	var info SnapshotInfo
	decodeData(t, decodeEnvelope(t, rec), &info)

	if info.Version != 3 || info.Users != 2 || info.Products != 3 {
		t.Errorf("info = %+v, want version 3 with 2 users and 3 products", info)
	}
	if info.Interactions != 2 || info.Factors != 2 {
		t.Errorf("interactions = %d factors = %d, want 2 and 2", info.Interactions, info.Factors)
	}
	if info.Drifted {
		t.Error("fresh snapshot reported as drifted")
	}
	if info.Stats.CatalogSize != 3 {
		t.Errorf("stats.catalog_size = %d, want 3", info.Stats.CatalogSize)
	}
}

func TestAdmin_ApplyInteractions(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	body := []byte(`{"interactions":[{"user_id":"u3","product_id":"p2","strength":2}]}`)
	rec := ts.do(t, http.MethodPost, interactionsPath, body, bearer(ts.adminToken(t, auth.RoleAdmin)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}

	var report ingest.UpdateReport
	decodeData(t, decodeEnvelope(t, rec), &report)
	if !report.Swapped || report.Version != 4 {
		t.Errorf("report = %+v, want swapped to version 4", report)
	}

	if len(ts.updater.batches) != 1 {
		t.Fatalf("batches = %d, want 1", len(ts.updater.batches))
	}
	want := dataset.Interaction{UserID: "u3", ProductID: "p2", Strength: 2}
	if got := ts.updater.batches[0][0]; got != want {
		t.Errorf("batch[0] = %+v, want %+v", got, want)
	}
}

func TestAdmin_ApplyInteractionsCSV(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	headers := bearer(ts.adminToken(t, auth.RoleAdmin))
	headers["Content-Type"] = "text/csv; charset=utf-8"
	body := []byte("user_id,product_id,quantity\nu1,p3,1\n")

	rec := ts.do(t, http.MethodPost, interactionsPath, body, headers)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", rec.Code, rec.Body.String())
	}
	if len(ts.updater.files) != 1 {
		t.Fatalf("files = %d, want 1", len(ts.updater.files))
	}
	if len(ts.updater.fileRead) != 1 || ts.updater.fileRead[0].ProductID != "p3" {
		t.Errorf("loaded = %+v, want the uploaded interaction", ts.updater.fileRead)
	}
}

func TestAdmin_ApplyInteractionsErrors(t *testing.T) {
	t.Parallel()

	valid := []byte(`{"interactions":[{"user_id":"u1","product_id":"p1","strength":1}]}`)

	tests := []struct {
		name       string
		body       []byte
		err        error
		wantStatus int
		wantCode   string
	}{
		{"empty batch", []byte(`{"interactions":[]}`), nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"missing batch", []byte(`{}`), nil, http.StatusBadRequest, ErrCodeValidationFailed},
		{"malformed", []byte(`[`), nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"batch too large", valid, fmt.Errorf("%w: 5 > 4", ingest.ErrBatchTooLarge), http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge},
		{"no factor model", valid, ingest.ErrNoFactorModel, http.StatusConflict, ErrCodeConflict},
		{"snapshot changed", valid, fmt.Errorf("%w: v1 is no longer served", ingest.ErrSnapshotChanged), http.StatusConflict, ErrCodeConflict},
		{"invalid file", valid, fmt.Errorf("%w: no user_id column", dataset.ErrInvalidFile), http.StatusBadRequest, ErrCodeBadRequest},
		{"store failure", valid, errors.New("disk full"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ts := newTestServer(t)
			ts.updater.err = tt.err

			rec := ts.do(t, http.MethodPost, interactionsPath, tt.body, bearer(ts.adminToken(t, auth.RoleAdmin)))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if env := decodeEnvelope(t, rec); env.Error == nil || env.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", env.Error, tt.wantCode)
			}
		})
	}
}

func TestAdmin_ReloadSnapshot(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	ts.reloader.res = &storage.ReloadResult{PreviousVersion: 3, Version: 5, Swapped: true}

	rec := ts.do(t, http.MethodPost, "/api/v1/admin/snapshot/reload", nil, bearer(ts.adminToken(t, auth.RoleAdmin)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res storage.ReloadResult
	decodeData(t, decodeEnvelope(t, rec), &res)
	if !res.Swapped || res.Version != 5 || res.PreviousVersion != 3 {
		t.Errorf("result = %+v, want 3 -> 5 swapped", res)
	}

	ts.reloader.res, ts.reloader.err = nil, fmt.Errorf("load snapshot: %w", storage.ErrChecksumMismatch)
	rec = ts.do(t, http.MethodPost, "/api/v1/admin/snapshot/reload", nil, bearer(ts.adminToken(t, auth.RoleAdmin)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("failed reload status = %d, want 500", rec.Code)
	}
}
