// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/tomtom215/sawitrec/internal/auth"
	"github.com/tomtom215/sawitrec/internal/dataset"
	"github.com/tomtom215/sawitrec/internal/ingest"
	"github.com/tomtom215/sawitrec/internal/logging"
	"github.com/tomtom215/sawitrec/internal/recommend"
	"github.com/tomtom215/sawitrec/internal/validation"
)

// InteractionBatchRequest is the JSON body of POST /api/v1/admin/interactions.
type InteractionBatchRequest struct {
	Interactions []dataset.Interaction `json:"interactions" validate:"required,min=1"`
}

// SnapshotInfo is the data payload of GET /api/v1/admin/snapshot.
type SnapshotInfo struct {
	Version      int             `json:"version"`
	TrainedAt    time.Time       `json:"trained_at"`
	Users        int             `json:"users"`
	Products     int             `json:"products"`
	Interactions int             `json:"interactions"`
	ModelUsers   int             `json:"model_users"`
	ModelItems   int             `json:"model_items"`
	Factors      int             `json:"factors,omitempty"`
	Drifted      bool            `json:"drifted"`
	Stats        recommend.Stats `json:"stats"`
}

// ApplyInteractions handles POST /api/v1/admin/interactions
//
// Accepts either a JSON InteractionBatchRequest or, with Content-Type
// text/csv, a CSV with user_id, product_id and quantity or rating columns.
// The update runs to completion even if the client disconnects.
func (h *Handler) ApplyInteractions(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	if h.updater == nil {
		rw.fail(http.StatusServiceUnavailable, "Incremental updates are disabled")
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), h.config.UpdateTimeout)
	defer cancel()

	var (
		report *ingest.UpdateReport
		err    error
	)
	if isCSV(r) {
		report, err = h.applyCSV(ctx, w, r)
	} else {
		var req InteractionBatchRequest
		if derr := h.decodeJSON(w, r, &req); derr != nil {
			h.writeDecodeError(rw, derr)
			return
		}
		if verr := validation.ValidateStruct(&req); verr != nil {
			rw.invalid("Invalid interaction batch", verr.Details())
			return
		}
		report, err = h.updater.Apply(ctx, req.Interactions)
	}

	if err != nil {
		h.writeUpdateError(rw, r, err)
		return
	}

	logUpdate(r, report)
	rw.ok(report)
}

func (h *Handler) applyCSV(ctx context.Context, w http.ResponseWriter, r *http.Request) (*ingest.UpdateReport, error) {
	if h.loader == nil {
		return nil, errCSVDisabled
	}

	f, err := os.CreateTemp("", "interactions-*.csv")
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	defer func() {
		_ = f.Close()           //nolint:errcheck // already closed on the success path
		_ = os.Remove(f.Name()) //nolint:errcheck // temp file cleanup
	}()

	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if _, err := io.Copy(f, body); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, errBodyTooLarge
		}
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return h.updater.ApplyFile(ctx, h.loader, f.Name())
}

var errCSVDisabled = errors.New("csv uploads are not configured")

func (h *Handler) writeUpdateError(rw *responder, r *http.Request, err error) {
	switch {
	case errors.Is(err, errBodyTooLarge):
		h.writeDecodeError(rw, err)
	case errors.Is(err, ingest.ErrBatchTooLarge):
		rw.fail(http.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, dataset.ErrInvalidFile):
		rw.fail(http.StatusBadRequest, err.Error())
	case errors.Is(err, ingest.ErrNoFactorModel), errors.Is(err, ingest.ErrSnapshotChanged):
		rw.fail(http.StatusConflict, err.Error())
	case errors.Is(err, errCSVDisabled):
		rw.fail(http.StatusServiceUnavailable, "CSV uploads are disabled")
	case errors.Is(err, context.DeadlineExceeded):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Incremental update timed out")
		rw.fail(http.StatusServiceUnavailable, "Incremental update timed out")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Incremental update failed")
		rw.fail(http.StatusInternalServerError, "Incremental update failed; the previous snapshot is still served")
	}
}

func logUpdate(r *http.Request, report *ingest.UpdateReport) {
	username := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		username = claims.Username
	}
	logging.Ctx(r.Context()).Info().
		Str("admin", username).
		Int("received", report.Received).
		Int("applied", report.Applied).
		Int("version", report.Version).
		Bool("swapped", report.Swapped).
		Msg("Admin interaction batch processed")
}

func isCSV(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "text/csv"
}

// ReloadSnapshot handles POST /api/v1/admin/snapshot/reload
//
// Swaps in the newest stored snapshot when it is newer than the served one.
func (h *Handler) ReloadSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	if h.reloader == nil {
		rw.fail(http.StatusServiceUnavailable, "Snapshot reload is disabled")
		return
	}

	res, err := h.reloader.ReloadLatest(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Snapshot reload failed")
		rw.failWithDetails(http.StatusInternalServerError, ErrCodeInternalError,
			"Snapshot reload failed; the previous snapshot is still served",
			map[string]interface{}{"error": err.Error()})
		return
	}
	rw.ok(res)
}

// CurrentSnapshot handles GET /api/v1/admin/snapshot
func (h *Handler) CurrentSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	snap := h.recs.Snapshot()
	if snap == nil {
		rw.fail(http.StatusServiceUnavailable, "No snapshot loaded")
		return
	}

	info := SnapshotInfo{
		Version:      snap.Version,
		TrainedAt:    snap.TrainedAt,
		Users:        snap.Users.Len(),
		Products:     snap.Products.Len(),
		Interactions: snap.Interactions.NNZ(),
		ModelUsers:   snap.Model.Users(),
		ModelItems:   snap.Model.Items(),
		Drifted:      snap.Drifted(),
		Stats:        h.recs.Stats(),
	}
	if fm := snap.FactorModel(); fm != nil {
		info.Factors = fm.Factors()
	}
	rw.ok(info)
}
