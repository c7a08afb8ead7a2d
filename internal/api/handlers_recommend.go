// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/sawitrec/internal/recommend"
)

// RecommendationResponse is the data payload of both recommendation routes.
type RecommendationResponse struct {
	Items           []recommend.ResultItem `json:"items"`
	Source          string                 `json:"source"`
	FallbackReason  string                 `json:"fallback_reason"`
	SnapshotVersion int                    `json:"snapshot_version"`
}

func newRecommendationResponse(res *recommend.Result) RecommendationResponse {
	items := res.Items
	if items == nil {
		items = []recommend.ResultItem{}
	}
	return RecommendationResponse{
		Items:           items,
		Source:          res.Source.String(),
		FallbackReason:  res.Reason.String(),
		SnapshotVersion: res.SnapshotVersion,
	}
}

// UserRecommendations handles GET /api/v1/ecommerce/recommendation/user/{user_id}
//
// Query parameters:
//   - N: number of items, 1..MaxN (default 10)
//   - strict: when true, unknown users get 404 instead of the fallback list
func (h *Handler) UserRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	userID, n, strict, ok := h.parseRecommendationRequest(rw, r, "user_id")
	if !ok {
		return
	}
	if strict && !h.recs.IsKnownUser(userID) {
		rw.fail(http.StatusNotFound, fmt.Sprintf("User %q not found", userID))
		return
	}

	res := h.recs.RecommendForUser(r.Context(), userID, n)
	rw.ok(newRecommendationResponse(&res))
}

// ProductRecommendations handles GET /api/v1/ecommerce/recommendation/product/{product_id}
//
// Returns products similar to product_id, excluding the product itself.
// Query parameters are the same as UserRecommendations.
func (h *Handler) ProductRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)

	productID, n, strict, ok := h.parseRecommendationRequest(rw, r, "product_id")
	if !ok {
		return
	}
	if strict && !h.recs.IsKnownProduct(productID) {
		rw.fail(http.StatusNotFound, fmt.Sprintf("Product %q not found", productID))
		return
	}

	res := h.recs.RecommendSimilar(r.Context(), productID, n)
	rw.ok(newRecommendationResponse(&res))
}

// parseRecommendationRequest reads the path id, N and strict. On failure it
// writes a 400 and returns ok=false.
func (h *Handler) parseRecommendationRequest(rw *responder, r *http.Request, param string) (id string, n int, strict, ok bool) {
	id = strings.TrimSpace(chi.URLParam(r, param))
	if id == "" {
		rw.fail(http.StatusBadRequest, param+" is required")
		return "", 0, false, false
	}

	n, err := h.parseN(r)
	if err != nil {
		rw.invalid(err.Error(), map[string]interface{}{
			"fields": []map[string]string{{"field": "N", "message": err.Error()}},
		})
		return "", 0, false, false
	}

	strict, err = h.parseStrict(r)
	if err != nil {
		rw.fail(http.StatusBadRequest, err.Error())
		return "", 0, false, false
	}
	return id, n, strict, true
}

func (h *Handler) parseN(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("N"))
	if raw == "" {
		return h.config.DefaultN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > h.config.MaxN {
		return 0, fmt.Errorf("N must be an integer between 1 and %d", h.config.MaxN)
	}
	return n, nil
}

func (h *Handler) parseStrict(r *http.Request) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("strict"))
	if raw == "" {
		return h.config.StrictByDefault, nil
	}
	strict, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("strict must be true or false")
	}
	return strict, nil
}
