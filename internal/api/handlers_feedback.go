// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sawitrec/internal/feedback"
	"github.com/tomtom215/sawitrec/internal/logging"
	"github.com/tomtom215/sawitrec/internal/validation"
)

// FeedbackCreatedMessage is returned when feedback is accepted.
const FeedbackCreatedMessage = "Feedback given successfully"

// FeedbackResponse is the data payload of an accepted submission.
type FeedbackResponse struct {
	Message    string `json:"message"`
	FeedbackID string `json:"feedback_id"`
}

var errBodyTooLarge = errors.New("request body too large")

// SubmitFeedback handles POST /api/v1/ecommerce/recommendation/feedback
//
// Body:
//
//	{"user_id": "...", "product_id": "...", "recommendation_id": "...",
//	 "action": "click", "timestamp": "2024-01-01T00:00:00Z"}
//
// Responds 201 on success, 400 with field details when malformed and 404
// when the user or product is unknown to the served snapshot.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	rw := respond(w, r)
	if h.feedback == nil {
		rw.fail(http.StatusServiceUnavailable, "Feedback is not being accepted")
		return
	}

	var fb feedback.Feedback
	if err := h.decodeJSON(w, r, &fb); err != nil {
		h.writeDecodeError(rw, err)
		return
	}

	rec, err := h.feedback.Submit(r.Context(), &fb)
	switch {
	case err == nil:
		rw.created(FeedbackResponse{Message: FeedbackCreatedMessage, FeedbackID: rec.ID})
	case errors.Is(err, feedback.ErrMalformed):
		var verr *validation.RequestValidationError
		if errors.As(err, &verr) {
			rw.invalid("Invalid feedback", verr.Details())
			return
		}
		rw.invalid("Invalid feedback", map[string]interface{}{"error": err.Error()})
	case errors.Is(err, feedback.ErrUnknownUser):
		rw.fail(http.StatusNotFound, fmt.Sprintf("User %q not found", fb.UserID))
	case errors.Is(err, feedback.ErrUnknownProduct):
		rw.fail(http.StatusNotFound, fmt.Sprintf("Product %q not found", fb.ProductID))
	case errors.Is(err, feedback.ErrSinkUnavailable):
		logging.Ctx(r.Context()).Error().Err(err).Msg("Feedback sink unavailable")
		rw.fail(http.StatusServiceUnavailable, "Feedback could not be stored, retry later")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("Feedback submission failed")
		rw.fail(http.StatusInternalServerError, "Feedback submission failed")
	}
}

// decodeJSON decodes a bounded JSON body into v.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return errBodyTooLarge
		}
		return err
	}
	return nil
}

func (h *Handler) writeDecodeError(rw *responder, err error) {
	if errors.Is(err, errBodyTooLarge) {
		rw.fail(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body exceeds %d bytes", h.config.MaxBodyBytes))
		return
	}
	rw.fail(http.StatusBadRequest, "Invalid JSON body: "+logging.Truncate(err.Error(), 200))
}
