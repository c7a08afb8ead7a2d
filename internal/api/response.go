// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/sawitrec/internal/logging"
)

// APIResponse is the envelope of every /api response. Exactly one of Data
// and Error is set.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError is the error half of the envelope. Code is machine-readable,
// Message is for humans.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// APIMeta carries tracing data for a response.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms"`
}

// Error codes for API responses
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeConflict           = "CONFLICT"
	ErrCodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
)

var statusCodes = map[int]string{
	http.StatusBadRequest:            ErrCodeBadRequest,
	http.StatusNotFound:              ErrCodeNotFound,
	http.StatusMethodNotAllowed:      ErrCodeMethodNotAllowed,
	http.StatusConflict:              ErrCodeConflict,
	http.StatusRequestEntityTooLarge: ErrCodePayloadTooLarge,
	http.StatusTooManyRequests:       ErrCodeTooManyRequests,
	http.StatusServiceUnavailable:    ErrCodeServiceUnavailable,
}

// codeFor returns the default error code for an HTTP status.
func codeFor(status int) string {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return ErrCodeInternalError
}

// responder writes envelopes for one request and times it.
type responder struct {
	w       http.ResponseWriter
	r       *http.Request
	started time.Time
}

func respond(w http.ResponseWriter, r *http.Request) *responder {
	return &responder{w: w, r: r, started: time.Now()}
}

func (rw *responder) meta() *APIMeta {
	return &APIMeta{
		RequestID:  logging.RequestIDFromContext(rw.r.Context()),
		Timestamp:  time.Now().UTC(),
		DurationMs: time.Since(rw.started).Milliseconds(),
	}
}

func (rw *responder) ok(data interface{}) {
	rw.write(http.StatusOK, &APIResponse{Success: true, Data: data, Meta: rw.meta()})
}

func (rw *responder) created(data interface{}) {
	rw.write(http.StatusCreated, &APIResponse{Success: true, Data: data, Meta: rw.meta()})
}

// fail writes an error envelope with the status's default code.
func (rw *responder) fail(status int, message string) {
	rw.failWithDetails(status, codeFor(status), message, nil)
}

// invalid answers 400 VALIDATION_FAILED with per-field details.
func (rw *responder) invalid(message string, details interface{}) {
	rw.failWithDetails(http.StatusBadRequest, ErrCodeValidationFailed, message, details)
}

func (rw *responder) failWithDetails(status int, code, message string, details interface{}) {
	meta := rw.meta()
	rw.write(status, &APIResponse{
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: meta.RequestID,
		},
		Meta: meta,
	})
}

func (rw *responder) write(status int, body *APIResponse) {
	rw.w.Header().Set("Content-Type", "application/json; charset=utf-8")
	rw.w.WriteHeader(status)
	if err := json.NewEncoder(rw.w).Encode(body); err != nil {
		logging.Ctx(rw.r.Context()).Error().Err(err).Int("status", status).Msg("Failed to encode JSON response")
	}
}

// WriteError writes an error envelope. Its signature matches auth.DenyFunc
// so admin auth failures look like every other API error.
func WriteError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respond(w, r).failWithDetails(status, code, message, nil)
}
