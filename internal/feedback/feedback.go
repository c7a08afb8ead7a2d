// Sawitrec - Recommendation Serving for Plantation Supply Commerce
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sawitrec

package feedback

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/sawitrec/internal/logging"
	"github.com/tomtom215/sawitrec/internal/metrics"
	"github.com/tomtom215/sawitrec/internal/validation"
)

var (
	// ErrMalformed is returned when a submission fails field validation.
	// The wrapped *validation.RequestValidationError carries per-field details.
	ErrMalformed = errors.New("malformed feedback")

	// ErrNotFound is the parent of ErrUnknownUser and ErrUnknownProduct.
	ErrNotFound = errors.New("not found")

	// ErrUnknownUser is returned when the user id is not in the served snapshot.
	ErrUnknownUser = fmt.Errorf("%w: unknown user", ErrNotFound)

	// ErrUnknownProduct is returned when the product id is not in the served snapshot.
	ErrUnknownProduct = fmt.Errorf("%w: unknown product", ErrNotFound)

	// ErrSinkUnavailable is returned when an accepted record could not be stored.
	ErrSinkUnavailable = errors.New("feedback sink unavailable")
)

// Actions accepted in Feedback.Action.
const (
	ActionView      = "view"
	ActionClick     = "click"
	ActionAddToCart = "add_to_cart"
	ActionPurchase  = "purchase"
	ActionDismiss   = "dismiss"
)

// Actions lists every accepted action.
var Actions = []string{ActionView, ActionClick, ActionAddToCart, ActionPurchase, ActionDismiss}

// Feedback is a submission as received at the boundary.
type Feedback struct {
	UserID           string  `json:"user_id" validate:"required,notblank,max=128"`
	ProductID        string  `json:"product_id" validate:"required,notblank,max=128"`
	RecommendationID *string `json:"recommendation_id,omitempty" validate:"omitempty,uuid"`
	Action           string  `json:"action" validate:"required,oneof=view click add_to_cart purchase dismiss"`
	Timestamp        string  `json:"timestamp" validate:"required,isotime"`
}

// Record is an accepted submission as handed to the sink.
type Record struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	ProductID        string    `json:"product_id"`
	RecommendationID string    `json:"recommendation_id,omitempty"`
	Action           string    `json:"action"`
	OccurredAt       time.Time `json:"occurred_at"`
	ReceivedAt       time.Time `json:"received_at"`
	SnapshotVersion  int       `json:"snapshot_version"`

	// Attempts and LastError track forwarding.
	Attempts  int    `json:"attempts,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// Sink stores accepted records. *BadgerStore satisfies it.
type Sink interface {
	Append(ctx context.Context, rec *Record) error
}

// Directory answers membership questions against the served snapshot.
// *recommend.Service satisfies it.
type Directory interface {
	IsKnownUser(id string) bool
	IsKnownProduct(id string) bool
	SnapshotVersion() int
}

// Acceptor validates submissions and hands accepted records to a Sink.
type Acceptor struct {
	directory Directory
	sink      Sink
	logger    zerolog.Logger

	now   func() time.Time
	newID func() string
}

// NewAcceptor creates an Acceptor.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewAcceptor(directory Directory, sink Sink, logger zerolog.Logger) (*Acceptor, error) {
	if directory == nil {
		return nil, errors.New("feedback directory is required")
	}
	if sink == nil {
		return nil, errors.New("feedback sink is required")
	}
	return &Acceptor{
		directory: directory,
		sink:      sink,
		logger:    logger.With().Str("component", "feedback").Logger(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     newRecordID,
	}, nil
}

// Submit validates fb and stores it. Field problems yield ErrMalformed,
// unknown ids yield ErrUnknownUser or ErrUnknownProduct. Nothing reaches
// the sink unless every check passes.
func (a *Acceptor) Submit(ctx context.Context, fb *Feedback) (*Record, error) {
	if fb == nil {
		metrics.RecordFeedbackRejected("malformed")
		return nil, fmt.Errorf("%w: empty submission", ErrMalformed)
	}

	if verr := validation.ValidateStruct(fb); verr != nil {
		metrics.RecordFeedbackRejected("malformed")
		return nil, fmt.Errorf("%w: %w", ErrMalformed, verr)
	}
	occurred, err := validation.ParseTimestamp(fb.Timestamp)
	if err != nil {
		metrics.RecordFeedbackRejected("malformed")
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	userID := strings.TrimSpace(fb.UserID)
	productID := strings.TrimSpace(fb.ProductID)
	if !a.directory.IsKnownUser(userID) {
		metrics.RecordFeedbackRejected("unknown_user")
		return nil, ErrUnknownUser
	}
	if !a.directory.IsKnownProduct(productID) {
		metrics.RecordFeedbackRejected("unknown_product")
		return nil, ErrUnknownProduct
	}

	rec := &Record{
		ID:              a.newID(),
		UserID:          userID,
		ProductID:       productID,
		Action:          fb.Action,
		OccurredAt:      occurred,
		ReceivedAt:      a.now(),
		SnapshotVersion: a.directory.SnapshotVersion(),
	}
	if fb.RecommendationID != nil {
		rec.RecommendationID = *fb.RecommendationID
	}

	if err := a.sink.Append(ctx, rec); err != nil {
		metrics.RecordFeedbackRejected("sink_error")
		logging.Ctx(ctx).Error().Err(err).Str("feedback_id", rec.ID).Msg("Failed to store feedback")
		return nil, fmt.Errorf("%w: %w", ErrSinkUnavailable, err)
	}

	metrics.RecordFeedback(rec.Action)
	a.logger.Debug().
		Str("feedback_id", rec.ID).
		Str("action", rec.Action).
		Str("user_id", logging.SanitizeID(rec.UserID)).
		Msg("Feedback accepted")

	return rec, nil
}

// newRecordID returns a time-ordered id so store keys sort by arrival.
func newRecordID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
