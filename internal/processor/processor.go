package processor

import (
	"context"
	stdErrors "errors"
	"fmt"
)

// CardDetails carries the tokenized card reference supplied by the
// presentation layer. Raw card data never passes through this library.
type CardDetails struct {
	Token string `json:"token" validate:"required"`
}

// CardSummary is the display-only card description the processor returns at
// setup time.
type CardSummary struct {
	Brand    string `json:"brand"`
	Last4    string `json:"last4"`
	ExpMonth int64  `json:"exp_month"`
	ExpYear  int64  `json:"exp_year"`
}

// SetupResult describes a successfully attached payment method.
type SetupResult struct {
	PaymentMethodID string
	Card            *CardSummary
}

// Intent is the processor's snapshot of a payment intent. Fields holds the
// full wire-level object so callers can merge it verbatim; ID and Status are
// extracted for convenience.
type Intent struct {
	ID     string
	Status string
	Fields map[string]any
}

// Client is the narrow confirm/authenticate contract the portal needs from
// the payment processor.
type Client interface {
	ConfirmCardSetup(ctx context.Context, clientSecret string, card CardDetails, billingName string) (*SetupResult, error)
	HandleCardAction(ctx context.Context, clientSecret string) (*Intent, error)
}

// Error is a processor-reported failure. Intent carries the processor's
// partial intent snapshot when one was supplied, so callers can still record
// what happened.
type Error struct {
	Code    string
	Message string
	Intent  *Intent
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// AsError unwraps a processor error from an error chain.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
