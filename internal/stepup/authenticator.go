package stepup

import (
	"context"
	stdErrors "errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/payportal-backend/internal/processor"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	"github.com/angelmondragon/payportal-backend/pkg/logger"
)

// Error reports a failed or abandoned step-up challenge. Partial carries the
// processor's intent snapshot when one was supplied, so the caller can still
// record what happened.
type Error struct {
	Message string
	Partial *processor.Intent
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("step-up authentication failed: %s", e.Message)
}

// AsError unwraps a step-up error from an error chain.
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

// Params groups dependencies for the authenticator.
type Params struct {
	Processor processor.Client
	Logger    *logger.Logger
}

// Authenticator wraps the processor's interactive step-up challenge. It
// holds no local state and is safe for concurrent use across distinct
// requests; per-request serialization is the caller's responsibility.
type Authenticator struct {
	processor processor.Client
	logg      *logger.Logger
}

// New constructs a step-up authenticator.
func New(params Params) (*Authenticator, error) {
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "processor client required")
	}
	return &Authenticator{
		processor: params.Processor,
		logg:      params.Logger,
	}, nil
}

// Authenticate drives the processor's step-up challenge for the given client
// secret and returns the processor's final intent snapshot.
func (a *Authenticator) Authenticate(ctx context.Context, clientSecret string) (*processor.Intent, error) {
	if strings.TrimSpace(clientSecret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "client secret is required")
	}

	intent, err := a.processor.HandleCardAction(ctx, clientSecret)
	if err != nil {
		if perr := processor.AsError(err); perr != nil {
			return nil, &Error{Message: perr.Message, Partial: perr.Intent}
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "handle card action")
	}
	if intent == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "processor returned no intent")
	}
	return intent, nil
}
