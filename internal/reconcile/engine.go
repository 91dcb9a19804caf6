package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/angelmondragon/payportal-backend/internal/processor"
	"github.com/angelmondragon/payportal-backend/internal/recordstore"
	"github.com/angelmondragon/payportal-backend/internal/stepup"
	"github.com/angelmondragon/payportal-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	"github.com/angelmondragon/payportal-backend/pkg/logger"
	"github.com/angelmondragon/payportal-backend/pkg/metrics"
)

var validate = validator.New()

// ChargeInput is a customer's charge submission. SubmissionID identifies the
// user action; retrying the same action reuses the id and never creates a
// second document.
type ChargeInput struct {
	Amount          int64  `json:"amount" validate:"required,min=1"`
	Currency        string `json:"currency" validate:"required"`
	PaymentMethodID string `json:"payment_method" validate:"required"`
	SubmissionID    string `json:"submission_id"`
}

// Authenticator is the step-up contract the engine drives.
type Authenticator interface {
	Authenticate(ctx context.Context, clientSecret string) (*processor.Intent, error)
}

// ErrorFunc receives surfaced errors for display. It is invoked on the
// engine's loop and must not call back into the engine.
type ErrorFunc func(paymentID string, err error)

// Params groups dependencies for the reconciliation engine.
type Params struct {
	CustomerID    string
	Store         recordstore.Store
	Authenticator Authenticator
	Logger        *logger.Logger
	Metrics       *metrics.EngineMetrics
	OnError       ErrorFunc
}

// Engine creates payment requests, watches their lifecycle, completes
// step-up authentication when the processor demands it, and merges processor
// responses back into the shared record. The processor is the sole authority
// for terminal outcomes; the engine only originates the authentication side
// effect.
type Engine struct {
	customerID string
	store      recordstore.Store
	auth       Authenticator
	logg       *logger.Logger
	metrics    *metrics.EngineMetrics
	onError    ErrorFunc

	// mu serializes the engine: snapshot handling, authentication
	// completions, and teardown all run under it.
	mu          sync.Mutex
	closed      bool
	cancel      recordstore.CancelFunc
	inFlight    map[string]bool
	terminal    map[string]bool
	submissions map[string]string
	pending     map[string]chan struct{}
}

// NewEngine constructs a reconciliation engine for one customer session.
func NewEngine(params Params) (*Engine, error) {
	if params.CustomerID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Authenticator == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "authenticator required")
	}
	return &Engine{
		customerID:  params.CustomerID,
		store:       params.Store,
		auth:        params.Authenticator,
		logg:        params.Logger,
		metrics:     params.Metrics,
		onError:     params.OnError,
		inFlight:    map[string]bool{},
		terminal:    map[string]bool{},
		submissions: map[string]string{},
		pending:     map[string]chan struct{}{},
	}, nil
}

// Submit validates and records a new charge request with status "new".
// Returns the store-assigned document id. A repeated SubmissionID returns
// the id of the document already created for that action.
func (e *Engine) Submit(ctx context.Context, input ChargeInput) (string, error) {
	if err := validate.Struct(input); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid charge submission")
	}
	currency, err := enums.ParseCurrency(input.Currency)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unsupported currency")
	}

	submissionID := input.SubmissionID
	if submissionID == "" {
		submissionID = uuid.NewString()
	}

	// The submission id is reserved under the lock before the store call so
	// that a concurrent duplicate can never start a second create. Duplicates
	// wait for the reservation holder and share its document.
	e.mu.Lock()
	for {
		if e.closed {
			e.mu.Unlock()
			return "", pkgerrors.New(pkgerrors.CodeInternal, "engine is closed")
		}
		if existing, ok := e.submissions[submissionID]; ok {
			e.mu.Unlock()
			return existing, nil
		}
		wait, inProgress := e.pending[submissionID]
		if !inProgress {
			break
		}
		e.mu.Unlock()
		select {
		case <-wait:
		case <-ctx.Done():
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "charge submission interrupted")
		}
		e.mu.Lock()
	}
	done := make(chan struct{})
	e.pending[submissionID] = done
	e.mu.Unlock()

	fields := map[string]any{
		"amount":         input.Amount,
		"currency":       currency.String(),
		"payment_method": input.PaymentMethodID,
		"status":         enums.PaymentStatusNew.String(),
	}
	id, err := e.store.CreatePayment(ctx, e.customerID, fields)

	e.mu.Lock()
	delete(e.pending, submissionID)
	if err == nil {
		e.submissions[submissionID] = id
	}
	e.mu.Unlock()
	close(done)
	if err != nil {
		// The reservation is released so a later retry with the same
		// submission id can create the document.
		return "", err
	}

	if e.logg != nil {
		e.logg.Info(e.logg.WithPaymentID(ctx, id), "charge submitted")
	}
	return id, nil
}

// Start subscribes to the customer's payments and begins reconciling pushes.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInternal, "engine is closed")
	}
	if e.cancel != nil {
		e.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeInternal, "engine already started")
	}
	e.mu.Unlock()

	cancel, err := e.store.SubscribePayments(ctx, e.customerID, func(docs []recordstore.Document) {
		e.handleSnapshot(ctx, docs)
	})
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		cancel()
		return pkgerrors.New(pkgerrors.CodeInternal, "engine is closed")
	}
	e.cancel = cancel
	e.mu.Unlock()
	return nil
}

// Close tears the engine down: the subscription stops, no further
// authentication attempts are scheduled, and results of attempts already in
// flight are discarded. Idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	cancel := e.cancel
	e.cancel = nil
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

func (e *Engine) handleSnapshot(ctx context.Context, docs []recordstore.Document) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	for _, doc := range docs {
		e.handleDocumentLocked(ctx, PaymentFromDocument(doc))
	}
}

func (e *Engine) handleDocumentLocked(ctx context.Context, p Payment) {
	if p.Status == "" {
		// Unrecognized processor status: surface, never crash, never write.
		e.metrics.IncUnknownStatus()
		e.surface(ctx, p.ID, pkgerrors.New(pkgerrors.CodeUnknownStatus, fmt.Sprintf("unrecognized payment status %q", p.RawStatus)))
		return
	}

	if p.Status.IsTerminal() {
		// Terminal pushes are authoritative regardless of in-flight work.
		e.terminal[p.ID] = true
		return
	}

	if p.Status == enums.PaymentStatusRequiresAction {
		e.maybeAuthenticateLocked(ctx, p)
	}
}

func (e *Engine) maybeAuthenticateLocked(ctx context.Context, p Payment) {
	if e.terminal[p.ID] {
		return
	}
	if e.inFlight[p.ID] {
		// Duplicate snapshot delivery; the first call is still pending.
		e.metrics.IncDuplicateSkip()
		return
	}
	if p.ClientSecret == "" {
		e.surface(ctx, p.ID, pkgerrors.New(pkgerrors.CodeAuthentication, "payment requires action but has no client secret"))
		return
	}

	e.inFlight[p.ID] = true
	e.metrics.IncAuthAttempt()
	go e.authenticate(ctx, p.ID, p.ClientSecret)
}

func (e *Engine) authenticate(ctx context.Context, paymentID, clientSecret string) {
	intent, err := e.auth.Authenticate(ctx, clientSecret)
	e.finishAuthentication(ctx, paymentID, intent, err)
}

func (e *Engine) finishAuthentication(ctx context.Context, paymentID string, intent *processor.Intent, authErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	delete(e.inFlight, paymentID)
	if e.closed || e.terminal[paymentID] {
		// A terminal push or teardown won the race; the processor's word
		// stands and this result must not overwrite it.
		e.metrics.IncStaleDiscard()
		return
	}

	merge := intent
	if authErr != nil {
		serr := stepup.AsError(authErr)
		if serr == nil || serr.Partial == nil {
			// No partial intent: surface without mutating status. A new
			// attempt requires a fresh requires_action push.
			e.surface(ctx, paymentID, pkgerrors.Wrap(pkgerrors.CodeAuthentication, authErr, authMessage(serr)))
			return
		}
		merge = serr.Partial
		e.surface(ctx, paymentID, pkgerrors.Wrap(pkgerrors.CodeAuthentication, authErr, serr.Message))
	}
	if merge == nil || len(merge.Fields) == 0 {
		return
	}

	if err := e.store.MergePayment(ctx, e.customerID, paymentID, merge.Fields); err != nil {
		e.surface(ctx, paymentID, err)
		return
	}
	e.metrics.IncMergeWrite()

	if status, err := enums.ParsePaymentStatus(merge.Status); err == nil && status.IsTerminal() {
		e.terminal[paymentID] = true
	}
}

func (e *Engine) surface(ctx context.Context, paymentID string, err error) {
	if e.logg != nil {
		e.logg.Error(e.logg.WithPaymentID(ctx, paymentID), "payment reconciliation error", err)
	}
	if e.onError != nil {
		e.onError(paymentID, err)
	}
}

func authMessage(serr *stepup.Error) string {
	if serr != nil && serr.Message != "" {
		return serr.Message
	}
	return "step-up authentication failed"
}
