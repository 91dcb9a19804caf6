package paymentmethods

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/payportal-backend/internal/processor"
	"github.com/angelmondragon/payportal-backend/internal/recordstore"
	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	"github.com/angelmondragon/payportal-backend/pkg/logger"
)

var validate = validator.New()

// SetupHandle scopes a setup confirmation to one customer's setup intent.
type SetupHandle struct {
	CustomerID   string
	ClientSecret string
}

// ConfirmInput is the payload required to attach a card.
type ConfirmInput struct {
	CardToken   string `json:"card_token" validate:"required"`
	BillingName string `json:"billing_name" validate:"required"`
}

// MethodRef identifies a stored payment method plus its display summary.
type MethodRef struct {
	ID   string
	Card *processor.CardSummary
}

// ServiceParams groups dependencies for the payment method registry.
type ServiceParams struct {
	Store     recordstore.Store
	Processor processor.Client
	Logger    *logger.Logger
}

// Service manages attachment of new payment methods via the processor's
// setup-confirmation handshake.
type Service struct {
	store     recordstore.Store
	processor processor.Client
	logg      *logger.Logger
}

// NewService constructs a payment method registry.
func NewService(params ServiceParams) (*Service, error) {
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "record store required")
	}
	if params.Processor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "processor client required")
	}
	return &Service{
		store:     params.Store,
		processor: params.Processor,
		logg:      params.Logger,
	}, nil
}

// BeginSetup obtains the setup intent client secret from the customer's
// profile record. The profile is provisioned externally; a customer without
// one cannot attach cards yet.
func (s *Service) BeginSetup(ctx context.Context, customerID string) (*SetupHandle, error) {
	if strings.TrimSpace(customerID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id is required")
	}

	profile, err := s.store.CustomerProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}

	secret, _ := profile["setup_secret"].(string)
	if strings.TrimSpace(secret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeSetup, "customer profile has no setup secret")
	}

	return &SetupHandle{CustomerID: customerID, ClientSecret: secret}, nil
}

// ConfirmSetup attaches the tokenized card to the setup intent. On success it
// performs exactly one additive store write; on any failure nothing is
// written and the processor's message is surfaced.
func (s *Service) ConfirmSetup(ctx context.Context, handle *SetupHandle, input ConfirmInput) (*MethodRef, error) {
	if handle == nil || strings.TrimSpace(handle.CustomerID) == "" || strings.TrimSpace(handle.ClientSecret) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "setup handle is required")
	}
	if err := validate.Struct(input); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid setup input")
	}

	result, err := s.processor.ConfirmCardSetup(ctx, handle.ClientSecret, processor.CardDetails{Token: input.CardToken}, input.BillingName)
	if err != nil {
		if perr := processor.AsError(err); perr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSetup, perr, perr.Message)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "confirm card setup")
	}
	if result == nil || strings.TrimSpace(result.PaymentMethodID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "processor returned no payment method id")
	}

	fields := map[string]any{"id": result.PaymentMethodID}
	if result.Card != nil {
		fields["card"] = map[string]any{
			"brand":     result.Card.Brand,
			"last4":     result.Card.Last4,
			"exp_month": result.Card.ExpMonth,
			"exp_year":  result.Card.ExpYear,
		}
	}
	if _, err := s.store.CreatePaymentMethod(ctx, handle.CustomerID, fields); err != nil {
		return nil, err
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithPaymentMethodID(ctx, result.PaymentMethodID), "payment method attached")
	}

	return &MethodRef{ID: result.PaymentMethodID, Card: result.Card}, nil
}

// DefaultMethod picks the customer's selected method from a snapshot: the
// first document carrying a processor method id.
func DefaultMethod(docs []recordstore.Document) (*MethodRef, bool) {
	for _, doc := range docs {
		id := doc.StringField("id")
		if id == "" {
			continue
		}
		return &MethodRef{ID: id, Card: cardFromDocument(doc)}, true
	}
	return nil, false
}

func cardFromDocument(doc recordstore.Document) *processor.CardSummary {
	card, ok := doc.Data["card"].(map[string]any)
	if !ok {
		return nil
	}
	summary := &processor.CardSummary{}
	if brand, ok := card["brand"].(string); ok {
		summary.Brand = brand
	}
	if last4, ok := card["last4"].(string); ok {
		summary.Last4 = last4
	}
	summary.ExpMonth = intField(card, "exp_month")
	summary.ExpYear = intField(card, "exp_year")
	return summary
}

func intField(m map[string]any, key string) int64 {
	switch v := m[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}
