package processor

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/paymentintent"
	"github.com/stripe/stripe-go/v84/setupintent"

	pkgerrors "github.com/angelmondragon/payportal-backend/pkg/errors"
	pkgstripe "github.com/angelmondragon/payportal-backend/pkg/stripe"
)

// NewStripeClient wraps the bootstrap Stripe client behind the processor
// contract so callers can substitute test doubles.
func NewStripeClient(api *pkgstripe.Client) Client {
	if api == nil {
		return nil
	}
	return &stripeClientWrapper{}
}

type stripeClientWrapper struct{}

// ConfirmCardSetup attaches the tokenized card to the customer's setup
// intent and returns the processor-issued payment method reference.
func (w *stripeClientWrapper) ConfirmCardSetup(ctx context.Context, clientSecret string, card CardDetails, billingName string) (*SetupResult, error) {
	intentID, err := intentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	params := &stripe.SetupIntentConfirmParams{
		PaymentMethod: stripe.String(card.Token),
	}
	params.Context = ctx
	params.AddExpand("payment_method")
	if name := strings.TrimSpace(billingName); name != "" {
		params.AddMetadata("cardholder_name", name)
	}

	si, err := setupintent.Confirm(intentID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	if si == nil || si.PaymentMethod == nil || si.PaymentMethod.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "setup intent missing payment method")
	}

	return &SetupResult{
		PaymentMethodID: si.PaymentMethod.ID,
		Card:            cardSummaryFromMethod(si.PaymentMethod),
	}, nil
}

// HandleCardAction drives the payment intent through its pending step-up
// action and returns the processor's final snapshot.
func (w *stripeClientWrapper) HandleCardAction(ctx context.Context, clientSecret string) (*Intent, error) {
	intentID, err := intentIDFromClientSecret(clientSecret)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := paymentintent.Confirm(intentID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	return intentFromPaymentIntent(pi)
}

// Client secrets are formed as "<intent id>_secret_<nonce>".
func intentIDFromClientSecret(secret string) (string, error) {
	idx := strings.Index(secret, "_secret")
	if idx <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "malformed client secret")
	}
	return secret[:idx], nil
}

func wrapStripeError(err error) error {
	var sErr *stripe.Error
	if !errors.As(err, &sErr) || sErr == nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "stripe request failed")
	}
	perr := &Error{
		Code:    string(sErr.Code),
		Message: sErr.Msg,
	}
	if sErr.PaymentIntent != nil {
		if intent, convErr := intentFromPaymentIntent(sErr.PaymentIntent); convErr == nil {
			perr.Intent = intent
		}
	}
	return perr
}

func intentFromPaymentIntent(pi *stripe.PaymentIntent) (*Intent, error) {
	if pi == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "payment intent response is nil")
	}
	raw, err := json.Marshal(pi)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "encode payment intent")
	}
	fields := map[string]any{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent")
	}
	return &Intent{
		ID:     pi.ID,
		Status: string(pi.Status),
		Fields: fields,
	}, nil
}

func cardSummaryFromMethod(pm *stripe.PaymentMethod) *CardSummary {
	if pm == nil || pm.Card == nil {
		return nil
	}
	return &CardSummary{
		Brand:    string(pm.Card.Brand),
		Last4:    pm.Card.Last4,
		ExpMonth: pm.Card.ExpMonth,
		ExpYear:  pm.Card.ExpYear,
	}
}
