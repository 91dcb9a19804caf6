package reconcile

import (
	"testing"

	"github.com/angelmondragon/payportal-backend/internal/recordstore"
	"github.com/angelmondragon/payportal-backend/pkg/enums"
)

func TestDescribeCoversEveryStatus(t *testing.T) {
	base := Payment{Amount: 500, Currency: enums.CurrencyUSD}

	tests := []struct {
		name    string
		mutate  func(p Payment) Payment
		want    string
	}{
		{
			name:   "new",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusNew; return p },
			want:   "Creating payment for 5.00 USD",
		},
		{
			name:   "requires confirmation",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusRequiresConfirmation; return p },
			want:   "Creating payment for 5.00 USD",
		},
		{
			name: "succeeded with card",
			mutate: func(p Payment) Payment {
				p.Status = enums.PaymentStatusSucceeded
				p.CardBrand = "visa"
				p.CardLast4 = "4242"
				return p
			},
			want: "✅ Payment for 5.00 USD on visa card •••• 4242.",
		},
		{
			name:   "succeeded without card details",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusSucceeded; return p },
			want:   "✅ Payment for 5.00 USD succeeded.",
		},
		{
			name:   "requires action",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusRequiresAction; return p },
			want:   "🚨 Payment for 5.00 USD requires action",
		},
		{
			name:   "failed",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusFailed; return p },
			want:   "⚠️ Payment for 5.00 USD failed",
		},
		{
			name:   "canceled",
			mutate: func(p Payment) Payment { p.Status = enums.PaymentStatusCanceled; return p },
			want:   "⚠️ Payment for 5.00 USD canceled",
		},
		{
			name:   "unknown status",
			mutate: func(p Payment) Payment { p.RawStatus = "requires_wizardry"; return p },
			want:   "⚠️ Payment for 5.00 USD requires_wizardry",
		},
		{
			name:   "missing status",
			mutate: func(p Payment) Payment { return p },
			want:   "⚠️ Payment for 5.00 USD in an unknown state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Describe(tt.mutate(base)); got != tt.want {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestPaymentFromDocumentExtractsKnownFields(t *testing.T) {
	doc := recordstore.Document{
		ID: "pay_1",
		Data: map[string]any{
			"amount":         float64(750), // stores may decode numbers as floats
			"currency":       "gbp",
			"payment_method": "pm_9",
			"status":         "requires_action",
			"client_secret":  "sec_9",
			"charges": map[string]any{
				"data": []any{
					map[string]any{
						"payment_method_details": map[string]any{
							"card": map[string]any{"brand": "mastercard", "last4": "4444"},
						},
					},
				},
			},
		},
	}

	p := PaymentFromDocument(doc)
	if p.ID != "pay_1" || p.Amount != 750 || p.Currency != enums.CurrencyGBP {
		t.Fatalf("unexpected payment %+v", p)
	}
	if p.Status != enums.PaymentStatusRequiresAction || p.ClientSecret != "sec_9" {
		t.Fatalf("unexpected status fields %+v", p)
	}
	if p.CardBrand != "mastercard" || p.CardLast4 != "4444" {
		t.Fatalf("unexpected card summary %+v", p)
	}
}

func TestPaymentFromDocumentToleratesUnknownStatus(t *testing.T) {
	p := PaymentFromDocument(recordstore.Document{ID: "pay_1", Data: map[string]any{
		"amount": int64(100), "currency": "usd", "status": "something_else",
	}})
	if p.Status != "" {
		t.Fatalf("expected empty typed status, got %q", p.Status)
	}
	if p.RawStatus != "something_else" {
		t.Fatalf("expected raw status preserved, got %q", p.RawStatus)
	}
}
