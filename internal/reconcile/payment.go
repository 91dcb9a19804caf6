package reconcile

import (
	"github.com/angelmondragon/payportal-backend/internal/recordstore"
	"github.com/angelmondragon/payportal-backend/pkg/enums"
)

// Payment is a typed view over a payment document. Fields keeps the raw map
// so processor passthrough data is never lost; Status is empty when the
// document carries a status this build does not recognize.
type Payment struct {
	ID              string
	Amount          int64
	Currency        enums.Currency
	PaymentMethodID string
	Status          enums.PaymentStatus
	RawStatus       string
	ClientSecret    string
	CardBrand       string
	CardLast4       string
	Fields          map[string]any
}

// PaymentFromDocument extracts the known payment fields from a raw document.
func PaymentFromDocument(doc recordstore.Document) Payment {
	p := Payment{
		ID:              doc.ID,
		Amount:          intValue(doc.Data["amount"]),
		PaymentMethodID: doc.StringField("payment_method"),
		RawStatus:       doc.StringField("status"),
		ClientSecret:    doc.StringField("client_secret"),
		Fields:          doc.Data,
	}
	if currency, err := enums.ParseCurrency(doc.StringField("currency")); err == nil {
		p.Currency = currency
	}
	if status, err := enums.ParsePaymentStatus(p.RawStatus); err == nil {
		p.Status = status
	}
	p.CardBrand, p.CardLast4 = chargeCard(doc.Data)
	return p
}

// chargeCard digs the settled card summary out of the processor's charges
// list: charges.data[0].payment_method_details.card.
func chargeCard(fields map[string]any) (brand, last4 string) {
	charges, ok := fields["charges"].(map[string]any)
	if !ok {
		return "", ""
	}
	data, ok := charges["data"].([]any)
	if !ok || len(data) == 0 {
		return "", ""
	}
	first, ok := data[0].(map[string]any)
	if !ok {
		return "", ""
	}
	card, ok := first["card"].(map[string]any)
	if !ok {
		details, ok := first["payment_method_details"].(map[string]any)
		if !ok {
			return "", ""
		}
		if card, ok = details["card"].(map[string]any); !ok {
			return "", ""
		}
	}
	brand, _ = card["brand"].(string)
	last4, _ = card["last4"].(string)
	return brand, last4
}

func intValue(raw any) int64 {
	switch v := raw.(type) {
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
