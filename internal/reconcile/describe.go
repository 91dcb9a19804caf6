package reconcile

import (
	"fmt"

	"github.com/angelmondragon/payportal-backend/pkg/enums"
	"github.com/angelmondragon/payportal-backend/pkg/money"
)

// Describe renders a payment's one-line summary for display. Pure function
// over the merged document; total over every status plus an unknown-status
// fallback.
func Describe(p Payment) string {
	amount := money.FormatAmount(p.Amount, p.Currency)
	switch p.Status {
	case enums.PaymentStatusNew, enums.PaymentStatusRequiresConfirmation:
		return fmt.Sprintf("Creating payment for %s", amount)
	case enums.PaymentStatusSucceeded:
		if p.CardBrand != "" && p.CardLast4 != "" {
			return fmt.Sprintf("✅ Payment for %s on %s card •••• %s.", amount, p.CardBrand, p.CardLast4)
		}
		return fmt.Sprintf("✅ Payment for %s succeeded.", amount)
	case enums.PaymentStatusRequiresAction:
		return fmt.Sprintf("🚨 Payment for %s requires action", amount)
	case enums.PaymentStatusFailed:
		return fmt.Sprintf("⚠️ Payment for %s failed", amount)
	case enums.PaymentStatusCanceled:
		return fmt.Sprintf("⚠️ Payment for %s canceled", amount)
	default:
		status := p.RawStatus
		if status == "" {
			status = "in an unknown state"
		}
		return fmt.Sprintf("⚠️ Payment for %s %s", amount, status)
	}
}
