package money

import (
	"fmt"
	"strings"

	"github.com/angelmondragon/payportal-backend/pkg/enums"
)

// FormatAmount renders a minor-unit amount for display, e.g. 500 usd ->
// "5.00 USD". Zero-decimal currencies render without a fraction.
func FormatAmount(amount int64, currency enums.Currency) string {
	code := strings.ToUpper(currency.String())
	if currency.IsZeroDecimal() {
		return fmt.Sprintf("%d %s", amount, code)
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, code)
}
