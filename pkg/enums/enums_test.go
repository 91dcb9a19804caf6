package enums

import "testing"

func TestPaymentStatusIsTerminal(t *testing.T) {
	terminal := []PaymentStatus{PaymentStatusSucceeded, PaymentStatusFailed, PaymentStatusCanceled}
	for _, status := range terminal {
		if !status.IsTerminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	open := []PaymentStatus{PaymentStatusNew, PaymentStatusRequiresConfirmation, PaymentStatusRequiresAction, PaymentStatus("pending")}
	for _, status := range open {
		if status.IsTerminal() {
			t.Fatalf("expected %s to be non-terminal", status)
		}
	}
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("requires_action")
	if err != nil || status != PaymentStatusRequiresAction {
		t.Fatalf("unexpected result %v, %v", status, err)
	}
	if _, err := ParsePaymentStatus("processing"); err == nil {
		t.Fatal("expected error for unrecognized status")
	}
	if PaymentStatus("processing").IsValid() {
		t.Fatal("unrecognized status must not validate")
	}
}

func TestParseCurrencyNormalizes(t *testing.T) {
	currency, err := ParseCurrency(" USD ")
	if err != nil || currency != CurrencyUSD {
		t.Fatalf("unexpected result %v, %v", currency, err)
	}
	if _, err := ParseCurrency("chf"); err == nil {
		t.Fatal("expected error for unsupported currency")
	}
}

func TestCurrencyZeroDecimal(t *testing.T) {
	if !CurrencyJPY.IsZeroDecimal() {
		t.Fatal("jpy has no minor unit")
	}
	if CurrencyUSD.IsZeroDecimal() || CurrencyEUR.IsZeroDecimal() || CurrencyGBP.IsZeroDecimal() {
		t.Fatal("decimal currencies must not report zero-decimal")
	}
}
