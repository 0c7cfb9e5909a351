package enums

import "testing"

func TestParsePaymentMethod(t *testing.T) {
	for _, raw := range []string{"cash", "card", "bank_transfer", "e_wallet"} {
		got, err := ParsePaymentMethod(raw)
		if err != nil || string(got) != raw {
			t.Fatalf("parse %q: got %q %v", raw, got, err)
		}
	}
	if _, err := ParsePaymentMethod("cheque"); err == nil {
		t.Fatal("expected error for unknown method")
	}
	if !PaymentMethodCash.RequiresTender() || PaymentMethodCard.RequiresTender() {
		t.Fatal("only cash requires a tendered amount")
	}
}

func TestParseDiscountType(t *testing.T) {
	got, err := ParseDiscountType("")
	if err != nil || got != DiscountTypeNone {
		t.Fatalf("empty input should be none, got %q %v", got, err)
	}
	if _, err := ParseDiscountType("bogo"); err == nil {
		t.Fatal("expected error for unknown discount type")
	}
}

func TestCheckoutStateTerminal(t *testing.T) {
	tests := map[CheckoutState]bool{
		CheckoutStateIdle:            false,
		CheckoutStateSubmitting:      false,
		CheckoutStateFailed:          false,
		CheckoutStateCompleted:       true,
		CheckoutStateCancelled:       true,
		CheckoutStateAwaitingPayment: false,
	}
	for state, want := range tests {
		if state.IsTerminal() != want {
			t.Fatalf("%s: expected terminal=%v", state, want)
		}
	}
	if _, err := ParseCheckoutState("paid"); err == nil {
		t.Fatal("expected error for unknown state")
	}
}
