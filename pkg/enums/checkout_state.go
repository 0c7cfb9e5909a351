package enums

import "fmt"

// CheckoutState tracks where a terminal's checkout attempt is in its lifecycle.
type CheckoutState string

const (
	CheckoutStateIdle            CheckoutState = "idle"
	CheckoutStateReviewing       CheckoutState = "reviewing"
	CheckoutStateAwaitingPayment CheckoutState = "awaiting_payment"
	CheckoutStateSubmitting      CheckoutState = "submitting"
	CheckoutStateCompleted       CheckoutState = "completed"
	CheckoutStateFailed          CheckoutState = "failed"
	CheckoutStateCancelled       CheckoutState = "cancelled"
)

var validCheckoutStates = []CheckoutState{
	CheckoutStateIdle,
	CheckoutStateReviewing,
	CheckoutStateAwaitingPayment,
	CheckoutStateSubmitting,
	CheckoutStateCompleted,
	CheckoutStateFailed,
	CheckoutStateCancelled,
}

// String implements fmt.Stringer.
func (c CheckoutState) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CheckoutState.
func (c CheckoutState) IsValid() bool {
	for _, candidate := range validCheckoutStates {
		if candidate == c {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the attempt has finished, successfully or not.
func (c CheckoutState) IsTerminal() bool {
	return c == CheckoutStateCompleted || c == CheckoutStateCancelled
}

// ParseCheckoutState converts raw input into a CheckoutState.
func ParseCheckoutState(value string) (CheckoutState, error) {
	for _, candidate := range validCheckoutStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid checkout state %q", value)
}
