package checkout

import (
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

var transitions = map[enums.CheckoutState][]enums.CheckoutState{
	enums.CheckoutStateIdle: {
		enums.CheckoutStateReviewing,
		enums.CheckoutStateCancelled,
	},
	enums.CheckoutStateReviewing: {
		enums.CheckoutStateReviewing,
		enums.CheckoutStateAwaitingPayment,
		enums.CheckoutStateCancelled,
	},
	enums.CheckoutStateAwaitingPayment: {
		enums.CheckoutStateSubmitting,
		enums.CheckoutStateFailed,
		enums.CheckoutStateCancelled,
	},
	enums.CheckoutStateSubmitting: {
		enums.CheckoutStateCompleted,
		enums.CheckoutStateFailed,
	},
	enums.CheckoutStateFailed: {
		enums.CheckoutStateAwaitingPayment,
		enums.CheckoutStateCancelled,
	},
	enums.CheckoutStateCompleted: {
		enums.CheckoutStateIdle,
	},
	enums.CheckoutStateCancelled: {
		enums.CheckoutStateIdle,
		enums.CheckoutStateCancelled,
	},
}

// canTransition reports whether from -> to is an edge of the lifecycle.
func canTransition(from, to enums.CheckoutState) bool {
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func stateConflict(from, to enums.CheckoutState, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(map[string]any{
		"state":  string(from),
		"target": string(to),
	})
}

func errInFlight() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "a submission is already in flight").
		WithDetails(map[string]any{"state": string(enums.CheckoutStateSubmitting)})
}

func errClosed() error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "terminal session is closed")
}
