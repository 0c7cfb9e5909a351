package terminals

import (
	"context"
	"net/http"

	"github.com/angelmondragon/packfinderz-pos/api/responses"
	"github.com/angelmondragon/packfinderz-pos/api/validators"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
)

func CheckoutStatus(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(sess.Checkout.Status()))
	}
}

func ReviewCheckout(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return transition(reg, logg, func(ctx context.Context, o *checkout.Orchestrator) error {
		_, err := o.Review(ctx)
		return err
	})
}

// BeginCheckout freezes the snapshot the payment step submits.
func BeginCheckout(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return transition(reg, logg, func(ctx context.Context, o *checkout.Orchestrator) error {
		_, err := o.Begin(ctx)
		return err
	})
}

func RetryCheckout(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return transition(reg, logg, func(ctx context.Context, o *checkout.Orchestrator) error {
		_, err := o.Retry(ctx)
		return err
	})
}

func CancelCheckout(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return transition(reg, logg, func(ctx context.Context, o *checkout.Orchestrator) error {
		return o.Cancel(ctx)
	})
}

// SubmitCheckout sends the frozen snapshot to the sales service. An empty
// body reuses the payment selection of the previous attempt. The sale runs
// to completion even if the caller disconnects.
func SubmitCheckout(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload submitRequest
		present, err := decodeOptionalBody(r, &payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payment *checkout.PaymentSelection
		if present {
			if payment, err = payload.toPayment(); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := context.WithoutCancel(r.Context())
		if logg != nil {
			ctx = logg.WithSessionID(ctx, sess.ID)
		}
		result, err := sess.Checkout.Submit(ctx, payment)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newResultResponse(result))
	}
}

// ListAttempts returns the journaled submissions of a session, newest first.
func ListAttempts(reg Registry, journal AttemptLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if journal == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeDependency, "checkout journal unavailable"))
			return
		}
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryLimit(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		attempts, err := journal.ListBySession(r.Context(), sess.ID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAttempts(attempts))
	}
}

func transition(reg Registry, logg *logger.Logger, fn func(context.Context, *checkout.Orchestrator) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSessionID(ctx, sess.ID)
		}
		if err := fn(ctx, sess.Checkout); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, newCheckoutResponse(sess.Checkout.Status()))
	}
}
