// Package terminals exposes POS terminal sessions, their carts and their
// checkout lifecycle over HTTP.
package terminals

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/packfinderz-pos/api/middleware"
	"github.com/angelmondragon/packfinderz-pos/api/responses"
	"github.com/angelmondragon/packfinderz-pos/api/validators"
	"github.com/angelmondragon/packfinderz-pos/internal/cart"
	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	"github.com/angelmondragon/packfinderz-pos/internal/terminals"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
)

// Registry is the session surface the handlers depend on.
type Registry interface {
	Open(ctx context.Context, q catalog.Query) (*terminals.Session, error)
	Get(id string) (*terminals.Session, error)
	Close(ctx context.Context, id string) error
	RefreshLedger(ctx context.Context, id string) (*catalog.Ledger, []cart.Shortfall, error)
}

// AttemptLister reads the checkout journal.
type AttemptLister interface {
	ListBySession(ctx context.Context, sessionID string, limit int) ([]checkout.Attempt, error)
}

// OpenSession loads the catalog slice for a store and starts an idle checkout.
// The store defaults to the one on the cashier's credential.
func OpenSession(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload openSessionRequest
		if _, err := decodeOptionalBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		storeID := strings.TrimSpace(payload.StoreID)
		if credStore := middleware.StoreIDFromContext(r.Context()); credStore != "" {
			if storeID != "" && storeID != credStore {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "store id does not match credential"))
				return
			}
			storeID = credStore
		}

		sess, err := reg.Open(r.Context(), catalog.Query{
			StoreID:  storeID,
			Category: strings.TrimSpace(payload.Category),
			Search:   strings.TrimSpace(payload.Query),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSessionResponse(sess))
	}
}

func GetSession(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSessionResponse(sess))
	}
}

func CloseSession(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := reg.Close(r.Context(), sess.ID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ListProducts returns the session's stock snapshot.
func ListProducts(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProducts(sess.Ledger().Products()))
	}
}

// RefreshLedger re-reads stock bypassing the cache and reports the cart
// lines the new snapshot no longer covers.
func RefreshLedger(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id := sess.ID
		ledger, shortfalls, err := reg.RefreshLedger(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if len(shortfalls) > 0 && logg != nil {
			ctx := logg.WithSessionID(r.Context(), id)
			logg.Warn(logg.WithField(ctx, "shortfalls", len(shortfalls)), "cart exceeds refreshed stock")
		}
		responses.WriteSuccess(w, newLedgerRefreshResponse(ledger, shortfalls, sess.Checkout.Status()))
	}
}

// AddItem adds one unit of a ledger product to the cart.
func AddItem(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, ok := sess.Product(strings.TrimSpace(payload.ProductID))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product is not in the session catalog").
				WithDetails(map[string]any{"product_id": payload.ProductID}))
			return
		}
		mutate(w, r, logg, sess, func(c *cart.Cart) error { return c.AddItem(product) })
	}
}

func UpdateQuantity(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateQuantityRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := chi.URLParam(r, "productId")
		mutate(w, r, logg, sess, func(c *cart.Cart) error { return c.UpdateQuantity(productID, *payload.Quantity) })
	}
}

func RemoveItem(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := chi.URLParam(r, "productId")
		mutate(w, r, logg, sess, func(c *cart.Cart) error {
			c.RemoveItem(productID)
			return nil
		})
	}
}

func ClearCart(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mutate(w, r, logg, sess, func(c *cart.Cart) error {
			c.Clear()
			return nil
		})
	}
}

func SetLineDiscount(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload lineDiscountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID := chi.URLParam(r, "productId")
		mutate(w, r, logg, sess, func(c *cart.Cart) error { return c.SetLineDiscount(productID, *payload.Amount) })
	}
}

func ApplyDiscount(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload discountRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discountType, err := enums.ParseDiscountType(payload.Type)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown discount type"))
			return
		}
		mutate(w, r, logg, sess, func(c *cart.Cart) error { return c.ApplyDiscount(discountType, *payload.Value) })
	}
}

func RemoveDiscount(reg Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFromRequest(reg, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		mutate(w, r, logg, sess, func(c *cart.Cart) error {
			c.RemoveDiscount()
			return nil
		})
	}
}

// sessionFromRequest resolves the route's session. Sessions of another store
// than the cashier's credential are reported as not found.
func sessionFromRequest(reg Registry, r *http.Request) (*terminals.Session, error) {
	id := strings.TrimSpace(chi.URLParam(r, "sessionId"))
	if id == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	sess, err := reg.Get(id)
	if err != nil {
		return nil, err
	}
	if credStore := middleware.StoreIDFromContext(r.Context()); credStore != "" && credStore != sess.Query.StoreID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "terminal session not found")
	}
	return sess, nil
}

func mutate(w http.ResponseWriter, r *http.Request, logg *logger.Logger, sess *terminals.Session, fn func(c *cart.Cart) error) {
	if err := sess.Checkout.Mutate(fn); err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, newCheckoutResponse(sess.Checkout.Status()))
}
