package terminals

import (
	"bytes"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/api/validators"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

const maxBodyBytes = 64 << 10

type openSessionRequest struct {
	StoreID  string `json:"store_id" validate:"max=64"`
	Category string `json:"category" validate:"max=64"`
	Query    string `json:"q" validate:"max=128"`
}

type addItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type lineDiscountRequest struct {
	Amount *decimal.Decimal `json:"amount" validate:"required,money"`
}

type discountRequest struct {
	Type  string           `json:"type" validate:"required,oneof=none percentage fixed"`
	Value *decimal.Decimal `json:"value" validate:"required"`
}

type customerRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=128"`
	Phone *string `json:"phone" validate:"omitempty,max=32"`
	Notes *string `json:"notes" validate:"omitempty,max=512"`
}

type submitRequest struct {
	PaymentMethod string           `json:"payment_method" validate:"required"`
	Tendered      *decimal.Decimal `json:"tendered" validate:"omitempty,money"`
	Customer      *customerRequest `json:"customer"`
}

func (s submitRequest) toPayment() (*checkout.PaymentSelection, error) {
	method, err := enums.ParsePaymentMethod(s.PaymentMethod)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment method").
			WithDetails(map[string]any{"payment_method": s.PaymentMethod})
	}
	p := &checkout.PaymentSelection{Method: method, Tendered: s.Tendered}
	if s.Customer != nil {
		p.Customer = checkout.Customer{
			Name:  validators.SanitizeOptional(s.Customer.Name, 128),
			Phone: validators.SanitizeOptional(s.Customer.Phone, 32),
			Notes: validators.SanitizeOptional(s.Customer.Notes, 512),
		}
	}
	return p, nil
}

// decodeOptionalBody decodes dest when the request carries a body and
// reports whether it did.
func decodeOptionalBody(r *http.Request, dest any) (bool, error) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return false, nil
	}
	r.Body = io.NopCloser(bytes.NewReader(raw))
	if err := validators.DecodeJSONBody(r, dest); err != nil {
		return false, err
	}
	return true, nil
}
