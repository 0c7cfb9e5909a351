package checkout

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

// Customer is optional buyer information printed on the receipt.
type Customer struct {
	Name  *string
	Phone *string
	Notes *string
}

// PaymentSelection is how the customer settles the sale. Tendered is only
// read for cash.
type PaymentSelection struct {
	Method   enums.PaymentMethod
	Tendered *decimal.Decimal
	Customer Customer
}

func (p PaymentSelection) validate() error {
	if !p.Method.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown payment method").
			WithDetails(map[string]any{"payment_method": string(p.Method)})
	}
	if p.Method.RequiresTender() && p.Tendered == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "tendered amount is required for cash")
	}
	return nil
}

func (p PaymentSelection) normalized() PaymentSelection {
	if !p.Method.RequiresTender() {
		p.Tendered = nil
	}
	p.Customer = Customer{
		Name:  trimmed(p.Customer.Name),
		Phone: trimmed(p.Customer.Phone),
		Notes: trimmed(p.Customer.Notes),
	}
	return p
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
