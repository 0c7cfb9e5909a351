// Package discount resolves a single order-level discount against a
// point-in-time subtotal. It never watches the cart: callers re-apply it
// whenever they need a fresh answer.
package discount

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

var maxPercentage = decimal.NewFromInt(100)

// Discount is the order-level rule a cashier applied.
type Discount struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

// None is the absence of an order discount.
func None() Discount {
	return Discount{Type: enums.DiscountTypeNone, Value: decimal.Zero}
}

// IsNone reports whether no discount is applied.
func (d Discount) IsNone() bool {
	return d.Type == "" || d.Type == enums.DiscountTypeNone
}

// Apply returns the discount amount for subtotal, or a validation error when
// value is out of range for the rule type.
func Apply(subtotal decimal.Decimal, discountType enums.DiscountType, value decimal.Decimal) (decimal.Decimal, error) {
	if subtotal.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "subtotal cannot be negative")
	}

	switch discountType {
	case "", enums.DiscountTypeNone:
		return decimal.Zero, nil
	case enums.DiscountTypePercentage:
		if value.IsNegative() || value.GreaterThan(maxPercentage) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "percentage must be between 0 and 100").
				WithDetails(map[string]any{
					"type":  string(discountType),
					"value": value.String(),
				})
		}
		return money.Min(money.Percent(subtotal, value), subtotal), nil
	case enums.DiscountTypeFixed:
		if value.IsNegative() || value.GreaterThan(subtotal) {
			return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "fixed discount must be between 0 and the subtotal").
				WithDetails(map[string]any{
					"type":     string(discountType),
					"value":    money.Format(value),
					"subtotal": money.Format(subtotal),
				})
		}
		return money.Round(value), nil
	default:
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type").WithDetails(map[string]any{
			"type": string(discountType),
		})
	}
}

// Resolve applies d to subtotal.
func Resolve(subtotal decimal.Decimal, d Discount) (decimal.Decimal, error) {
	return Apply(subtotal, d.Type, d.Value)
}
