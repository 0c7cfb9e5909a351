package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one product entry with its own quantity and price snapshot.
type Line struct {
	ProductID      string
	Name           string
	UnitPrice      decimal.Decimal
	Quantity       int
	AvailableStock int
	LineDiscount   decimal.Decimal
	ImageRef       *string
}

// Gross is unit price times quantity.
func (l Line) Gross() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Net is the gross amount less the line discount.
func (l Line) Net() decimal.Decimal {
	return l.Gross().Sub(l.LineDiscount)
}

// Totals is the derived view of a cart.
type Totals struct {
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	ItemsCount     int
	// DiscountNeedsRevalidation is set when the subtotal moved since the
	// order discount was validated. A fixed amount above the subtotal is
	// clamped for display while the flag is set.
	DiscountNeedsRevalidation bool
}

// Shortfall reports a line whose quantity the latest stock snapshot no
// longer covers.
type Shortfall struct {
	ProductID      string
	Quantity       int
	AvailableStock int
	Missing        bool
}
