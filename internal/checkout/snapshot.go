package checkout

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/internal/cart"
	"github.com/angelmondragon/packfinderz-pos/internal/discount"
	"github.com/angelmondragon/packfinderz-pos/internal/sales"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

// Snapshot is the frozen cart state a submission sends. Cart edits made
// after it was taken do not reach it.
type Snapshot struct {
	IdempotencyKey string
	StoreID        string
	Lines          []cart.Line
	Discount       discount.Discount
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	ItemsCount     int
	TakenAt        time.Time
}

func newSnapshot(c *cart.Cart, storeID, key string, discountAmount decimal.Decimal, now time.Time) *Snapshot {
	totals := c.Totals()
	subtotal := money.Round(totals.Subtotal)
	amount := money.Round(discountAmount)
	return &Snapshot{
		IdempotencyKey: key,
		StoreID:        storeID,
		Lines:          c.Lines(),
		Discount:       c.Discount(),
		Subtotal:       subtotal,
		DiscountAmount: amount,
		Total:          money.NonNegative(subtotal.Sub(amount)),
		ItemsCount:     totals.ItemsCount,
		TakenAt:        now,
	}
}

func (s *Snapshot) clone() *Snapshot {
	if s == nil {
		return nil
	}
	cp := *s
	cp.Lines = append([]cart.Line(nil), s.Lines...)
	return &cp
}

func (s *Snapshot) saleRequest(p PaymentSelection) sales.SaleRequest {
	items := make([]sales.SaleLineItem, 0, len(s.Lines))
	for _, line := range s.Lines {
		items = append(items, sales.SaleLineItem{
			ProductID:          line.ProductID,
			Quantity:           line.Quantity,
			UnitPrice:          sales.Amount(line.UnitPrice),
			LineDiscountAmount: sales.Amount(line.LineDiscount),
		})
	}
	req := sales.SaleRequest{
		StoreID:        s.StoreID,
		LineItems:      items,
		PaymentMethod:  string(p.Method),
		Subtotal:       sales.Amount(s.Subtotal),
		DiscountAmount: sales.Amount(s.DiscountAmount),
		DiscountType:   string(s.Discount.Type),
		TotalAmount:    sales.Amount(s.Total),
	}
	customer := &sales.Customer{Name: p.Customer.Name, Phone: p.Customer.Phone, Notes: p.Customer.Notes}
	if !customer.IsEmpty() {
		req.Customer = customer
	}
	return req
}

// Result is what a completed checkout hands back to the cashier.
type Result struct {
	ReceiptNumber  string
	SaleID         string
	Subtotal       decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	PaymentMethod  string
	Change         *decimal.Decimal
	LineItems      []cart.Line
	CreatedAt      time.Time
}
