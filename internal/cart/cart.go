// Package cart holds the line items of one sale and derives its totals.
// A Cart is not safe for concurrent use; the checkout orchestrator guards it.
package cart

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/discount"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

// StockView resolves the latest stock snapshot for a product.
type StockView interface {
	Lookup(productID string) (catalog.Product, bool)
}

// Cart is the owned-state container for one sale.
type Cart struct {
	lines map[string]*Line
	order []string

	discount discount.Discount
	// subtotal the order discount was last validated against
	discountBase decimal.Decimal
}

func New() *Cart {
	return &Cart{
		lines:    make(map[string]*Line),
		discount: discount.None(),
	}
}

// AddItem adds one unit of p. The first add snapshots name, price and stock;
// later adds keep the original unit price and refresh the stock snapshot.
func (c *Cart) AddItem(p catalog.Product) error {
	productID := strings.TrimSpace(p.ProductID)
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if p.UnitPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative").
			WithDetails(map[string]any{"product_id": productID})
	}

	if line, ok := c.lines[productID]; ok {
		if line.Quantity+1 > p.AvailableStock {
			return stockLimit(productID, p.AvailableStock, line.Quantity+1)
		}
		line.Quantity++
		line.AvailableStock = p.AvailableStock
		return nil
	}

	if p.AvailableStock < 1 {
		return stockLimit(productID, p.AvailableStock, 1)
	}
	c.lines[productID] = &Line{
		ProductID:      productID,
		Name:           p.Name,
		UnitPrice:      money.Round(p.UnitPrice),
		Quantity:       1,
		AvailableStock: p.AvailableStock,
		LineDiscount:   decimal.Zero,
		ImageRef:       p.ImageRef,
	}
	c.order = append(c.order, productID)
	return nil
}

// UpdateQuantity sets the quantity of an existing line. Zero removes it.
func (c *Cart) UpdateQuantity(productID string, n int) error {
	if n < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity cannot be negative").
			WithDetails(map[string]any{"product_id": productID, "quantity": n})
	}
	line, ok := c.lines[productID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	if n == 0 {
		c.RemoveItem(productID)
		return nil
	}
	if n > line.AvailableStock {
		return stockLimit(productID, line.AvailableStock, n)
	}
	gross := line.UnitPrice.Mul(decimal.NewFromInt(int64(n)))
	if line.LineDiscount.GreaterThan(gross) {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount exceeds the new line amount").
			WithDetails(map[string]any{
				"product_id":    productID,
				"quantity":      n,
				"line_discount": money.Format(line.LineDiscount),
				"line_gross":    money.Format(gross),
			})
	}
	line.Quantity = n
	return nil
}

// RemoveItem drops a line. Removing an absent product is a no-op.
func (c *Cart) RemoveItem(productID string) {
	if _, ok := c.lines[productID]; !ok {
		return
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// Clear empties the cart and resets the order discount.
func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
	c.discount = discount.None()
	c.discountBase = decimal.Zero
}

// SetLineDiscount sets a per-line discount within [0, line gross].
func (c *Cart) SetLineDiscount(productID string, amount decimal.Decimal) error {
	line, ok := c.lines[productID]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not in cart")
	}
	amount = money.Round(amount)
	gross := line.Gross()
	if amount.IsNegative() || amount.GreaterThan(gross) {
		return pkgerrors.New(pkgerrors.CodeValidation, "line discount must be between 0 and the line amount").
			WithDetails(map[string]any{
				"product_id":    productID,
				"line_discount": money.Format(amount),
				"line_gross":    money.Format(gross),
			})
	}
	line.LineDiscount = amount
	return nil
}

// ApplyDiscount validates and stores the order discount. On failure the
// previous discount stays in place.
func (c *Cart) ApplyDiscount(discountType enums.DiscountType, value decimal.Decimal) error {
	subtotal := c.subtotal()
	if _, err := discount.Apply(subtotal, discountType, value); err != nil {
		return err
	}
	if discountType == "" {
		discountType = enums.DiscountTypeNone
	}
	c.discount = discount.Discount{Type: discountType, Value: value}
	c.discountBase = subtotal
	return nil
}

// RemoveDiscount clears the order discount.
func (c *Cart) RemoveDiscount() {
	c.discount = discount.None()
	c.discountBase = decimal.Zero
}

// Discount returns the stored order discount.
func (c *Cart) Discount() discount.Discount {
	return c.discount
}

// RevalidateDiscount re-applies the order discount to the current subtotal
// and records that subtotal as validated.
func (c *Cart) RevalidateDiscount() (decimal.Decimal, error) {
	subtotal := c.subtotal()
	amount, err := discount.Resolve(subtotal, c.discount)
	if err != nil {
		return decimal.Zero, err
	}
	c.discountBase = subtotal
	return amount, nil
}

// Totals derives subtotal, discount and total. It does not mutate the cart.
func (c *Cart) Totals() Totals {
	subtotal := c.subtotal()
	items := 0
	for _, id := range c.order {
		items += c.lines[id].Quantity
	}

	t := Totals{Subtotal: subtotal, ItemsCount: items, DiscountAmount: decimal.Zero}
	if c.discount.IsNone() {
		t.Total = subtotal
		return t
	}

	t.DiscountNeedsRevalidation = !subtotal.Equal(c.discountBase)
	switch c.discount.Type {
	case enums.DiscountTypePercentage:
		t.DiscountAmount = money.Min(money.Percent(subtotal, c.discount.Value), subtotal)
	case enums.DiscountTypeFixed:
		t.DiscountAmount = money.Min(money.Round(c.discount.Value), subtotal)
	}
	t.Total = money.NonNegative(subtotal.Sub(t.DiscountAmount))
	return t
}

// SyncStock refreshes each line's stock snapshot from view and reports the
// lines it no longer covers. Quantities are never changed here.
func (c *Cart) SyncStock(view StockView) []Shortfall {
	var out []Shortfall
	for _, id := range c.order {
		line := c.lines[id]
		p, ok := view.Lookup(id)
		if !ok {
			line.AvailableStock = 0
			out = append(out, Shortfall{ProductID: id, Quantity: line.Quantity, Missing: true})
			continue
		}
		line.AvailableStock = p.AvailableStock
		if line.Quantity > p.AvailableStock {
			out = append(out, Shortfall{ProductID: id, Quantity: line.Quantity, AvailableStock: p.AvailableStock})
		}
	}
	return out
}

// Lines returns a copy of the lines in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

// Line returns a copy of one line.
func (c *Cart) Line(productID string) (Line, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

func (c *Cart) Len() int {
	return len(c.order)
}

func (c *Cart) IsEmpty() bool {
	return len(c.order) == 0
}

func (c *Cart) subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, id := range c.order {
		sum = sum.Add(c.lines[id].Net())
	}
	return sum
}

func stockLimit(productID string, available, requested int) error {
	return pkgerrors.New(pkgerrors.CodeStockLimit, "quantity exceeds available stock").
		WithDetails(map[string]any{
			"product_id":         productID,
			"available_stock":    available,
			"requested_quantity": requested,
		})
}
