package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is one sellable catalog row as seen by the terminal.
type Product struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	AvailableStock int             `json:"available_stock"`
	ImageRef       *string         `json:"image_ref,omitempty"`
}

// Query selects the catalog slice a terminal session sells from.
type Query struct {
	StoreID  string `json:"store_id"`
	Category string `json:"category,omitempty"`
	Search   string `json:"q,omitempty"`
}

// Ledger is a read-only stock snapshot taken at FetchedAt. It is never
// revalidated in place; callers build a new one to re-sync.
type Ledger struct {
	byID      map[string]Product
	order     []string
	fetchedAt time.Time
}

// NewLedger indexes products by id. Later duplicates replace earlier ones
// but keep the first position.
func NewLedger(products []Product, fetchedAt time.Time) *Ledger {
	l := &Ledger{
		byID:      make(map[string]Product, len(products)),
		order:     make([]string, 0, len(products)),
		fetchedAt: fetchedAt,
	}
	for _, p := range products {
		if p.ProductID == "" {
			continue
		}
		if _, seen := l.byID[p.ProductID]; !seen {
			l.order = append(l.order, p.ProductID)
		}
		l.byID[p.ProductID] = p
	}
	return l
}

// Lookup returns the snapshot for productID.
func (l *Ledger) Lookup(productID string) (Product, bool) {
	if l == nil {
		return Product{}, false
	}
	p, ok := l.byID[productID]
	return p, ok
}

// AvailableStock returns the snapshot stock, zero for unknown products.
func (l *Ledger) AvailableStock(productID string) int {
	p, _ := l.Lookup(productID)
	return p.AvailableStock
}

// Products lists the snapshot in catalog order.
func (l *Ledger) Products() []Product {
	if l == nil {
		return nil
	}
	out := make([]Product, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.byID[id])
	}
	return out
}

func (l *Ledger) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

func (l *Ledger) FetchedAt() time.Time {
	if l == nil {
		return time.Time{}
	}
	return l.fetchedAt
}
