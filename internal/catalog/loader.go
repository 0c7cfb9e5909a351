package catalog

import (
	"context"
	"time"
)

// Invalidator drops cached snapshots for a store.
type Invalidator interface {
	Invalidate(ctx context.Context, storeID string) error
}

// Loader turns lookups into ledgers.
type Loader struct {
	lookup      Lookup
	invalidator Invalidator
	now         func() time.Time
}

// NewLoader builds a loader. invalidator may be nil when lookups are uncached.
func NewLoader(lookup Lookup, invalidator Invalidator) *Loader {
	return &Loader{lookup: lookup, invalidator: invalidator, now: time.Now}
}

// Load returns a ledger for q, possibly served from cache.
func (l *Loader) Load(ctx context.Context, q Query) (*Ledger, error) {
	products, err := l.lookup.Products(ctx, q)
	if err != nil {
		return nil, err
	}
	return NewLedger(products, l.now().UTC()), nil
}

// Refresh bypasses the cache so the ledger reflects upstream stock.
func (l *Loader) Refresh(ctx context.Context, q Query) (*Ledger, error) {
	if l.invalidator != nil {
		if err := l.invalidator.Invalidate(ctx, q.StoreID); err != nil {
			return nil, err
		}
	}
	return l.Load(ctx, q)
}
