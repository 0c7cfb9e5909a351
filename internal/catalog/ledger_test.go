package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNewLedgerKeepsFirstPositionAndLatestValue(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewLedger([]Product{
		{ProductID: "a", Name: "Tea", UnitPrice: decimal.NewFromInt(3), AvailableStock: 2},
		{ProductID: "b", Name: "Cake", UnitPrice: decimal.NewFromInt(5), AvailableStock: 1},
		{ProductID: "a", Name: "Tea", UnitPrice: decimal.NewFromInt(3), AvailableStock: 7},
		{ProductID: "", Name: "ignored"},
	}, at)

	if l.Len() != 2 {
		t.Fatalf("expected 2 products, got %d", l.Len())
	}
	products := l.Products()
	if products[0].ProductID != "a" || products[1].ProductID != "b" {
		t.Fatalf("unexpected order %+v", products)
	}
	if l.AvailableStock("a") != 7 {
		t.Fatalf("expected latest stock 7, got %d", l.AvailableStock("a"))
	}
	if l.AvailableStock("missing") != 0 {
		t.Fatal("unknown products have no stock")
	}
	if !l.FetchedAt().Equal(at) {
		t.Fatalf("unexpected fetched at %s", l.FetchedAt())
	}
}

func TestNilLedger(t *testing.T) {
	var l *Ledger
	if _, ok := l.Lookup("a"); ok {
		t.Fatal("nil ledger has no products")
	}
	if l.Len() != 0 || l.Products() != nil {
		t.Fatal("nil ledger should be empty")
	}
}
