package terminals

import (
	"sync"
	"time"

	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
)

// Session is one open POS terminal selling from a catalog slice.
type Session struct {
	ID       string
	Query    catalog.Query
	OpenedAt time.Time
	Checkout *checkout.Orchestrator

	mu         sync.RWMutex
	ledger     *catalog.Ledger
	lastActive time.Time
}

// Ledger returns the stock snapshot the session sells from.
func (s *Session) Ledger() *catalog.Ledger {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ledger
}

// Product looks a product up in the session ledger.
func (s *Session) Product(productID string) (catalog.Product, bool) {
	return s.Ledger().Lookup(productID)
}

func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActive
}

func (s *Session) setLedger(l *catalog.Ledger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger = l
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastActive) {
		s.lastActive = now
	}
}
