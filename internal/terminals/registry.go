// Package terminals keeps one checkout orchestrator per open POS session.
package terminals

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/packfinderz-pos/internal/cart"
	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
	"github.com/angelmondragon/packfinderz-pos/pkg/metrics"
)

// LedgerLoader builds stock snapshots.
type LedgerLoader interface {
	Load(ctx context.Context, q catalog.Query) (*catalog.Ledger, error)
	Refresh(ctx context.Context, q catalog.Query) (*catalog.Ledger, error)
}

// Options tune session expiry. Checkout carries the collaborators every new
// orchestrator is built with.
type Options struct {
	IdleTTL  time.Duration
	Checkout checkout.Deps
	Metrics  *metrics.TerminalMetrics
	Logger   *logger.Logger
	Now      func() time.Time
}

type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	loader LedgerLoader
	opts   Options
}

func NewRegistry(loader LedgerLoader, opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{
		sessions: make(map[string]*Session),
		loader:   loader,
		opts:     opts,
	}
}

// Open loads the ledger for q and starts an idle checkout for it.
func (r *Registry) Open(ctx context.Context, q catalog.Query) (*Session, error) {
	q.StoreID = strings.TrimSpace(q.StoreID)
	if q.StoreID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id is required")
	}
	ledger, err := r.loader.Load(ctx, q)
	if err != nil {
		return nil, err
	}

	now := r.opts.Now().UTC()
	id := uuid.NewString()
	sess := &Session{
		ID:         id,
		Query:      q,
		OpenedAt:   now,
		Checkout:   checkout.New(id, q.StoreID, r.opts.Checkout),
		ledger:     ledger,
		lastActive: now,
	}

	r.mu.Lock()
	r.sessions[id] = sess
	active := len(r.sessions)
	r.mu.Unlock()

	r.opts.Metrics.SetActive(active)
	if r.opts.Logger != nil {
		ctx = r.opts.Logger.WithSessionID(ctx, id)
		ctx = r.opts.Logger.WithFields(ctx, map[string]any{"store_id": q.StoreID, "products": ledger.Len()})
		r.opts.Logger.Info(ctx, "terminal session opened")
	}
	return sess, nil
}

// Get returns an open session and marks it active.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	sess, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "terminal session not found")
	}
	sess.touch(r.opts.Now().UTC())
	return sess, nil
}

// Close ends a session. A session mid-submission cannot be closed.
func (r *Registry) Close(ctx context.Context, id string) error {
	r.mu.Lock()
	sess, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return pkgerrors.New(pkgerrors.CodeNotFound, "terminal session not found")
	}
	if err := sess.Checkout.Close(); err != nil {
		r.mu.Unlock()
		return err
	}
	delete(r.sessions, id)
	active := len(r.sessions)
	r.mu.Unlock()

	r.opts.Metrics.SetActive(active)
	if r.opts.Logger != nil {
		r.opts.Logger.Info(r.opts.Logger.WithSessionID(ctx, id), "terminal session closed")
	}
	return nil
}

// RefreshLedger re-reads stock bypassing the cache and syncs the cart.
func (r *Registry) RefreshLedger(ctx context.Context, id string) (*catalog.Ledger, []cart.Shortfall, error) {
	sess, err := r.Get(id)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := r.loader.Refresh(ctx, sess.Query)
	if err != nil {
		return nil, nil, err
	}
	shortfalls, err := sess.Checkout.SyncStock(ledger)
	if err != nil {
		return nil, nil, err
	}
	sess.setLedger(ledger)
	return ledger, shortfalls, nil
}

// Sweep closes sessions idle longer than the TTL. Sessions mid-submission
// are kept. It returns the number of sessions closed.
func (r *Registry) Sweep(ctx context.Context) int {
	if r.opts.IdleTTL <= 0 {
		return 0
	}
	cutoff := r.opts.Now().UTC().Add(-r.opts.IdleTTL)

	r.mu.Lock()
	var expired []string
	for id, sess := range r.sessions {
		if sess.LastActive().After(cutoff) {
			continue
		}
		// Close fails while a submission is in flight.
		if err := sess.Checkout.Close(); err != nil {
			continue
		}
		expired = append(expired, id)
		delete(r.sessions, id)
	}
	active := len(r.sessions)
	r.mu.Unlock()

	r.opts.Metrics.SetActive(active)
	r.opts.Metrics.AddExpired(len(expired))
	if len(expired) > 0 && r.opts.Logger != nil {
		r.opts.Logger.Info(r.opts.Logger.WithField(ctx, "expired", len(expired)), "terminal sessions expired")
	}
	return len(expired)
}

// Run sweeps on every tick until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
