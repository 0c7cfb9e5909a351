// Package checkout drives one terminal's checkout lifecycle:
// idle -> reviewing -> awaiting_payment -> submitting -> completed | failed,
// with cancel available outside of submission.
package checkout

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/internal/cart"
	"github.com/angelmondragon/packfinderz-pos/internal/discount"
	"github.com/angelmondragon/packfinderz-pos/internal/sales"
	"github.com/angelmondragon/packfinderz-pos/internal/tender"
	"github.com/angelmondragon/packfinderz-pos/pkg/auth"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/logger"
	"github.com/angelmondragon/packfinderz-pos/pkg/metrics"
)

// Deps are the collaborators of an Orchestrator. Journal, Metrics and
// Logger are optional.
type Deps struct {
	Submitter   sales.Submitter
	Credentials auth.Source
	Journal     AttemptRepository
	Metrics     *metrics.CheckoutMetrics
	Logger      *logger.Logger
	Now         func() time.Time
	NewKey      func() string
}

// Orchestrator owns a cart and serialises every mutation and transition
// behind one mutex. The sales call runs outside the lock with the state
// parked in submitting.
type Orchestrator struct {
	mu sync.Mutex

	sessionID string
	storeID   string
	cart      *cart.Cart
	state     enums.CheckoutState
	snapshot  *Snapshot
	payment   *PaymentSelection
	lastErr   error
	result    *Result
	// set when stock was re-synced after a stock conflict
	resynced bool
	closed   bool

	deps Deps
}

// Status is a consistent read of the orchestrator.
type Status struct {
	SessionID string
	StoreID   string
	State     enums.CheckoutState
	Lines     []cart.Line
	Totals    cart.Totals
	Discount  discount.Discount
	Snapshot  *Snapshot
	Payment   *PaymentSelection
	LastError error
	Result    *Result
}

func New(sessionID, storeID string, deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewKey == nil {
		deps.NewKey = func() string { return uuid.NewString() }
	}
	if deps.Credentials == nil {
		deps.Credentials = auth.ContextSource{Now: deps.Now}
	}
	return &Orchestrator{
		sessionID: sessionID,
		storeID:   storeID,
		cart:      cart.New(),
		state:     enums.CheckoutStateIdle,
		deps:      deps,
	}
}

// Mutate runs fn against the cart. While a submission is in flight the
// mutation is rejected with STATE_CONFLICT.
func (o *Orchestrator) Mutate(fn func(c *cart.Cart) error) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return errClosed()
	}
	if o.state == enums.CheckoutStateSubmitting {
		o.deps.Metrics.IncRejection(string(pkgerrors.CodeStateConflict))
		return errInFlight()
	}
	if err := fn(o.cart); err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStockLimit) {
			o.deps.Metrics.IncRejection(string(pkgerrors.CodeStockLimit))
		}
		return err
	}
	return nil
}

// SyncStock refreshes cart stock snapshots from view and reports shortfalls.
func (o *Orchestrator) SyncStock(view cart.StockView) ([]cart.Shortfall, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, errClosed()
	}
	if o.state == enums.CheckoutStateSubmitting {
		return nil, errInFlight()
	}
	shortfalls := o.cart.SyncStock(view)
	o.resynced = true
	return shortfalls, nil
}

// Status returns a copy of the current state.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	st := Status{
		SessionID: o.sessionID,
		StoreID:   o.storeID,
		State:     o.state,
		Lines:     o.cart.Lines(),
		Totals:    o.cart.Totals(),
		Discount:  o.cart.Discount(),
		Snapshot:  o.snapshot.clone(),
		LastError: o.lastErr,
	}
	if o.payment != nil {
		p := *o.payment
		st.Payment = &p
	}
	if o.result != nil {
		r := *o.result
		st.Result = &r
	}
	return st
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() enums.CheckoutState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Close parks the orchestrator for good so no later call can start a
// submission. It fails with STATE_CONFLICT while a submission is in flight.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == enums.CheckoutStateSubmitting {
		return errInFlight()
	}
	o.closed = true
	return nil
}

// Review moves to reviewing and returns the live totals. A finished attempt
// (completed or cancelled) is reset first so a new sale can start.
func (o *Orchestrator) Review(ctx context.Context) (cart.Totals, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return cart.Totals{}, errClosed()
	}
	if o.state.IsTerminal() {
		o.resetLocked()
	}
	if !canTransition(o.state, enums.CheckoutStateReviewing) {
		return cart.Totals{}, stateConflict(o.state, enums.CheckoutStateReviewing, "checkout cannot be reviewed now")
	}
	if o.cart.IsEmpty() {
		return cart.Totals{}, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	o.setStateLocked(ctx, enums.CheckoutStateReviewing)
	return o.cart.Totals(), nil
}

// Begin re-validates the order discount and freezes the checkout snapshot.
func (o *Orchestrator) Begin(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, errClosed()
	}
	if o.state != enums.CheckoutStateReviewing {
		return nil, stateConflict(o.state, enums.CheckoutStateAwaitingPayment, "checkout must be reviewed first")
	}
	if o.cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	amount, err := o.cart.RevalidateDiscount()
	if err != nil {
		return nil, err
	}
	o.snapshot = newSnapshot(o.cart, o.storeID, o.deps.NewKey(), amount, o.deps.Now().UTC())
	o.payment = nil
	o.setStateLocked(ctx, enums.CheckoutStateAwaitingPayment)
	return o.snapshot.clone(), nil
}

// Submit sends the frozen snapshot with payment. A nil payment reuses the
// selection retained from the previous attempt.
func (o *Orchestrator) Submit(ctx context.Context, payment *PaymentSelection) (*Result, error) {
	o.mu.Lock()

	if o.closed {
		o.mu.Unlock()
		return nil, errClosed()
	}
	if o.state == enums.CheckoutStateSubmitting {
		o.mu.Unlock()
		return nil, errInFlight()
	}
	if o.state != enums.CheckoutStateAwaitingPayment || o.snapshot == nil {
		from := o.state
		o.mu.Unlock()
		return nil, stateConflict(from, enums.CheckoutStateSubmitting, "checkout is not awaiting payment")
	}

	selected, err := o.selectPaymentLocked(payment)
	if err != nil {
		o.mu.Unlock()
		return nil, err
	}

	var change *decimal.Decimal
	if selected.Method.RequiresTender() {
		res, err := tender.RequireSufficient(o.snapshot.Total, *selected.Tendered)
		if err != nil {
			o.mu.Unlock()
			return nil, err
		}
		change = &res.Change
	}
	o.payment = &selected

	snap := o.snapshot.clone()
	attempt := o.newAttempt(snap, selected)
	ctx = o.logContext(ctx, attempt)

	bearer, err := o.deps.Credentials.Bearer(ctx)
	if err != nil {
		o.failLocked(ctx, err)
		o.mu.Unlock()
		o.journalStart(ctx, attempt)
		o.journalFailure(ctx, attempt.ID, err)
		return nil, err
	}

	o.setStateLocked(ctx, enums.CheckoutStateSubmitting)
	o.mu.Unlock()

	o.journalStart(ctx, attempt)
	started := o.deps.Now()
	resp, err := o.deps.Submitter.Submit(ctx, bearer, snap.IdempotencyKey, snap.saleRequest(selected))
	elapsed := o.deps.Now().Sub(started)

	o.mu.Lock()
	if err != nil {
		o.failLocked(ctx, err)
		o.mu.Unlock()
		o.deps.Metrics.ObserveSubmission(metrics.OutcomeFailed, string(pkgerrors.CodeOf(err)), elapsed)
		o.journalFailure(ctx, attempt.ID, err)
		return nil, err
	}

	result := &Result{
		ReceiptNumber:  resp.ReceiptNumber,
		SaleID:         resp.Sale.ID,
		Subtotal:       snap.Subtotal,
		DiscountAmount: snap.DiscountAmount,
		Total:          snap.Total,
		PaymentMethod:  string(selected.Method),
		Change:         change,
		LineItems:      snap.Lines,
		CreatedAt:      resp.Sale.CreatedAt,
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = o.deps.Now().UTC()
	}
	o.result = result
	o.lastErr = nil
	o.cart.Clear()
	o.setStateLocked(ctx, enums.CheckoutStateCompleted)
	o.mu.Unlock()

	o.deps.Metrics.ObserveSubmission(metrics.OutcomeCompleted, "", elapsed)
	o.journalFinish(ctx, attempt.ID, Outcome{
		State:         enums.CheckoutStateCompleted,
		ReceiptNumber: result.ReceiptNumber,
		SaleID:        result.SaleID,
		ChangeAmount:  change,
	})

	out := *result
	return &out, nil
}

// Retry moves a failed attempt back to awaiting_payment. After a stock
// conflict the snapshot is rebuilt from the re-synced cart with a new
// idempotency key; otherwise the same snapshot and key are reused.
func (o *Orchestrator) Retry(ctx context.Context) (*Snapshot, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return nil, errClosed()
	}
	if o.state != enums.CheckoutStateFailed {
		return nil, stateConflict(o.state, enums.CheckoutStateAwaitingPayment, "only failed checkouts can be retried")
	}

	switch pkgerrors.CodeOf(o.lastErr) {
	case pkgerrors.CodeAuthExpired:
		if _, err := o.deps.Credentials.Bearer(ctx); err != nil {
			return nil, err
		}
	case pkgerrors.CodeStockConflict:
		if !o.resynced {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "re-sync stock before retrying")
		}
		snap, err := o.rebuildSnapshotLocked()
		if err != nil {
			return nil, err
		}
		o.snapshot = snap
	}

	o.lastErr = nil
	o.setStateLocked(ctx, enums.CheckoutStateAwaitingPayment)
	return o.snapshot.clone(), nil
}

// Cancel abandons the attempt. The cart is left untouched.
func (o *Orchestrator) Cancel(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == enums.CheckoutStateSubmitting {
		return errInFlight()
	}
	if !canTransition(o.state, enums.CheckoutStateCancelled) {
		return stateConflict(o.state, enums.CheckoutStateCancelled, "checkout cannot be cancelled now")
	}
	o.snapshot = nil
	o.payment = nil
	o.lastErr = nil
	o.setStateLocked(ctx, enums.CheckoutStateCancelled)
	return nil
}

func (o *Orchestrator) rebuildSnapshotLocked() (*Snapshot, error) {
	if o.cart.IsEmpty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	for _, line := range o.cart.Lines() {
		if line.Quantity > line.AvailableStock {
			return nil, pkgerrors.New(pkgerrors.CodeStockLimit, "quantity exceeds available stock").
				WithDetails(map[string]any{
					"product_id":         line.ProductID,
					"available_stock":    line.AvailableStock,
					"requested_quantity": line.Quantity,
				})
		}
	}
	amount, err := o.cart.RevalidateDiscount()
	if err != nil {
		return nil, err
	}
	return newSnapshot(o.cart, o.storeID, o.deps.NewKey(), amount, o.deps.Now().UTC()), nil
}

func (o *Orchestrator) selectPaymentLocked(payment *PaymentSelection) (PaymentSelection, error) {
	if payment == nil {
		if o.payment == nil {
			return PaymentSelection{}, pkgerrors.New(pkgerrors.CodeValidation, "payment selection is required")
		}
		return *o.payment, nil
	}
	if err := payment.validate(); err != nil {
		return PaymentSelection{}, err
	}
	return payment.normalized(), nil
}

func (o *Orchestrator) failLocked(ctx context.Context, err error) {
	o.lastErr = err
	if pkgerrors.IsCode(err, pkgerrors.CodeStockConflict) {
		o.resynced = false
	}
	o.setStateLocked(ctx, enums.CheckoutStateFailed)
}

func (o *Orchestrator) resetLocked() {
	o.snapshot = nil
	o.payment = nil
	o.lastErr = nil
	o.result = nil
	o.resynced = false
	o.state = enums.CheckoutStateIdle
}

func (o *Orchestrator) setStateLocked(ctx context.Context, to enums.CheckoutState) {
	from := o.state
	o.state = to
	if o.deps.Logger == nil || from == to {
		return
	}
	ctx = o.deps.Logger.WithFields(ctx, map[string]any{"from": string(from), "to": string(to)})
	switch to {
	case enums.CheckoutStateFailed:
		ctx = o.deps.Logger.WithField(ctx, "error_code", string(pkgerrors.CodeOf(o.lastErr)))
		o.deps.Logger.Warn(ctx, "checkout."+string(to))
	default:
		o.deps.Logger.Info(ctx, "checkout."+string(to))
	}
}

func (o *Orchestrator) logContext(ctx context.Context, attempt *Attempt) context.Context {
	if o.deps.Logger == nil {
		return ctx
	}
	ctx = o.deps.Logger.WithSessionID(ctx, o.sessionID)
	ctx = o.deps.Logger.WithStoreID(ctx, o.storeID)
	return o.deps.Logger.WithAttempt(ctx, attempt.ID, attempt.IdempotencyKey)
}

func (o *Orchestrator) newAttempt(snap *Snapshot, p PaymentSelection) *Attempt {
	now := o.deps.Now().UTC()
	a := &Attempt{
		ID:             uuid.NewString(),
		SessionID:      o.sessionID,
		StoreID:        o.storeID,
		IdempotencyKey: snap.IdempotencyKey,
		State:          enums.CheckoutStateSubmitting,
		PaymentMethod:  string(p.Method),
		Subtotal:       snap.Subtotal,
		DiscountAmount: snap.DiscountAmount,
		Total:          snap.Total,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if p.Tendered != nil {
		a.Tendered = decimal.NewNullDecimal(*p.Tendered)
	}
	return a
}

func (o *Orchestrator) journalStart(ctx context.Context, attempt *Attempt) {
	if o.deps.Journal == nil {
		return
	}
	if err := o.deps.Journal.Start(ctx, attempt); err != nil && o.deps.Logger != nil {
		o.deps.Logger.Error(ctx, "journal checkout attempt", err)
	}
}

func (o *Orchestrator) journalFailure(ctx context.Context, id string, cause error) {
	outcome := Outcome{State: enums.CheckoutStateFailed, ErrorCode: string(pkgerrors.CodeOf(cause))}
	if cause != nil {
		outcome.ErrorMessage = cause.Error()
	}
	o.journalFinish(ctx, id, outcome)
}

func (o *Orchestrator) journalFinish(ctx context.Context, id string, outcome Outcome) {
	if o.deps.Journal == nil {
		return
	}
	err := o.deps.Journal.Finish(ctx, id, outcome)
	if err == nil || o.deps.Logger == nil {
		return
	}
	if pkgerrors.IsCode(err, pkgerrors.CodeConflict) {
		o.deps.Logger.Info(o.deps.Logger.WithField(ctx, "receipt_number", outcome.ReceiptNumber), "receipt already journaled by an earlier attempt")
		return
	}
	o.deps.Logger.Error(ctx, "journal checkout outcome", err)
}
