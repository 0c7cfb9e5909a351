package terminals

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/internal/cart"
	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/internal/checkout"
	"github.com/angelmondragon/packfinderz-pos/internal/terminals"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

// Money fields are rendered as 2-decimal strings.

type sessionResponse struct {
	ID              string           `json:"id"`
	StoreID         string           `json:"store_id"`
	Category        string           `json:"category,omitempty"`
	Query           string           `json:"q,omitempty"`
	OpenedAt        time.Time        `json:"opened_at"`
	Products        int              `json:"products"`
	LedgerFetchedAt time.Time        `json:"ledger_fetched_at"`
	Checkout        checkoutResponse `json:"checkout"`
}

type lineResponse struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	UnitPrice      string  `json:"unit_price"`
	Quantity       int     `json:"quantity"`
	AvailableStock int     `json:"available_stock"`
	LineDiscount   string  `json:"line_discount"`
	Gross          string  `json:"gross"`
	Net            string  `json:"net"`
	ImageRef       *string `json:"image_ref,omitempty"`
}

type totalsResponse struct {
	Subtotal                  string `json:"subtotal"`
	DiscountAmount            string `json:"discount_amount"`
	Total                     string `json:"total"`
	ItemsCount                int    `json:"items_count"`
	DiscountNeedsRevalidation bool   `json:"discount_needs_revalidation"`
}

type discountResponse struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type snapshotResponse struct {
	IdempotencyKey string           `json:"idempotency_key"`
	Lines          []lineResponse   `json:"lines"`
	Discount       discountResponse `json:"discount"`
	Subtotal       string           `json:"subtotal"`
	DiscountAmount string           `json:"discount_amount"`
	Total          string           `json:"total"`
	ItemsCount     int              `json:"items_count"`
	TakenAt        time.Time        `json:"taken_at"`
}

type paymentResponse struct {
	Method   string  `json:"method"`
	Tendered *string `json:"tendered,omitempty"`
}

type errorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type resultResponse struct {
	ReceiptNumber  string         `json:"receipt_number"`
	SaleID         string         `json:"sale_id,omitempty"`
	Subtotal       string         `json:"subtotal"`
	DiscountAmount string         `json:"discount_amount"`
	Total          string         `json:"total"`
	PaymentMethod  string         `json:"payment_method"`
	Change         *string        `json:"change,omitempty"`
	LineItems      []lineResponse `json:"line_items"`
	CreatedAt      time.Time      `json:"created_at"`
}

type checkoutResponse struct {
	State     string            `json:"state"`
	Lines     []lineResponse    `json:"lines"`
	Totals    totalsResponse    `json:"totals"`
	Discount  discountResponse  `json:"discount"`
	Snapshot  *snapshotResponse `json:"snapshot,omitempty"`
	Payment   *paymentResponse  `json:"payment,omitempty"`
	LastError *errorResponse    `json:"last_error,omitempty"`
	Result    *resultResponse   `json:"result,omitempty"`
}

type productResponse struct {
	ProductID      string  `json:"product_id"`
	Name           string  `json:"name"`
	UnitPrice      string  `json:"unit_price"`
	AvailableStock int     `json:"available_stock"`
	ImageRef       *string `json:"image_ref,omitempty"`
}

type shortfallResponse struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	AvailableStock int    `json:"available_stock"`
	Missing        bool   `json:"missing"`
}

type ledgerRefreshResponse struct {
	Products   int                 `json:"products"`
	FetchedAt  time.Time           `json:"fetched_at"`
	Shortfalls []shortfallResponse `json:"shortfalls"`
	Checkout   checkoutResponse    `json:"checkout"`
}

type attemptResponse struct {
	ID             string    `json:"id"`
	IdempotencyKey string    `json:"idempotency_key"`
	State          string    `json:"state"`
	PaymentMethod  string    `json:"payment_method"`
	Total          string    `json:"total"`
	ErrorCode      *string   `json:"error_code,omitempty"`
	ReceiptNumber  *string   `json:"receipt_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

func formatMoney(d decimal.Decimal) string {
	return money.Format(d)
}

func formatOptional(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := money.Format(*d)
	return &s
}

func newSessionResponse(sess *terminals.Session) sessionResponse {
	ledger := sess.Ledger()
	return sessionResponse{
		ID:              sess.ID,
		StoreID:         sess.Query.StoreID,
		Category:        sess.Query.Category,
		Query:           sess.Query.Search,
		OpenedAt:        sess.OpenedAt,
		Products:        ledger.Len(),
		LedgerFetchedAt: ledger.FetchedAt(),
		Checkout:        newCheckoutResponse(sess.Checkout.Status()),
	}
}

func newLines(lines []cart.Line) []lineResponse {
	out := make([]lineResponse, 0, len(lines))
	for _, l := range lines {
		out = append(out, lineResponse{
			ProductID:      l.ProductID,
			Name:           l.Name,
			UnitPrice:      formatMoney(l.UnitPrice),
			Quantity:       l.Quantity,
			AvailableStock: l.AvailableStock,
			LineDiscount:   formatMoney(l.LineDiscount),
			Gross:          formatMoney(l.Gross()),
			Net:            formatMoney(l.Net()),
			ImageRef:       l.ImageRef,
		})
	}
	return out
}

func newCheckoutResponse(st checkout.Status) checkoutResponse {
	resp := checkoutResponse{
		State: string(st.State),
		Lines: newLines(st.Lines),
		Totals: totalsResponse{
			Subtotal:                  formatMoney(st.Totals.Subtotal),
			DiscountAmount:            formatMoney(st.Totals.DiscountAmount),
			Total:                     formatMoney(st.Totals.Total),
			ItemsCount:                st.Totals.ItemsCount,
			DiscountNeedsRevalidation: st.Totals.DiscountNeedsRevalidation,
		},
		Discount: discountResponse{Type: string(st.Discount.Type), Value: formatMoney(st.Discount.Value)},
	}
	if st.Snapshot != nil {
		snap := newSnapshotResponse(st.Snapshot)
		resp.Snapshot = &snap
	}
	if st.Payment != nil {
		resp.Payment = &paymentResponse{Method: string(st.Payment.Method), Tendered: formatOptional(st.Payment.Tendered)}
	}
	if st.LastError != nil {
		code := pkgerrors.CodeOf(st.LastError)
		msg := st.LastError.Error()
		if typed := pkgerrors.As(st.LastError); typed != nil && typed.Message() != "" {
			msg = typed.Message()
		}
		resp.LastError = &errorResponse{
			Code:      string(code),
			Message:   msg,
			Retryable: pkgerrors.MetadataFor(code).Retryable,
		}
	}
	if st.Result != nil {
		res := newResultResponse(st.Result)
		resp.Result = &res
	}
	return resp
}

func newSnapshotResponse(s *checkout.Snapshot) snapshotResponse {
	return snapshotResponse{
		IdempotencyKey: s.IdempotencyKey,
		Lines:          newLines(s.Lines),
		Discount:       discountResponse{Type: string(s.Discount.Type), Value: formatMoney(s.Discount.Value)},
		Subtotal:       formatMoney(s.Subtotal),
		DiscountAmount: formatMoney(s.DiscountAmount),
		Total:          formatMoney(s.Total),
		ItemsCount:     s.ItemsCount,
		TakenAt:        s.TakenAt,
	}
}

func newResultResponse(r *checkout.Result) resultResponse {
	return resultResponse{
		ReceiptNumber:  r.ReceiptNumber,
		SaleID:         r.SaleID,
		Subtotal:       formatMoney(r.Subtotal),
		DiscountAmount: formatMoney(r.DiscountAmount),
		Total:          formatMoney(r.Total),
		PaymentMethod:  r.PaymentMethod,
		Change:         formatOptional(r.Change),
		LineItems:      newLines(r.LineItems),
		CreatedAt:      r.CreatedAt,
	}
}

func newProducts(products []catalog.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, productResponse{
			ProductID:      p.ProductID,
			Name:           p.Name,
			UnitPrice:      formatMoney(p.UnitPrice),
			AvailableStock: p.AvailableStock,
			ImageRef:       p.ImageRef,
		})
	}
	return out
}

func newLedgerRefreshResponse(ledger *catalog.Ledger, shortfalls []cart.Shortfall, st checkout.Status) ledgerRefreshResponse {
	out := ledgerRefreshResponse{
		Products:   ledger.Len(),
		FetchedAt:  ledger.FetchedAt(),
		Shortfalls: make([]shortfallResponse, 0, len(shortfalls)),
		Checkout:   newCheckoutResponse(st),
	}
	for _, s := range shortfalls {
		out.Shortfalls = append(out.Shortfalls, shortfallResponse{
			ProductID:      s.ProductID,
			Quantity:       s.Quantity,
			AvailableStock: s.AvailableStock,
			Missing:        s.Missing,
		})
	}
	return out
}

func newAttempts(attempts []checkout.Attempt) []attemptResponse {
	out := make([]attemptResponse, 0, len(attempts))
	for _, a := range attempts {
		out = append(out, attemptResponse{
			ID:             a.ID,
			IdempotencyKey: a.IdempotencyKey,
			State:          string(a.State),
			PaymentMethod:  a.PaymentMethod,
			Total:          formatMoney(a.Total),
			ErrorCode:      a.ErrorCode,
			ReceiptNumber:  a.ReceiptNumber,
			CreatedAt:      a.CreatedAt,
		})
	}
	return out
}
