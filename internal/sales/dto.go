package sales

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

// Amount serialises a currency value as a two-decimal JSON number.
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(money.Format(decimal.Decimal(a))), nil
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(b, &d); err != nil {
		return err
	}
	*a = Amount(d)
	return nil
}

func (a Amount) Decimal() decimal.Decimal {
	return decimal.Decimal(a)
}

// SaleRequest is the payload for POST /sales.
type SaleRequest struct {
	StoreID        string         `json:"store_id"`
	LineItems      []SaleLineItem `json:"line_items"`
	PaymentMethod  string         `json:"payment_method"`
	Subtotal       Amount         `json:"subtotal"`
	DiscountAmount Amount         `json:"discount_amount"`
	DiscountType   string         `json:"discount_type"`
	TotalAmount    Amount         `json:"total_amount"`
	Customer       *Customer      `json:"customer,omitempty"`
}

type SaleLineItem struct {
	ProductID          string `json:"product_id"`
	Quantity           int    `json:"quantity"`
	UnitPrice          Amount `json:"unit_price"`
	LineDiscountAmount Amount `json:"line_discount_amount"`
}

type Customer struct {
	Name  *string `json:"name,omitempty"`
	Phone *string `json:"phone,omitempty"`
	Notes *string `json:"notes,omitempty"`
}

// IsEmpty reports whether no customer field is set.
func (c *Customer) IsEmpty() bool {
	return c == nil || (c.Name == nil && c.Phone == nil && c.Notes == nil)
}

// SaleResponse is the success body of POST /sales.
type SaleResponse struct {
	ReceiptNumber string `json:"receipt_number"`
	Sale          Sale   `json:"sale"`
}

type Sale struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Total     *Amount   `json:"total_amount,omitempty"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Remote error codes.
const (
	remoteStockConflict = "STOCK_CONFLICT"
	remoteValidation    = "VALIDATION_ERROR"
	remoteTokenExpired  = "TOKEN_EXPIRED"
	remoteInvalidToken  = "INVALID_TOKEN"
)
