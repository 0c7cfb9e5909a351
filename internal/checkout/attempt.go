package checkout

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-pos/pkg/db"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
)

// Attempt is one journaled submission of a checkout snapshot.
type Attempt struct {
	ID             string              `gorm:"primaryKey;size:36"`
	SessionID      string              `gorm:"size:36;not null"`
	StoreID        string              `gorm:"size:64;not null"`
	IdempotencyKey string              `gorm:"size:36;not null"`
	State          enums.CheckoutState `gorm:"size:32;not null"`
	PaymentMethod  string              `gorm:"size:32;not null"`
	Subtotal       decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	DiscountAmount decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Total          decimal.Decimal     `gorm:"type:numeric(12,2);not null"`
	Tendered       decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	ChangeAmount   decimal.NullDecimal `gorm:"type:numeric(12,2)"`
	ErrorCode      *string             `gorm:"size:64"`
	ErrorMessage   *string
	ReceiptNumber  *string `gorm:"size:64"`
	SaleID         *string `gorm:"size:64"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (Attempt) TableName() string { return "checkout_attempts" }

// Outcome is the final state written for an attempt.
type Outcome struct {
	State         enums.CheckoutState
	ErrorCode     string
	ErrorMessage  string
	ReceiptNumber string
	SaleID        string
	ChangeAmount  *decimal.Decimal
}

// AttemptRepository journals submissions for audit.
type AttemptRepository interface {
	Start(ctx context.Context, attempt *Attempt) error
	Finish(ctx context.Context, id string, outcome Outcome) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]Attempt, error)
}

type attemptRepository struct {
	db *gorm.DB
}

// NewAttemptRepository returns a gorm-backed journal.
func NewAttemptRepository(conn *gorm.DB) AttemptRepository {
	return &attemptRepository{db: conn}
}

func (r *attemptRepository) Start(ctx context.Context, attempt *Attempt) error {
	if attempt == nil || attempt.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "attempt id is required")
	}
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert checkout attempt")
	}
	return nil
}

func (r *attemptRepository) Finish(ctx context.Context, id string, outcome Outcome) error {
	updates := map[string]any{
		"state":      outcome.State,
		"updated_at": time.Now().UTC(),
	}
	if outcome.ErrorCode != "" {
		updates["error_code"] = outcome.ErrorCode
	}
	if outcome.ErrorMessage != "" {
		updates["error_message"] = outcome.ErrorMessage
	}
	if outcome.ReceiptNumber != "" {
		updates["receipt_number"] = outcome.ReceiptNumber
	}
	if outcome.SaleID != "" {
		updates["sale_id"] = outcome.SaleID
	}
	if outcome.ChangeAmount != nil {
		updates["change_amount"] = decimal.NewNullDecimal(*outcome.ChangeAmount)
	}

	res := r.db.WithContext(ctx).Model(&Attempt{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		// receipt_number is the only unique column an update can touch
		if db.IsUniqueViolation(res.Error, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, res.Error, "receipt already journaled").
				WithDetails(map[string]any{"receipt_number": outcome.ReceiptNumber})
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "update checkout attempt")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "checkout attempt not found")
	}
	return nil
}

func (r *attemptRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]Attempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var attempts []Attempt
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list checkout attempts")
	}
	return attempts, nil
}
