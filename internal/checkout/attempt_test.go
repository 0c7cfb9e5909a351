package checkout

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/migrate"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

func newJournalDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, migrate.Up(context.Background(), sqlDB, migrate.Dialect("sqlite")))
	return conn
}

func sampleAttempt(id, session string, created time.Time) *Attempt {
	return &Attempt{
		ID:             id,
		SessionID:      session,
		StoreID:        "store-1",
		IdempotencyKey: "key-" + id,
		State:          enums.CheckoutStateSubmitting,
		PaymentMethod:  "cash",
		Subtotal:       money.MustParse("30.00"),
		DiscountAmount: money.MustParse("3.00"),
		Total:          money.MustParse("27.00"),
		Tendered:       decimal.NewNullDecimal(money.MustParse("30.00")),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
}

func TestAttemptRepositoryLifecycle(t *testing.T) {
	repo := NewAttemptRepository(newJournalDB(t))
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Start(ctx, sampleAttempt("a1", "s1", base)))
	require.NoError(t, repo.Start(ctx, sampleAttempt("a2", "s1", base.Add(time.Minute))))
	require.NoError(t, repo.Start(ctx, sampleAttempt("a3", "other", base)))

	change := money.MustParse("3.00")
	require.NoError(t, repo.Finish(ctx, "a1", Outcome{State: enums.CheckoutStateFailed, ErrorCode: "STOCK_CONFLICT", ErrorMessage: "out"}))
	require.NoError(t, repo.Finish(ctx, "a2", Outcome{State: enums.CheckoutStateCompleted, ReceiptNumber: "R-1", SaleID: "sale-1", ChangeAmount: &change}))

	attempts, err := repo.ListBySession(ctx, "s1", 10)
	require.NoError(t, err)
	require.Len(t, attempts, 2)
	assert.Equal(t, "a2", attempts[0].ID, "newest first")
	assert.Equal(t, enums.CheckoutStateCompleted, attempts[0].State)
	require.NotNil(t, attempts[0].ReceiptNumber)
	assert.Equal(t, "R-1", *attempts[0].ReceiptNumber)
	assert.True(t, attempts[0].ChangeAmount.Valid)
	assert.True(t, attempts[0].ChangeAmount.Decimal.Equal(change))
	assert.True(t, attempts[0].Total.Equal(money.MustParse("27")))

	assert.Equal(t, enums.CheckoutStateFailed, attempts[1].State)
	require.NotNil(t, attempts[1].ErrorCode)
	assert.Equal(t, "STOCK_CONFLICT", *attempts[1].ErrorCode)
}

func TestAttemptRepositoryDuplicateReceipt(t *testing.T) {
	repo := NewAttemptRepository(newJournalDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, repo.Start(ctx, sampleAttempt("a1", "s1", now)))
	require.NoError(t, repo.Start(ctx, sampleAttempt("a2", "s1", now)))
	require.NoError(t, repo.Finish(ctx, "a1", Outcome{State: enums.CheckoutStateCompleted, ReceiptNumber: "R-7"}))

	err := repo.Finish(ctx, "a2", Outcome{State: enums.CheckoutStateCompleted, ReceiptNumber: "R-7"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))
}

func TestAttemptRepositoryErrors(t *testing.T) {
	repo := NewAttemptRepository(newJournalDB(t))
	ctx := context.Background()

	assert.True(t, pkgerrors.IsCode(repo.Start(ctx, &Attempt{}), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(repo.Finish(ctx, "missing", Outcome{State: enums.CheckoutStateFailed}), pkgerrors.CodeNotFound))
}
