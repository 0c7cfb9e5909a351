package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/packfinderz-pos/internal/catalog"
	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

func product(id, price string, stock int) catalog.Product {
	return catalog.Product{ProductID: id, Name: "item " + id, UnitPrice: money.MustParse(price), AvailableStock: stock}
}

func cartWith(t *testing.T, p catalog.Product, qty int) *Cart {
	t.Helper()
	c := New()
	for i := 0; i < qty; i++ {
		require.NoError(t, c.AddItem(p))
	}
	return c
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, money.MustParse(want).Equal(got), "expected %s, got %s", want, got.String())
}

func TestScenarioSubtotalWithoutDiscount(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 4), 3)

	totals := c.Totals()
	requireAmount(t, "30.00", totals.Subtotal)
	requireAmount(t, "30.00", totals.Total)
	requireAmount(t, "0", totals.DiscountAmount)
	assert.Equal(t, 3, totals.ItemsCount)
	assert.False(t, totals.DiscountNeedsRevalidation)
}

func TestScenarioPercentageDiscount(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 4), 3)
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypePercentage, decimal.NewFromInt(10)))

	totals := c.Totals()
	requireAmount(t, "3.00", totals.DiscountAmount)
	requireAmount(t, "27.00", totals.Total)
}

func TestScenarioUpdateQuantityBeyondStock(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 4), 3)

	err := c.UpdateQuantity("p", 5)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockLimit))

	line, ok := c.Line("p")
	require.True(t, ok)
	assert.Equal(t, 3, line.Quantity)
}

func TestAddItemNeverExceedsStock(t *testing.T) {
	for stock := 1; stock <= 5; stock++ {
		p := product("p", "1.25", stock)
		c := cartWith(t, p, stock)

		before := c.Lines()
		beforeTotals := c.Totals()

		err := c.AddItem(p)
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockLimit))
		assert.Equal(t, before, c.Lines(), "cart must be unchanged after a rejected add")
		assert.Equal(t, beforeTotals, c.Totals())

		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, map[string]any{
			"product_id":         "p",
			"available_stock":    stock,
			"requested_quantity": stock + 1,
		}, typed.Details())
	}
}

func TestAddItemZeroStock(t *testing.T) {
	c := New()
	err := c.AddItem(product("p", "2.00", 0))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStockLimit))
	assert.True(t, c.IsEmpty())
}

func TestAddItemKeepsFirstPriceAndRefreshesStock(t *testing.T) {
	c := New()
	require.NoError(t, c.AddItem(product("p", "2.00", 1)))
	require.NoError(t, c.AddItem(product("p", "9.99", 5)))

	line, _ := c.Line("p")
	requireAmount(t, "2.00", line.UnitPrice)
	assert.Equal(t, 2, line.Quantity)
	assert.Equal(t, 5, line.AvailableStock)
}

func TestAddItemValidation(t *testing.T) {
	c := New()
	assert.True(t, pkgerrors.IsCode(c.AddItem(catalog.Product{AvailableStock: 3}), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(c.AddItem(product("p", "-1", 3)), pkgerrors.CodeValidation))
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	for qty := 1; qty <= 3; qty++ {
		c := cartWith(t, product("p", "4.00", 3), qty)
		require.NoError(t, c.AddItem(product("q", "1.00", 1)))

		require.NoError(t, c.UpdateQuantity("p", 0))
		_, ok := c.Line("p")
		assert.False(t, ok)
		assert.Equal(t, 1, c.Len())
	}
}

func TestUpdateQuantityErrors(t *testing.T) {
	c := cartWith(t, product("p", "4.00", 3), 1)

	assert.True(t, pkgerrors.IsCode(c.UpdateQuantity("p", -1), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(c.UpdateQuantity("missing", 1), pkgerrors.CodeNotFound))
	assert.True(t, pkgerrors.IsCode(c.UpdateQuantity("missing", 0), pkgerrors.CodeNotFound))

	require.NoError(t, c.UpdateQuantity("p", 3))
	line, _ := c.Line("p")
	assert.Equal(t, 3, line.Quantity)
}

func TestUpdateQuantityRejectsLineDiscountAboveGross(t *testing.T) {
	c := cartWith(t, product("p", "5.00", 3), 3)
	require.NoError(t, c.SetLineDiscount("p", money.MustParse("12.00")))

	err := c.UpdateQuantity("p", 2)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	line, _ := c.Line("p")
	assert.Equal(t, 3, line.Quantity)
	requireAmount(t, "12.00", line.LineDiscount)
}

func TestSetLineDiscount(t *testing.T) {
	c := cartWith(t, product("p", "5.00", 3), 2)

	assert.True(t, pkgerrors.IsCode(c.SetLineDiscount("p", money.MustParse("10.01")), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(c.SetLineDiscount("p", money.MustParse("-0.01")), pkgerrors.CodeValidation))
	assert.True(t, pkgerrors.IsCode(c.SetLineDiscount("x", decimal.Zero), pkgerrors.CodeNotFound))

	require.NoError(t, c.SetLineDiscount("p", money.MustParse("1.50")))
	totals := c.Totals()
	requireAmount(t, "8.50", totals.Subtotal)
	requireAmount(t, "8.50", totals.Total)
}

func TestRemoveItemIsUnconditional(t *testing.T) {
	c := cartWith(t, product("p", "1.00", 1), 1)
	c.RemoveItem("absent")
	assert.Equal(t, 1, c.Len())
	c.RemoveItem("p")
	assert.True(t, c.IsEmpty())
	c.RemoveItem("p")
}

func TestClearResetsDiscount(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 2), 2)
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypeFixed, money.MustParse("5")))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.True(t, c.Discount().IsNone())
	totals := c.Totals()
	requireAmount(t, "0", totals.Total)
}

func TestPercentageBounds(t *testing.T) {
	c := cartWith(t, product("p", "19.99", 5), 3)

	for _, v := range []string{"100.01", "101", "250", "-1"} {
		err := c.ApplyDiscount(enums.DiscountTypePercentage, money.MustParse(v))
		assert.Truef(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "value %s should be rejected", v)
		assert.True(t, c.Discount().IsNone(), "rejected discount must not be stored")
	}

	require.NoError(t, c.ApplyDiscount(enums.DiscountTypePercentage, decimal.NewFromInt(100)))
	totals := c.Totals()
	assert.True(t, totals.DiscountAmount.Equal(totals.Subtotal))
	assert.True(t, totals.Total.IsZero())
}

func TestFixedDiscountAboveSubtotalRejected(t *testing.T) {
	c := cartWith(t, product("p", "3.00", 5), 2)
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypeFixed, money.MustParse("2")))

	err := c.ApplyDiscount(enums.DiscountTypeFixed, money.MustParse("6.01"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	stored := c.Discount()
	assert.Equal(t, enums.DiscountTypeFixed, stored.Type)
	requireAmount(t, "2", stored.Value)
}

func TestTotalNeverNegativeAfterShrink(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 5), 3)
	require.NoError(t, c.AddItem(product("q", "4.00", 5)))
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypeFixed, money.MustParse("30")))

	steps := []func(){
		func() { _ = c.UpdateQuantity("p", 2) },
		func() { _ = c.UpdateQuantity("p", 1) },
		func() { c.RemoveItem("q") },
		func() { _ = c.UpdateQuantity("p", 0) },
	}
	for _, step := range steps {
		step()
		totals := c.Totals()
		assert.True(t, totals.Total.GreaterThanOrEqual(decimal.Zero))
		assert.True(t, totals.Total.Equal(totals.Subtotal.Sub(totals.DiscountAmount)))
		assert.True(t, totals.DiscountAmount.LessThanOrEqual(totals.Subtotal))
		assert.True(t, totals.DiscountNeedsRevalidation)
	}
}

func TestRevalidateDiscount(t *testing.T) {
	c := cartWith(t, product("p", "10.00", 5), 3)
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypeFixed, money.MustParse("25")))
	require.NoError(t, c.UpdateQuantity("p", 2))

	_, err := c.RevalidateDiscount()
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.True(t, c.Totals().DiscountNeedsRevalidation)

	require.NoError(t, c.UpdateQuantity("p", 3))
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypePercentage, decimal.NewFromInt(10)))
	require.NoError(t, c.UpdateQuantity("p", 4))
	amount, err := c.RevalidateDiscount()
	require.NoError(t, err)
	requireAmount(t, "4.00", amount)
	assert.False(t, c.Totals().DiscountNeedsRevalidation)
}

func TestPercentageRoundsToCent(t *testing.T) {
	c := cartWith(t, product("p", "3.33", 5), 1)
	require.NoError(t, c.ApplyDiscount(enums.DiscountTypePercentage, money.MustParse("15")))

	totals := c.Totals()
	requireAmount(t, "0.50", totals.DiscountAmount)
	requireAmount(t, "2.83", totals.Total)
}

type ledgerView map[string]catalog.Product

func (v ledgerView) Lookup(id string) (catalog.Product, bool) {
	p, ok := v[id]
	return p, ok
}

func TestSyncStockReportsShortfallsWithoutClamping(t *testing.T) {
	c := cartWith(t, product("a", "1.00", 5), 3)
	require.NoError(t, c.AddItem(product("b", "2.00", 2)))
	require.NoError(t, c.AddItem(product("c", "3.00", 2)))

	shortfalls := c.SyncStock(ledgerView{
		"a": product("a", "1.00", 2),
		"b": product("b", "2.00", 10),
	})

	assert.Equal(t, []Shortfall{
		{ProductID: "a", Quantity: 3, AvailableStock: 2},
		{ProductID: "c", Quantity: 1, Missing: true},
	}, shortfalls)

	a, _ := c.Line("a")
	assert.Equal(t, 3, a.Quantity)
	assert.Equal(t, 2, a.AvailableStock)
	b, _ := c.Line("b")
	assert.Equal(t, 10, b.AvailableStock)
}

func TestLinesIsDefensiveCopyInInsertionOrder(t *testing.T) {
	c := New()
	for _, id := range []string{"z", "a", "m"} {
		require.NoError(t, c.AddItem(product(id, "1.00", 1)))
	}
	lines := c.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, "z", lines[0].ProductID)
	assert.Equal(t, "a", lines[1].ProductID)
	assert.Equal(t, "m", lines[2].ProductID)

	lines[0].Quantity = 99
	z, _ := c.Line("z")
	assert.Equal(t, 1, z.Quantity)
}
