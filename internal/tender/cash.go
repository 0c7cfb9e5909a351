package tender

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

// CashResolution is the outcome of counting cash against a sale total.
type CashResolution struct {
	Total      decimal.Decimal
	Tendered   decimal.Decimal
	Change     decimal.Decimal
	Sufficient bool
}

// Shortfall returns how much cash is still owed, zero when sufficient.
func (c CashResolution) Shortfall() decimal.Decimal {
	if c.Sufficient {
		return decimal.Zero
	}
	return c.Change.Neg()
}

// ResolveCash computes change for a cash tender. Change is negative when the
// tender does not cover the total.
func ResolveCash(total, tendered decimal.Decimal) (CashResolution, error) {
	if tendered.IsNegative() {
		return CashResolution{}, pkgerrors.New(pkgerrors.CodeValidation, "tendered amount cannot be negative")
	}
	if total.IsNegative() {
		return CashResolution{}, pkgerrors.New(pkgerrors.CodeValidation, "total cannot be negative")
	}
	change := money.Round(tendered.Sub(total))
	return CashResolution{
		Total:      total,
		Tendered:   tendered,
		Change:     change,
		Sufficient: !change.IsNegative(),
	}, nil
}

// RequireSufficient resolves the tender and fails when it does not cover total.
func RequireSufficient(total, tendered decimal.Decimal) (CashResolution, error) {
	res, err := ResolveCash(total, tendered)
	if err != nil {
		return res, err
	}
	if !res.Sufficient {
		return res, pkgerrors.New(pkgerrors.CodeValidation, "tendered cash does not cover the total").WithDetails(map[string]any{
			"total":     money.Format(total),
			"tendered":  money.Format(tendered),
			"shortfall": money.Format(res.Shortfall()),
		})
	}
	return res, nil
}
