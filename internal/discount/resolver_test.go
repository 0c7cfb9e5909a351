package discount

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/packfinderz-pos/pkg/enums"
	pkgerrors "github.com/angelmondragon/packfinderz-pos/pkg/errors"
	"github.com/angelmondragon/packfinderz-pos/pkg/money"
)

func TestApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		subtotal string
		kind     enums.DiscountType
		value    string
		want     string
		wantErr  bool
	}{
		{name: "percentage ten", subtotal: "30.00", kind: enums.DiscountTypePercentage, value: "10", want: "3.00"},
		{name: "percentage full", subtotal: "30.00", kind: enums.DiscountTypePercentage, value: "100", want: "30.00"},
		{name: "percentage zero", subtotal: "30.00", kind: enums.DiscountTypePercentage, value: "0", want: "0.00"},
		{name: "percentage rounds to cent", subtotal: "10.01", kind: enums.DiscountTypePercentage, value: "15", want: "1.50"},
		{name: "percentage above hundred", subtotal: "30.00", kind: enums.DiscountTypePercentage, value: "100.01", wantErr: true},
		{name: "percentage negative", subtotal: "30.00", kind: enums.DiscountTypePercentage, value: "-1", wantErr: true},
		{name: "fixed within subtotal", subtotal: "30.00", kind: enums.DiscountTypeFixed, value: "5.555", want: "5.56"},
		{name: "fixed equal subtotal", subtotal: "30.00", kind: enums.DiscountTypeFixed, value: "30", want: "30.00"},
		{name: "fixed above subtotal", subtotal: "30.00", kind: enums.DiscountTypeFixed, value: "30.01", wantErr: true},
		{name: "fixed negative", subtotal: "30.00", kind: enums.DiscountTypeFixed, value: "-0.01", wantErr: true},
		{name: "none", subtotal: "30.00", kind: enums.DiscountTypeNone, value: "99", want: "0"},
		{name: "unknown type", subtotal: "30.00", kind: enums.DiscountType("bogo"), value: "1", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Apply(money.MustParse(tt.subtotal), tt.kind, money.MustParse(tt.value))
			if tt.wantErr {
				if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(money.MustParse(tt.want)) {
				t.Fatalf("expected %s got %s", tt.want, got)
			}
		})
	}
}

func TestPercentageHundredYieldsZeroTotal(t *testing.T) {
	t.Parallel()

	subtotal := money.MustParse("47.38")
	amount, err := Apply(subtotal, enums.DiscountTypePercentage, decimal.NewFromInt(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(subtotal) {
		t.Fatalf("expected discount to equal subtotal, got %s", amount)
	}
	if total := subtotal.Sub(amount); !total.IsZero() {
		t.Fatalf("expected zero total, got %s", total)
	}
}

func TestResolveNone(t *testing.T) {
	t.Parallel()

	amount, err := Resolve(money.MustParse("12.00"), None())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.IsZero() {
		t.Fatalf("expected zero, got %s", amount)
	}
	if !None().IsNone() || !(Discount{}).IsNone() {
		t.Fatalf("zero value and None should both report no discount")
	}
}
