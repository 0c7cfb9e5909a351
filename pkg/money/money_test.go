package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "2.345", want: "2.35"},
		{in: "2.344", want: "2.34"},
		{in: "-2.345", want: "-2.35"},
		{in: "10", want: "10.00"},
	}
	for _, tt := range tests {
		got := Format(Round(MustParse(tt.in)))
		if got != tt.want {
			t.Fatalf("round %s: expected %s got %s", tt.in, tt.want, got)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := Percent(MustParse("30.00"), decimal.NewFromInt(10)); !got.Equal(MustParse("3.00")) {
		t.Fatalf("expected 3.00 got %s", got)
	}
	if got := Percent(MustParse("9.99"), MustParse("33.3")); !got.Equal(MustParse("3.33")) {
		t.Fatalf("expected 3.33 got %s", got)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	if _, err := Parse(""); err == nil {
		t.Fatalf("expected error for empty amount")
	}
	if _, err := Parse("ten"); err == nil {
		t.Fatalf("expected error for non-numeric amount")
	}
}

func TestNonNegative(t *testing.T) {
	if got := NonNegative(MustParse("-0.01")); !got.IsZero() {
		t.Fatalf("expected zero got %s", got)
	}
	if got := Min(MustParse("1.00"), MustParse("0.50")); !got.Equal(MustParse("0.50")) {
		t.Fatalf("expected 0.50 got %s", got)
	}
}
