package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestToMinorUnitsRoundsHalfAwayFromZero(t *testing.T) {
	t.Parallel()

	tests := []struct {
		major string
		cents int64
	}{
		{"10", 1000},
		{"10.00", 1000},
		{"5.99", 599},
		{"10.005", 1001},
		{"10.004", 1000},
		{"0.015", 2},
		{"0", 0},
	}

	for _, tt := range tests {
		major, err := decimal.NewFromString(tt.major)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.major, err)
		}
		if got := ToMinorUnits(major); got != tt.cents {
			t.Fatalf("ToMinorUnits(%s) = %d, want %d", tt.major, got, tt.cents)
		}
	}
}

func TestFromMinorUnitsRoundTrip(t *testing.T) {
	t.Parallel()

	if got := FromMinorUnits(599); got.StringFixed(2) != "5.99" {
		t.Fatalf("unexpected major value %s", got)
	}
	if got := ToMinorUnits(FromMinorUnits(8000)); got != 8000 {
		t.Fatalf("round trip lost precision: %d", got)
	}
}

func TestFormatEUR(t *testing.T) {
	t.Parallel()

	price := decimal.RequireFromString("12.5")
	if got := FormatEUR(price); got != "12.50€" {
		t.Fatalf("unexpected format %q", got)
	}
	if got := FormatEUR(decimal.Zero); got != "0.00€" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestSumKeepsFullPrecision(t *testing.T) {
	t.Parallel()

	a := decimal.RequireFromString("0.1")
	b := decimal.RequireFromString("0.2")
	if got := Sum(a, b); !got.Equal(decimal.RequireFromString("0.3")) {
		t.Fatalf("unexpected sum %s", got)
	}
}
