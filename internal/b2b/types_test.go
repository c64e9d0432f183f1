package b2b

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

func TestRegionRoundTripFromStoredValue(t *testing.T) {
	// The region column stores lowercase values; a customer scanned from the
	// database must compare equal to the constants and resolve the right
	// settlement currency.
	cases := []struct {
		stored string
		want   Region
		cur    money.Currency
	}{
		{"home", RegionHome, money.PLN},
		{"foreign", RegionForeign, money.EUR},
	}
	for _, tc := range cases {
		if Region(tc.stored) != tc.want {
			t.Fatalf("Region(%q) != %v", tc.stored, tc.want)
		}
		if got := Region(tc.stored).Currency(); got != tc.cur {
			t.Fatalf("Region(%q).Currency() = %v, want %v", tc.stored, got, tc.cur)
		}
	}
}

func TestParseRegionNormalisesCasing(t *testing.T) {
	for _, raw := range []string{"home", "HOME", " Home "} {
		r, err := ParseRegion(raw)
		if err != nil || r != RegionHome {
			t.Fatalf("ParseRegion(%q) = %v, %v", raw, r, err)
		}
	}
	for _, raw := range []string{"foreign", "FOREIGN"} {
		r, err := ParseRegion(raw)
		if err != nil || r != RegionForeign {
			t.Fatalf("ParseRegion(%q) = %v, %v", raw, r, err)
		}
	}
	if _, err := ParseRegion("overseas"); err == nil {
		t.Fatal("expected error for unknown region")
	}
}

func TestFixedForZeroMeansUnset(t *testing.T) {
	rule := &PriceRule{Fixed: money.Amounts{money.PLN: 250_000, money.EUR: 0}}
	if v, ok := rule.FixedFor(money.PLN); !ok || v != 250_000 {
		t.Fatalf("FixedFor(PLN) = %d, %v", v, ok)
	}
	if _, ok := rule.FixedFor(money.EUR); ok {
		t.Fatal("zero fixed price must read as unset")
	}
	var nilRule *PriceRule
	if _, ok := nilRule.FixedFor(money.PLN); ok {
		t.Fatal("nil rule must read as unset")
	}
}

func TestDiscountForZeroMeansUnset(t *testing.T) {
	rule := &PriceRule{Discount: map[money.Currency]decimal.Decimal{
		money.PLN: decimal.NewFromInt(10),
		money.EUR: decimal.Zero,
	}}
	if d, ok := rule.DiscountFor(money.PLN); !ok || !d.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("DiscountFor(PLN) = %v, %v", d, ok)
	}
	if _, ok := rule.DiscountFor(money.EUR); ok {
		t.Fatal("zero discount must read as unset")
	}
	if _, ok := (&PriceRule{}).DiscountFor(money.PLN); ok {
		t.Fatal("missing discount map must read as unset")
	}
}
