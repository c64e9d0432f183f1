package money

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSubNegativeResult(t *testing.T) {
	if _, err := Sub(100, 250); !errors.Is(err, ErrNegativeResult) {
		t.Fatalf("expected ErrNegativeResult, got %v", err)
	}
	got, err := Sub(250, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 150 {
		t.Fatalf("expected 150, got %d", got)
	}
}

func TestMulQty(t *testing.T) {
	if got := MulQty(2500, 3); got != 7500 {
		t.Fatalf("expected 7500, got %d", got)
	}
	if got := MulQty(2500, 0); got != 0 {
		t.Fatalf("expected 0 for zero qty, got %d", got)
	}
	if got := MulQty(2500, -2); got != 0 {
		t.Fatalf("expected 0 for negative qty, got %d", got)
	}
}

func TestApplyPercentDiscountRoundsHalfUp(t *testing.T) {
	cases := []struct {
		amount  Money
		percent string
		want    Money
	}{
		{100_000, "10", 90_000},
		{99_999, "10", 89_999},   // 89999.1 rounds down
		{33_335, "10", 30_002},   // 30001.5 rounds half up
		{100_000, "0", 100_000},  // zero percent means untouched
		{100_000, "100", 0},      // full discount
		{100_000, "12.5", 87_500},
		{101, "12.5", 88},        // 88.375 rounds down
	}
	for _, tc := range cases {
		p := decimal.RequireFromString(tc.percent)
		if got := ApplyPercentDiscount(tc.amount, p); got != tc.want {
			t.Fatalf("ApplyPercentDiscount(%d, %s) = %d, want %d", tc.amount, tc.percent, got, tc.want)
		}
	}
}

func TestExtractNetPolishVAT(t *testing.T) {
	rate := decimal.NewFromInt(23)
	net := ExtractNet(100_000, rate)
	if net != 81_301 {
		t.Fatalf("expected net 81301, got %d", net)
	}
	if vat := VATPortion(100_000, rate); vat != 18_699 {
		t.Fatalf("expected vat 18699, got %d", vat)
	}
}

func TestNetPlusVATEqualsGross(t *testing.T) {
	rates := []decimal.Decimal{
		decimal.Zero,
		decimal.NewFromInt(5),
		decimal.NewFromInt(8),
		decimal.NewFromInt(23),
		decimal.RequireFromString("19.5"),
	}
	grosses := []Money{0, 1, 2, 99, 12_345, 99_999, 100_000, 1_000_000, 987_654_321}
	for _, rate := range rates {
		for _, gross := range grosses {
			net := ExtractNet(gross, rate)
			vat := VATPortion(gross, rate)
			if net+vat != gross {
				t.Fatalf("net %d + vat %d != gross %d at rate %s", net, vat, gross, rate)
			}
			if net < 0 || vat < 0 {
				t.Fatalf("negative split for gross %d at rate %s", gross, rate)
			}
		}
	}
}

func TestParseCurrency(t *testing.T) {
	c, err := ParseCurrency(" pln ")
	if err != nil || c != PLN {
		t.Fatalf("expected PLN, got %v %v", c, err)
	}
	if _, err := ParseCurrency("USD"); !errors.Is(err, ErrUnknownCurrency) {
		t.Fatalf("expected ErrUnknownCurrency, got %v", err)
	}
}

func TestAmountsGet(t *testing.T) {
	prices := Amounts{PLN: 4_990_000, EUR: 1_190_000}
	if prices.Get(EUR) != 1_190_000 {
		t.Fatalf("unexpected EUR amount %d", prices.Get(EUR))
	}
	var empty Amounts
	if empty.Get(PLN) != 0 {
		t.Fatalf("expected zero for nil map")
	}
}
