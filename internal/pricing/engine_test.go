package pricing

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

func pct(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestEvaluateBaseOnly(t *testing.T) {
	res := Evaluate(100_000, money.PLN, nil, nil)
	if res.Price != 100_000 || res.IsB2B || res.Tier != TierBase {
		t.Fatalf("got %+v, want base 100000", res)
	}
}

func TestEvaluatePriority(t *testing.T) {
	base := money.Money(100_000)
	customerBoth := &Rule{
		Fixed:    money.Amounts{money.PLN: 70_000},
		Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("50")},
	}
	customerDiscount := &Rule{Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("20")}}
	regionalFixed := &Rule{Fixed: money.Amounts{money.PLN: 90_000}}
	regionalDiscount := &Rule{Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("10")}}

	cases := []struct {
		name      string
		customer  *Rule
		regional  *Rule
		wantPrice money.Money
		wantTier  Tier
	}{
		{"customer fixed beats customer discount", customerBoth, regionalDiscount, 70_000, TierCustomerFixed},
		{"customer discount beats regional fixed", customerDiscount, regionalFixed, 80_000, TierCustomerDiscount},
		{"regional fixed beats regional discount", nil, &Rule{
			Fixed:    money.Amounts{money.PLN: 90_000},
			Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("10")},
		}, 90_000, TierRegionalFixed},
		{"regional discount beats base", nil, regionalDiscount, 90_000, TierRegionalDiscount},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Evaluate(base, money.PLN, tc.customer, tc.regional)
			if res.Price != tc.wantPrice {
				t.Fatalf("price = %d, want %d", res.Price, tc.wantPrice)
			}
			if res.Tier != tc.wantTier {
				t.Fatalf("tier = %s, want %s", res.Tier, tc.wantTier)
			}
			if !res.IsB2B {
				t.Fatal("rule-tier resolution must be marked B2B")
			}
		})
	}
}

// A customer fixed price wins even when a regional discount would come out
// cheaper for the buyer: the tier order is absolute, not a best-price search.
func TestEvaluateCustomerFixedBeatsCheaperRegionalDiscount(t *testing.T) {
	customer := &Rule{Fixed: money.Amounts{money.PLN: 95_000}}
	regional := &Rule{Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("50")}}
	res := Evaluate(100_000, money.PLN, customer, regional)
	if res.Price != 95_000 || res.Tier != TierCustomerFixed {
		t.Fatalf("got %+v, want customer fixed 95000", res)
	}
}

func TestEvaluateZeroMeansUnset(t *testing.T) {
	customer := &Rule{
		Fixed:    money.Amounts{money.PLN: 0},
		Discount: map[money.Currency]decimal.Decimal{money.PLN: decimal.Zero},
	}
	res := Evaluate(100_000, money.PLN, customer, nil)
	if res.Tier != TierBase || res.Price != 100_000 {
		t.Fatalf("got %+v, want base fallthrough for zero-valued rule", res)
	}
}

func TestEvaluatePerCurrencyFallthrough(t *testing.T) {
	// Rule prices PLN only; an EUR resolution must fall past it.
	customer := &Rule{Fixed: money.Amounts{money.PLN: 70_000}}
	regional := &Rule{Discount: map[money.Currency]decimal.Decimal{money.EUR: pct("10")}}

	res := Evaluate(20_000, money.EUR, customer, regional)
	if res.Tier != TierRegionalDiscount || res.Price != 18_000 {
		t.Fatalf("got %+v, want regional discount 18000 on EUR side", res)
	}
}

func TestEvaluateDiscountRounding(t *testing.T) {
	regional := &Rule{Discount: map[money.Currency]decimal.Decimal{money.PLN: pct("10")}}
	// 33335 * 0.9 = 30001.5 -> rounds half-up to 30002.
	res := Evaluate(33_335, money.PLN, nil, regional)
	if res.Price != 30_002 {
		t.Fatalf("price = %d, want 30002 (half-up)", res.Price)
	}
}
