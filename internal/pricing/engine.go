// Package pricing decides, for a product and an optional B2B buyer, the
// single price to charge. The priority order lives here and nowhere else:
// customer-specific fixed, customer-specific discount, regional fixed,
// regional discount, base price. Fixed amounts and discounts never combine.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

// Tier names the rule tier that produced a resolution.
type Tier string

const (
	TierCustomerFixed    Tier = "customer_fixed"
	TierCustomerDiscount Tier = "customer_discount"
	TierRegionalFixed    Tier = "regional_fixed"
	TierRegionalDiscount Tier = "regional_discount"
	TierBase             Tier = "base"
)

// Rule is a pricing rule already scoped to one product, as seen by the
// engine. A fixed amount of zero and a discount of zero both mean "not set";
// a rule author cannot price anything at zero.
type Rule struct {
	Fixed    money.Amounts
	Discount map[money.Currency]decimal.Decimal
}

func (r *Rule) fixedFor(c money.Currency) (money.Money, bool) {
	if r == nil {
		return 0, false
	}
	v := r.Fixed.Get(c)
	return v, v > 0
}

func (r *Rule) discountFor(c money.Currency) (decimal.Decimal, bool) {
	if r == nil || r.Discount == nil {
		return decimal.Zero, false
	}
	d, ok := r.Discount[c]
	if !ok || d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return d, true
}

// Resolution is the outcome of price evaluation.
type Resolution struct {
	Price money.Money `json:"price"`
	IsB2B bool        `json:"isB2B"`
	Tier  Tier        `json:"tier"`
}

// Evaluate walks the tiers in priority order and returns the first match.
// customerRule must only be supplied for an approved buyer; passing nil for
// both rules yields the base price. Evaluation is per currency side: a rule
// that only prices PLN leaves EUR resolution to the next tier.
func Evaluate(base money.Money, currency money.Currency, customerRule, regionalRule *Rule) Resolution {
	if fixed, ok := customerRule.fixedFor(currency); ok {
		return Resolution{Price: fixed, IsB2B: true, Tier: TierCustomerFixed}
	}
	if discount, ok := customerRule.discountFor(currency); ok {
		return Resolution{Price: money.ApplyPercentDiscount(base, discount), IsB2B: true, Tier: TierCustomerDiscount}
	}
	if fixed, ok := regionalRule.fixedFor(currency); ok {
		return Resolution{Price: fixed, IsB2B: true, Tier: TierRegionalFixed}
	}
	if discount, ok := regionalRule.discountFor(currency); ok {
		return Resolution{Price: money.ApplyPercentDiscount(base, discount), IsB2B: true, Tier: TierRegionalDiscount}
	}
	return Resolution{Price: base, IsB2B: false, Tier: TierBase}
}
