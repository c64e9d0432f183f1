// Package money implements fixed-point currency arithmetic on integer minor
// units (grosz, cent). Amounts never pass through floating point; percent and
// VAT rates are carried as decimals and rounding happens exactly once, at the
// final division.
package money

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Money is an amount expressed in minor currency units.
type Money = int64

// ErrNegativeResult is returned when an operation would produce a negative
// amount. Prices and totals in this domain are always non-negative; hitting
// this indicates bad data or a rule authoring bug and must be surfaced, never
// clamped.
var ErrNegativeResult = errors.New("money: negative result")

var hundred = decimal.NewFromInt(100)

// Add returns a + b.
func Add(a, b Money) Money {
	return a + b
}

// Sub returns a - b, failing with ErrNegativeResult if b exceeds a.
func Sub(a, b Money) (Money, error) {
	if b > a {
		return 0, ErrNegativeResult
	}
	return a - b, nil
}

// MulQty multiplies a unit amount by a line quantity. Non-positive quantities
// contribute nothing.
func MulQty(amount Money, qty int) Money {
	if qty <= 0 {
		return 0
	}
	return amount * Money(qty)
}

// ApplyPercentDiscount returns round(amount * (100 - percent) / 100) with
// round-half-up applied on the final division. Percentages outside (0, 100)
// leave the amount untouched or zero it out respectively.
func ApplyPercentDiscount(amount Money, percent decimal.Decimal) Money {
	if amount <= 0 || percent.LessThanOrEqual(decimal.Zero) {
		if amount < 0 {
			return 0
		}
		return amount
	}
	if percent.GreaterThanOrEqual(hundred) {
		return 0
	}
	factor := hundred.Sub(percent)
	out := decimal.NewFromInt(amount).Mul(factor).Div(hundred).Round(0)
	return out.IntPart()
}

// ExtractNet derives the net portion of a gross (VAT-inclusive) amount:
// round(gross / (1 + rate/100)), equivalently round(gross*100 / (100+rate)).
// The rounding remainder stays in the VAT portion so the gross figure quoted
// to the buyer is never altered by the split.
func ExtractNet(gross Money, vatRatePercent decimal.Decimal) Money {
	if gross <= 0 {
		return 0
	}
	if vatRatePercent.LessThanOrEqual(decimal.Zero) {
		return gross
	}
	denom := hundred.Add(vatRatePercent)
	net := decimal.NewFromInt(gross).Mul(hundred).Div(denom).Round(0)
	return net.IntPart()
}

// VATPortion returns gross - ExtractNet(gross, rate). By construction
// ExtractNet + VATPortion == gross for every non-negative gross and rate.
func VATPortion(gross Money, vatRatePercent decimal.Decimal) Money {
	return gross - ExtractNet(gross, vatRatePercent)
}
