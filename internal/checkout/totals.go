// Package checkout computes order totals from resolved line prices and turns
// a cart into a placed order.
package checkout

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/config"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/pricing"
)

// LineItem is one order line with its resolved unit price. UnitPrice is the
// charge price in the order currency; for a reverse-charged order it is net,
// otherwise gross.
type LineItem struct {
	ProductID uuid.UUID    `json:"productId"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Money  `json:"unitPrice"`
	LineTotal money.Money  `json:"lineTotal"`
	Tier      pricing.Tier `json:"tier"`
}

// Totals is the complete order breakdown. Two identities hold exactly, in
// minor units: Net + VAT == Subtotal, and Subtotal + Shipping == Total.
type Totals struct {
	Currency       money.Currency  `json:"currency"`
	Lines          []LineItem      `json:"lines"`
	Subtotal       money.Money     `json:"subtotal"`
	Net            money.Money     `json:"net"`
	VAT            money.Money     `json:"vat"`
	Shipping       money.Money     `json:"shipping"`
	Total          money.Money     `json:"total"`
	VATRatePercent decimal.Decimal `json:"vatRatePercent"`
	ReverseCharge  bool            `json:"reverseCharge"`
}

// ComputeTotals sums resolved line prices into an order breakdown. Line
// totals and the subtotal are plain integer sums, so the only rounding in
// the whole computation is the single net extraction on the subtotal; the
// remainder of that division stays in the VAT figure. Shipping is a
// flat, untaxed fee waived once the subtotal reaches the free threshold.
func ComputeTotals(lines []LineItem, currency money.Currency, vatRatePercent decimal.Decimal, reverseCharge bool, shipping config.ShippingTier) Totals {
	out := Totals{
		Currency:      currency,
		Lines:         make([]LineItem, len(lines)),
		ReverseCharge: reverseCharge,
	}
	for i, line := range lines {
		line.LineTotal = money.MulQty(line.UnitPrice, line.Quantity)
		out.Lines[i] = line
		out.Subtotal = money.Add(out.Subtotal, line.LineTotal)
	}

	if reverseCharge {
		// Reverse-charged line prices are already net and no VAT is
		// collected; the buyer self-accounts in their jurisdiction.
		out.Net = out.Subtotal
		out.VAT = 0
		out.VATRatePercent = decimal.Zero
	} else {
		out.Net = money.ExtractNet(out.Subtotal, vatRatePercent)
		out.VAT = out.Subtotal - out.Net
		out.VATRatePercent = vatRatePercent
	}

	if out.Subtotal < shipping.FreeThreshold {
		out.Shipping = shipping.FlatRate
	}
	out.Total = money.Add(out.Subtotal, out.Shipping)
	return out
}
