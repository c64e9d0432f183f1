// Package tax turns a resolved price into the net/gross split and VAT
// disclosure shown to the shopper. Stored prices are gross by convention;
// the one exception is an intra-community B2B sale, which is reverse-charged
// and presented net-only.
package tax

import (
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/money"
)

// Presentation is the display-ready price breakdown.
type Presentation struct {
	Currency money.Currency `json:"currency"`
	Net      money.Money    `json:"net"`
	// Gross is omitted entirely under reverse charge: no gross figure is
	// computed or shown for an intra-community B2B sale.
	Gross           *money.Money    `json:"gross,omitempty"`
	VATRatePercent  decimal.Decimal `json:"vatRatePercent"`
	ReverseCharge   bool            `json:"reverseCharge"`
	Disclosure      string          `json:"disclosure"`
	CompareAtNet    *money.Money    `json:"compareAtNet,omitempty"`
	CompareAtGross  *money.Money    `json:"compareAtGross,omitempty"`
	DiscountPercent *int64          `json:"discountPercent,omitempty"`
}

// Input carries everything a presentation depends on. CompareAt is the
// optional strikethrough price in the same currency; it is ignored under
// reverse charge (B2B surfaces do not show retail discount badges).
type Input struct {
	Price          money.Money
	Currency       money.Currency
	Customer       *b2b.Customer
	IsB2B          bool
	VATRatePercent decimal.Decimal
	CompareAt      *money.Money
}

const reverseChargeDisclosure = "VAT 0% — reverse charge, art. 194 Directive 2006/112/EC"

// Present computes the net/gross split for a resolved price.
//
// A B2B price sold to a foreign-region account is treated as already net:
// the buyer self-accounts for VAT in their own jurisdiction and no gross
// figure exists. Every other sale treats the resolved price as gross and
// extracts the net once, at the final division.
func Present(in Input) Presentation {
	if in.IsB2B && in.Customer != nil && in.Customer.Region == b2b.RegionForeign {
		return Presentation{
			Currency:       in.Currency,
			Net:            in.Price,
			VATRatePercent: decimal.Zero,
			ReverseCharge:  true,
			Disclosure:     reverseChargeDisclosure,
		}
	}
	gross := in.Price
	p := Presentation{
		Currency:       in.Currency,
		Net:            money.ExtractNet(gross, in.VATRatePercent),
		Gross:          &gross,
		VATRatePercent: in.VATRatePercent,
		Disclosure:     "price includes VAT " + in.VATRatePercent.String() + "%",
	}
	if in.CompareAt != nil && *in.CompareAt > in.Price {
		compareGross := *in.CompareAt
		compareNet := money.ExtractNet(compareGross, in.VATRatePercent)
		p.CompareAtGross = &compareGross
		p.CompareAtNet = &compareNet
		badge := discountBadge(in.Price, compareGross)
		p.DiscountPercent = &badge
	}
	return p
}

// discountBadge computes round((1 - price/compareAt) * 100) without floats.
func discountBadge(price, compareAt money.Money) int64 {
	diff := decimal.NewFromInt(compareAt - price)
	return diff.Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(compareAt)).Round(0).IntPart()
}
