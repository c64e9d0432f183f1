package tax

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/money"
)

func vat23() decimal.Decimal { return decimal.NewFromInt(23) }

func TestPresentDomesticRetail(t *testing.T) {
	p := Present(Input{Price: 100_000, Currency: money.PLN, VATRatePercent: vat23()})

	if p.ReverseCharge {
		t.Fatal("retail sale must not be reverse charged")
	}
	if p.Gross == nil || *p.Gross != 100_000 {
		t.Fatalf("gross = %v, want 100000", p.Gross)
	}
	if p.Net != 81_301 {
		t.Fatalf("net = %d, want 81301", p.Net)
	}
	if p.Net+(*p.Gross-p.Net) != *p.Gross {
		t.Fatal("net + vat must reassemble gross")
	}
}

func TestPresentReverseCharge(t *testing.T) {
	customer := &b2b.Customer{Region: b2b.RegionForeign, Status: b2b.StatusApproved}
	p := Present(Input{
		Price:          200_000,
		Currency:       money.EUR,
		Customer:       customer,
		IsB2B:          true,
		VATRatePercent: vat23(),
	})

	if !p.ReverseCharge {
		t.Fatal("expected reverse charge for foreign B2B sale")
	}
	if p.Gross != nil {
		t.Fatalf("gross = %d, want omitted under reverse charge", *p.Gross)
	}
	if p.Net != 200_000 {
		t.Fatalf("net = %d, want price passed through as net", p.Net)
	}
	if !p.VATRatePercent.IsZero() {
		t.Fatalf("vat rate = %s, want 0", p.VATRatePercent)
	}
	if p.Disclosure != reverseChargeDisclosure {
		t.Fatalf("disclosure = %q", p.Disclosure)
	}
}

// A home-region B2B buyer pays VAT like any retail shopper; only the
// resolved price differs.
func TestPresentHomeB2BKeepsGross(t *testing.T) {
	customer := &b2b.Customer{Region: b2b.RegionHome, Status: b2b.StatusApproved}
	p := Present(Input{Price: 90_000, Currency: money.PLN, Customer: customer, IsB2B: true, VATRatePercent: vat23()})
	if p.ReverseCharge || p.Gross == nil {
		t.Fatalf("got %+v, want gross presentation for home-region B2B", p)
	}
}

// Per-line reverse charge keys on the resolution, not the account: a line
// priced at the base tier shows gross even for a foreign approved buyer.
// The order-level treatment follows the buyer instead; see checkout.
func TestPresentForeignCustomerBaseTierKeepsGross(t *testing.T) {
	customer := &b2b.Customer{Region: b2b.RegionForeign, Status: b2b.StatusApproved}
	p := Present(Input{Price: 200_000, Currency: money.EUR, Customer: customer, IsB2B: false, VATRatePercent: vat23()})
	if p.ReverseCharge || p.Gross == nil {
		t.Fatalf("got %+v, want gross presentation for base-tier line", p)
	}
}

func TestPresentCompareAtBadge(t *testing.T) {
	compare := money.Money(125_000)
	p := Present(Input{Price: 100_000, Currency: money.PLN, VATRatePercent: vat23(), CompareAt: &compare})

	if p.CompareAtGross == nil || *p.CompareAtGross != 125_000 {
		t.Fatalf("compareAtGross = %v, want 125000", p.CompareAtGross)
	}
	if p.DiscountPercent == nil || *p.DiscountPercent != 20 {
		t.Fatalf("discountPercent = %v, want 20", p.DiscountPercent)
	}
}

func TestPresentCompareAtNotBelowPrice(t *testing.T) {
	compare := money.Money(100_000)
	p := Present(Input{Price: 100_000, Currency: money.PLN, VATRatePercent: vat23(), CompareAt: &compare})
	if p.CompareAtGross != nil || p.DiscountPercent != nil {
		t.Fatal("compare-at equal to price must not produce a badge")
	}
}
