package checkout

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/config"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/pricing"
)

var plnShipping = config.ShippingTier{FreeThreshold: 1_000_000, FlatRate: 4_900}

func vat23() decimal.Decimal { return decimal.NewFromInt(23) }

func TestComputeTotalsDomestic(t *testing.T) {
	lines := []LineItem{
		{Quantity: 2, UnitPrice: 100_000, Tier: pricing.TierBase},
		{Quantity: 1, UnitPrice: 50_000, Tier: pricing.TierCustomerFixed},
	}
	totals := ComputeTotals(lines, money.PLN, vat23(), false, plnShipping)

	if totals.Subtotal != 250_000 {
		t.Fatalf("subtotal = %d, want 250000", totals.Subtotal)
	}
	if totals.Lines[0].LineTotal != 200_000 || totals.Lines[1].LineTotal != 50_000 {
		t.Fatalf("line totals = %d, %d", totals.Lines[0].LineTotal, totals.Lines[1].LineTotal)
	}
	// 250000 / 1.23 = 203252.03 -> 203252 net, remainder in VAT.
	if totals.Net != 203_252 {
		t.Fatalf("net = %d, want 203252", totals.Net)
	}
	if totals.VAT != 46_748 {
		t.Fatalf("vat = %d, want 46748", totals.VAT)
	}
	if totals.Shipping != 4_900 {
		t.Fatalf("shipping = %d, want flat rate below threshold", totals.Shipping)
	}
	if totals.Total != 254_900 {
		t.Fatalf("total = %d, want 254900", totals.Total)
	}
}

func TestComputeTotalsFreeShippingAtThreshold(t *testing.T) {
	lines := []LineItem{{Quantity: 1, UnitPrice: 1_000_000}}
	totals := ComputeTotals(lines, money.PLN, vat23(), false, plnShipping)
	if totals.Shipping != 0 {
		t.Fatalf("shipping = %d, want free at threshold", totals.Shipping)
	}
	if totals.Total != totals.Subtotal {
		t.Fatalf("total = %d, want subtotal %d", totals.Total, totals.Subtotal)
	}
}

func TestComputeTotalsReverseCharge(t *testing.T) {
	eurShipping := config.ShippingTier{FreeThreshold: 250_000, FlatRate: 1_900}
	lines := []LineItem{{Quantity: 4, UnitPrice: 50_000, Tier: pricing.TierCustomerFixed}}
	totals := ComputeTotals(lines, money.EUR, vat23(), true, eurShipping)

	if !totals.ReverseCharge {
		t.Fatal("expected reverse charge order")
	}
	if totals.Net != 200_000 || totals.VAT != 0 {
		t.Fatalf("net/vat = %d/%d, want 200000/0", totals.Net, totals.VAT)
	}
	if !totals.VATRatePercent.IsZero() {
		t.Fatalf("vat rate = %s, want 0", totals.VATRatePercent)
	}
	if totals.Shipping != 1_900 {
		t.Fatalf("shipping = %d, want flat rate", totals.Shipping)
	}
	if totals.Total != 201_900 {
		t.Fatalf("total = %d, want 201900", totals.Total)
	}
}

func TestComputeTotalsIdentities(t *testing.T) {
	for subtotal := money.Money(1); subtotal < 4_000; subtotal += 7 {
		totals := ComputeTotals([]LineItem{{Quantity: 1, UnitPrice: subtotal}}, money.PLN, vat23(), false, plnShipping)
		if totals.Net+totals.VAT != totals.Subtotal {
			t.Fatalf("subtotal %d: net %d + vat %d != subtotal", subtotal, totals.Net, totals.VAT)
		}
		if totals.Subtotal+totals.Shipping != totals.Total {
			t.Fatalf("subtotal %d: shipping identity broken", subtotal)
		}
	}
}

func TestComputeTotalsSkipsNonPositiveQuantities(t *testing.T) {
	lines := []LineItem{
		{Quantity: 0, UnitPrice: 100_000},
		{Quantity: 3, UnitPrice: 10_000},
	}
	totals := ComputeTotals(lines, money.PLN, vat23(), false, plnShipping)
	if totals.Subtotal != 30_000 {
		t.Fatalf("subtotal = %d, want 30000", totals.Subtotal)
	}
}
