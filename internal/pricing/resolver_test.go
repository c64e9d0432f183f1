package pricing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/money"
)

type fakeCatalog struct {
	base money.Amounts
	err  error
}

func (f fakeCatalog) BasePrice(_ context.Context, _ uuid.UUID, c money.Currency) (money.Money, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.base.Get(c), nil
}

type fakeRules struct {
	customer *b2b.PriceRule
	regional *b2b.PriceRule
	calls    int
}

func (f *fakeRules) FindRule(_ context.Context, _, _ uuid.UUID) (*b2b.PriceRule, error) {
	f.calls++
	return f.customer, nil
}

func (f *fakeRules) FindRegionalRule(_ context.Context, _ uuid.UUID) (*b2b.PriceRule, error) {
	f.calls++
	return f.regional, nil
}

func approvedCustomer(region b2b.Region) *b2b.Customer {
	return &b2b.Customer{ID: uuid.New(), Region: region, Status: b2b.StatusApproved}
}

func TestResolveAnonymousSkipsRules(t *testing.T) {
	rules := &fakeRules{regional: &b2b.PriceRule{Fixed: money.Amounts{money.PLN: 50_000}}}
	r := &Resolver{
		Catalog: fakeCatalog{base: money.Amounts{money.PLN: 100_000}},
		Rules:   rules,
	}
	res, err := r.Resolve(context.Background(), uuid.New(), nil, money.PLN)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != TierBase || res.Price != 100_000 || res.IsB2B {
		t.Fatalf("got %+v, want base price for anonymous buyer", res)
	}
	if rules.calls != 0 {
		t.Fatalf("rule store hit %d times for anonymous buyer", rules.calls)
	}
}

func TestResolvePendingCustomerSkipsRegionalTier(t *testing.T) {
	rules := &fakeRules{regional: &b2b.PriceRule{Fixed: money.Amounts{money.PLN: 50_000}}}
	r := &Resolver{
		Catalog: fakeCatalog{base: money.Amounts{money.PLN: 100_000}},
		Rules:   rules,
	}
	pending := &b2b.Customer{ID: uuid.New(), Region: b2b.RegionHome, Status: b2b.StatusPending}
	res, err := r.Resolve(context.Background(), uuid.New(), pending, money.PLN)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != TierBase || res.Price != 100_000 {
		t.Fatalf("got %+v, want base price for pending account", res)
	}
}

func TestResolveApprovedCustomerGetsRuleTier(t *testing.T) {
	rules := &fakeRules{
		customer: &b2b.PriceRule{Discount: map[money.Currency]decimal.Decimal{money.EUR: decimal.NewFromInt(10)}},
	}
	r := &Resolver{
		Catalog: fakeCatalog{base: money.Amounts{money.EUR: 20_000}},
		Rules:   rules,
	}
	res, err := r.Resolve(context.Background(), uuid.New(), approvedCustomer(b2b.RegionForeign), money.EUR)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != TierCustomerDiscount || res.Price != 18_000 || !res.IsB2B {
		t.Fatalf("got %+v, want 10%% customer discount", res)
	}
}

func TestResolveRegionalRuleForApprovedCustomer(t *testing.T) {
	rules := &fakeRules{regional: &b2b.PriceRule{Fixed: money.Amounts{money.PLN: 85_000}}}
	r := &Resolver{
		Catalog: fakeCatalog{base: money.Amounts{money.PLN: 100_000}},
		Rules:   rules,
	}
	res, err := r.Resolve(context.Background(), uuid.New(), approvedCustomer(b2b.RegionHome), money.PLN)
	if err != nil {
		t.Fatal(err)
	}
	if res.Tier != TierRegionalFixed || res.Price != 85_000 {
		t.Fatalf("got %+v, want regional fixed 85000", res)
	}
}

func TestResolveCatalogError(t *testing.T) {
	wantErr := errors.New("boom")
	r := &Resolver{Catalog: fakeCatalog{err: wantErr}, Rules: &fakeRules{}}
	_, err := r.Resolve(context.Background(), uuid.New(), nil, money.PLN)
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
}
