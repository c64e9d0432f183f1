package pricing

import (
	"context"

	"github.com/google/uuid"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/obs"
)

// CatalogSource supplies the gross base price for a product.
type CatalogSource interface {
	BasePrice(ctx context.Context, productID uuid.UUID, currency money.Currency) (money.Money, error)
}

// RuleSource supplies B2B price rules. Lookups must read current data; a
// stale rule is a pricing bug, so implementations do not cache.
type RuleSource interface {
	FindRule(ctx context.Context, productID, customerID uuid.UUID) (*b2b.PriceRule, error)
	FindRegionalRule(ctx context.Context, productID uuid.UUID) (*b2b.PriceRule, error)
}

// Resolver fetches the data a resolution needs and delegates the decision to
// Evaluate. It is stateless: customer and currency arrive as arguments on
// every call, never from ambient state.
type Resolver struct {
	Catalog CatalogSource
	Rules   RuleSource
}

// Resolve returns the price to charge the given (possibly absent) customer
// for the product in the requested currency. Unapproved and anonymous
// customers skip every rule tier: regional rules also only apply to approved
// B2B accounts.
func (r *Resolver) Resolve(ctx context.Context, productID uuid.UUID, customer *b2b.Customer, currency money.Currency) (Resolution, error) {
	base, err := r.Catalog.BasePrice(ctx, productID, currency)
	if err != nil {
		return Resolution{}, err
	}
	if !customer.Approved() {
		return r.observe(Resolution{Price: base, IsB2B: false, Tier: TierBase}, currency), nil
	}
	customerRule, err := r.Rules.FindRule(ctx, productID, customer.ID)
	if err != nil {
		return Resolution{}, err
	}
	regionalRule, err := r.Rules.FindRegionalRule(ctx, productID)
	if err != nil {
		return Resolution{}, err
	}
	resolution := Evaluate(base, currency, toEngineRule(customerRule), toEngineRule(regionalRule))
	return r.observe(resolution, currency), nil
}

func (r *Resolver) observe(res Resolution, currency money.Currency) Resolution {
	if obs.PriceResolutionTotal != nil {
		obs.PriceResolutionTotal.WithLabelValues(string(res.Tier), string(currency)).Inc()
	}
	return res
}

func toEngineRule(rule *b2b.PriceRule) *Rule {
	if rule == nil {
		return nil
	}
	return &Rule{Fixed: rule.Fixed, Discount: rule.Discount}
}
