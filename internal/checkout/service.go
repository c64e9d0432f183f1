package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/b2b"
	"github.com/agroflight/backend-shop/internal/cart"
	"github.com/agroflight/backend-shop/internal/catalog"
	"github.com/agroflight/backend-shop/internal/config"
	"github.com/agroflight/backend-shop/internal/events"
	"github.com/agroflight/backend-shop/internal/lock"
	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/obs"
	"github.com/agroflight/backend-shop/internal/order"
	"github.com/agroflight/backend-shop/internal/pricing"
)

// ErrEmptyCart is returned when checkout is attempted on a cart with no lines.
var ErrEmptyCart = errors.New("checkout: cart is empty")

// OutOfStockError names the product that cannot be fulfilled.
type OutOfStockError struct {
	Slug      string
	Requested int
	Available int
}

func (e *OutOfStockError) Error() string {
	return fmt.Sprintf("checkout: %s: requested %d, available %d", e.Slug, e.Requested, e.Available)
}

// Service turns a cart into an order. Every price in the order is resolved
// at the moment of checkout against current catalog and rule data; the cart
// never contributes a price, only product ids and quantities.
type Service struct {
	Carts    *cart.Store
	Catalog  *catalog.Service
	Resolver *pricing.Resolver
	Orders   *order.Store
	Bus      *events.Bus
	Logger   zerolog.Logger

	// Lock serialises checkout per cart so a double submit cannot place two
	// orders from the same cart. Optional; nil skips locking.
	Lock    *lock.Locker
	LockTTL time.Duration

	VATRatePercent decimal.Decimal
	Shipping       map[money.Currency]config.ShippingTier
}

// Quote computes the totals the cart would be charged right now, without
// placing an order.
func (s *Service) Quote(ctx context.Context, c cart.Cart, customer *b2b.Customer) (Totals, error) {
	lines, currency, reverse, err := s.buildLines(ctx, c, customer, false)
	if err != nil {
		return Totals{}, err
	}
	return ComputeTotals(lines, currency, s.VATRatePercent, reverse, s.Shipping[currency]), nil
}

// PlaceOrder resolves the cart, persists the order snapshot, clears the cart
// and emits the order.created event. Stock is verified against the catalog;
// a line that cannot be fulfilled fails the whole checkout.
func (s *Service) PlaceOrder(ctx context.Context, c cart.Cart, customer *b2b.Customer, email string) (order.Order, error) {
	if s.Lock != nil {
		ttl := s.LockTTL
		if ttl <= 0 {
			ttl = 30 * time.Second
		}
		var placed order.Order
		err := s.Lock.WithLock(ctx, "checkout:cart:"+c.ID.String(), ttl, func(ctx context.Context) error {
			var err error
			placed, err = s.placeOrder(ctx, c, customer, email)
			return err
		})
		return placed, err
	}
	return s.placeOrder(ctx, c, customer, email)
}

func (s *Service) placeOrder(ctx context.Context, c cart.Cart, customer *b2b.Customer, email string) (order.Order, error) {
	lines, currency, reverse, err := s.buildLines(ctx, c, customer, true)
	if err != nil {
		s.observe(currency, "rejected")
		return order.Order{}, err
	}
	totals := ComputeTotals(lines, currency, s.VATRatePercent, reverse, s.Shipping[currency])

	var customerID *uuid.UUID
	if customer != nil {
		customerID = &customer.ID
	}
	o, err := s.Orders.Create(ctx, customerID, email, snapshot(totals))
	if err != nil {
		s.observe(currency, "failed")
		return order.Order{}, fmt.Errorf("persist order: %w", err)
	}
	if err := s.Carts.Clear(ctx, c.ID); err != nil {
		// The order is placed; a stale cart is an annoyance, not a failure.
		s.Logger.Warn().Err(err).Str("cart_id", c.ID.String()).Msg("failed to clear cart after checkout")
	}
	if s.Bus != nil {
		if _, err := s.Bus.Emit(ctx, events.TopicOrderCreated, o.ID, notifyPayload(o)); err != nil {
			s.Logger.Warn().Err(err).Str("order_id", o.ID.String()).Msg("order event emission failed")
		}
	}
	s.observe(currency, "placed")
	return o, nil
}

// buildLines loads and prices every cart line. checkStock only applies when
// placing an order; quotes tolerate thin stock.
func (s *Service) buildLines(ctx context.Context, c cart.Cart, customer *b2b.Customer, checkStock bool) ([]LineItem, money.Currency, bool, error) {
	currency := money.PLN
	if customer != nil {
		currency = customer.Region.Currency()
	}
	// Order-level reverse charge follows the buyer's fiscal status, not the
	// tier any individual line resolved at.
	reverse := customer.Approved() && customer.Region == b2b.RegionForeign

	items, err := s.Carts.Items(ctx, c.ID)
	if err != nil {
		return nil, currency, reverse, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, currency, reverse, ErrEmptyCart
	}

	lines := make([]LineItem, 0, len(items))
	for _, item := range items {
		product, err := s.Catalog.Product(ctx, item.ProductID)
		if err != nil {
			return nil, currency, reverse, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		if checkStock && product.Stock < item.Quantity && !product.PreorderEnabled {
			return nil, currency, reverse, &OutOfStockError{
				Slug:      product.Slug,
				Requested: item.Quantity,
				Available: product.Stock,
			}
		}
		resolution, err := s.Resolver.Resolve(ctx, item.ProductID, customer, currency)
		if err != nil {
			return nil, currency, reverse, fmt.Errorf("resolve price for %s: %w", product.Slug, err)
		}
		lines = append(lines, LineItem{
			ProductID: product.ID,
			Slug:      product.Slug,
			Title:     product.Title,
			Quantity:  item.Quantity,
			UnitPrice: resolution.Price,
			Tier:      resolution.Tier,
		})
	}
	return lines, currency, reverse, nil
}

func (s *Service) observe(currency money.Currency, result string) {
	if obs.CheckoutTotal != nil {
		obs.CheckoutTotal.WithLabelValues(string(currency), result).Inc()
	}
}

func snapshot(t Totals) order.Snapshot {
	lines := make([]order.Line, 0, len(t.Lines))
	for _, l := range t.Lines {
		lines = append(lines, order.Line{
			ProductID: l.ProductID,
			Slug:      l.Slug,
			Title:     l.Title,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
			Tier:      l.Tier,
		})
	}
	return order.Snapshot{
		Currency:       t.Currency,
		Lines:          lines,
		Subtotal:       t.Subtotal,
		Net:            t.Net,
		VAT:            t.VAT,
		Shipping:       t.Shipping,
		Total:          t.Total,
		VATRatePercent: t.VATRatePercent,
		ReverseCharge:  t.ReverseCharge,
	}
}

func notifyPayload(o order.Order) map[string]any {
	return map[string]any{
		"orderId":       o.ID.String(),
		"email":         o.Email,
		"currency":      string(o.Currency),
		"total":         o.Total,
		"reverseCharge": o.ReverseCharge,
	}
}
