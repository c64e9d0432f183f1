// Package analytics aggregates placed orders into the numbers the back
// office dashboard shows. Results are cached in Redis because the queries
// scan the full order history.
package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/agroflight/backend-shop/internal/money"
)

// DailySales is one day of revenue in one currency. Cancelled orders are
// excluded; amounts are gross minor units.
type DailySales struct {
	Day      time.Time      `json:"day"`
	Currency money.Currency `json:"currency"`
	Orders   int64          `json:"orders"`
	Revenue  money.Money    `json:"revenue"`
	VAT      money.Money    `json:"vat"`
}

// TopProduct ranks a product by quantity sold.
type TopProduct struct {
	ProductID string         `json:"productId"`
	Slug      string         `json:"slug"`
	Title     string         `json:"title"`
	Currency  money.Currency `json:"currency"`
	Quantity  int64          `json:"quantity"`
	Revenue   money.Money    `json:"revenue"`
}

// Querier is the database access analytics needs.
type Querier interface {
	SalesDailyRange(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, limit, offset int) ([]TopProduct, error)
}

// PGQuerier runs the aggregation queries against Postgres.
type PGQuerier struct {
	Pool *pgxpool.Pool
}

func (q PGQuerier) SalesDailyRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	rows, err := q.Pool.Query(ctx, `
		SELECT date_trunc('day', created_at) AS day, currency, count(*), sum(total), sum(vat)
		FROM orders
		WHERE status <> 'cancelled' AND created_at >= $1 AND created_at < $2
		GROUP BY 1, 2
		ORDER BY 1, 2`, from, to)
	if err != nil {
		return nil, fmt.Errorf("sales range: %w", err)
	}
	defer rows.Close()

	var out []DailySales
	for rows.Next() {
		var (
			d        DailySales
			currency string
		)
		if err := rows.Scan(&d.Day, &currency, &d.Orders, &d.Revenue, &d.VAT); err != nil {
			return nil, fmt.Errorf("scan sales row: %w", err)
		}
		d.Currency = money.Currency(currency)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (q PGQuerier) TopProducts(ctx context.Context, limit, offset int) ([]TopProduct, error) {
	rows, err := q.Pool.Query(ctx, `
		SELECT i.product_id, i.slug, min(i.title), o.currency, sum(i.quantity), sum(i.line_total)
		FROM order_items i
		JOIN orders o ON o.id = i.order_id
		WHERE o.status <> 'cancelled'
		GROUP BY i.product_id, i.slug, o.currency
		ORDER BY sum(i.quantity) DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("top products: %w", err)
	}
	defer rows.Close()

	var out []TopProduct
	for rows.Next() {
		var (
			p        TopProduct
			currency string
		)
		if err := rows.Scan(&p.ProductID, &p.Slug, &p.Title, &currency, &p.Quantity, &p.Revenue); err != nil {
			return nil, fmt.Errorf("scan top product: %w", err)
		}
		p.Currency = money.Currency(currency)
		out = append(out, p)
	}
	return out, rows.Err()
}

// Service provides cached access to the aggregations.
type Service struct {
	Q            Querier
	R            *redis.Client
	TTL          time.Duration
	DefaultRange int
	Now          func() time.Time
}

func (s *Service) now() time.Time {
	if s != nil && s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func cacheKey(parts ...any) string {
	formatted := make([]string, 0, len(parts))
	for _, part := range parts {
		formatted = append(formatted, fmt.Sprint(part))
	}
	return strings.Join(formatted, ":")
}

// SalesRange returns per-day revenue between from (inclusive) and to
// (exclusive).
func (s *Service) SalesRange(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	key := cacheKey("an", "sales", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached []DailySales
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.SalesDailyRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

// TopProducts returns the best selling products ordered by quantity sold.
func (s *Service) TopProducts(ctx context.Context, limit, offset int) ([]TopProduct, error) {
	if s == nil || s.Q == nil {
		return nil, fmt.Errorf("analytics service not configured")
	}
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	key := cacheKey("an", "top", limit, offset)
	var cached []TopProduct
	if s.fromCache(ctx, key, &cached) {
		return cached, nil
	}
	rows, err := s.Q.TopProducts(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	s.store(ctx, key, rows)
	return rows, nil
}

func (s *Service) fromCache(ctx context.Context, key string, dst any) bool {
	if s.R == nil || s.TTL <= 0 {
		return false
	}
	data, err := s.R.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dst) == nil
}

func (s *Service) store(ctx context.Context, key string, value any) {
	if s.R == nil || s.TTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.R.Set(ctx, key, data, s.TTL).Err()
}
