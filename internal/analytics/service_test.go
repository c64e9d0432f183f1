package analytics_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/agroflight/backend-shop/internal/analytics"
	"github.com/agroflight/backend-shop/internal/money"
)

type stubQuerier struct {
	salesCalls int
	topCalls   int
}

func (s *stubQuerier) SalesDailyRange(ctx context.Context, from, to time.Time) ([]analytics.DailySales, error) {
	s.salesCalls++
	return []analytics.DailySales{
		{Day: from, Currency: money.PLN, Orders: 3, Revenue: 5_400_000, VAT: 1_009_756},
	}, nil
}

func (s *stubQuerier) TopProducts(ctx context.Context, limit, offset int) ([]analytics.TopProduct, error) {
	s.topCalls++
	return []analytics.TopProduct{
		{ProductID: "p1", Slug: "agrosprayer-s10", Title: "AgroSprayer S10", Currency: money.PLN, Quantity: 4, Revenue: 17_999_600},
	}, nil
}

func newTestService(t *testing.T) (*analytics.Service, *stubQuerier) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	q := &stubQuerier{}
	return &analytics.Service{Q: q, R: rdb, TTL: time.Minute, DefaultRange: 30}, q
}

func TestSalesRangeCached(t *testing.T) {
	svc, q := newTestService(t)
	from := time.Now().Add(-24 * time.Hour).Truncate(24 * time.Hour)
	to := time.Now().Truncate(24 * time.Hour)

	first, err := svc.SalesRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := svc.SalesRange(context.Background(), from, to)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if q.salesCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", q.salesCalls)
	}
	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one row from both calls")
	}
	if second[0].Revenue != first[0].Revenue {
		t.Fatalf("cached revenue %d differs from fresh %d", second[0].Revenue, first[0].Revenue)
	}
}

func TestTopProductsCached(t *testing.T) {
	svc, q := newTestService(t)

	if _, err := svc.TopProducts(context.Background(), 10, 0); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.TopProducts(context.Background(), 10, 0); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if q.topCalls != 1 {
		t.Fatalf("expected 1 DB call, got %d", q.topCalls)
	}
	// A different page misses the cache.
	if _, err := svc.TopProducts(context.Background(), 10, 10); err != nil {
		t.Fatalf("third call: %v", err)
	}
	if q.topCalls != 2 {
		t.Fatalf("expected 2 DB calls after new page, got %d", q.topCalls)
	}
}

func TestTopProductsWithoutRedis(t *testing.T) {
	q := &stubQuerier{}
	svc := &analytics.Service{Q: q}
	for i := 0; i < 2; i++ {
		if _, err := svc.TopProducts(context.Background(), 5, 0); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if q.topCalls != 2 {
		t.Fatalf("expected no caching without redis, got %d calls", q.topCalls)
	}
}
