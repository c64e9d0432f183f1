package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agroflight/backend-shop/internal/money"
)

// Service orchestrates catalog reads for the storefront and the pricing core.
type Service struct {
	store        *Store
	cache        *Cache
	logger       zerolog.Logger
	defaultLimit int
	maxLimit     int
}

// ServiceConfig groups Service dependencies.
type ServiceConfig struct {
	Store        *Store
	Cache        *Cache
	Logger       zerolog.Logger
	DefaultLimit int
	MaxLimit     int
}

// NewService constructs a Service instance.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Store == nil {
		return nil, errors.New("catalog: store is required")
	}
	defaultLimit := cfg.DefaultLimit
	if defaultLimit < 1 {
		defaultLimit = 20
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < defaultLimit {
		maxLimit = 100
	}
	return &Service{
		store:        cfg.Store,
		cache:        cfg.Cache,
		logger:       cfg.Logger,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
	}, nil
}

// BasePrice returns the gross base (non-B2B) price for the product in the
// requested currency. Reads go straight to the store: this value feeds price
// resolution and must never be stale.
func (s *Service) BasePrice(ctx context.Context, productID uuid.UUID, currency money.Currency) (money.Money, error) {
	p, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return 0, err
	}
	return p.BasePrice.Get(currency), nil
}

// CompareAtPrice returns the optional strikethrough price. The second return
// reports presence.
func (s *Service) CompareAtPrice(ctx context.Context, productID uuid.UUID, currency money.Currency) (money.Money, bool, error) {
	p, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return 0, false, err
	}
	v := p.CompareAt.Get(currency)
	return v, v > 0, nil
}

// GetAvailability returns stock and preorder state for the product.
func (s *Service) GetAvailability(ctx context.Context, productID uuid.UUID) (Availability, error) {
	p, err := s.store.GetByID(ctx, productID)
	if err != nil {
		return Availability{}, err
	}
	return p.Availability(), nil
}

// Product loads a product by id without caching.
func (s *Service) Product(ctx context.Context, productID uuid.UUID) (Product, error) {
	return s.store.GetByID(ctx, productID)
}

// ProductBySlug loads a product detail payload, read-through cached.
func (s *Service) ProductBySlug(ctx context.Context, slug string) (Product, error) {
	var cached Product
	if hit, err := s.cache.GetJSON(ctx, ProductKey(slug), &cached); err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}
	p, err := s.store.GetBySlug(ctx, slug)
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.SetJSON(ctx, ProductKey(slug), p); err != nil {
		s.logger.Warn().Err(err).Str("slug", slug).Msg("catalog cache write failed")
	}
	return p, nil
}

// ListResult contains list data and pagination metadata.
type ListResult struct {
	Items []Product `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

// ListProducts returns a page of products, read-through cached.
func (s *Service) ListProducts(ctx context.Context, page, limit int) (ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	key := ListKey(page, limit)
	var cached ListResult
	if hit, err := s.cache.GetJSON(ctx, key, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache read failed")
	} else if hit {
		return cached, nil
	}
	items, total, err := s.store.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return ListResult{}, err
	}
	result := ListResult{Items: items, Total: total, Page: page, Limit: limit}
	if err := s.cache.SetJSON(ctx, key, result); err != nil {
		s.logger.Warn().Err(err).Msg("catalog cache write failed")
	}
	return result, nil
}

// UpsertProduct validates and writes a product, invalidating cached payloads.
// A nil id creates, otherwise updates.
func (s *Service) UpsertProduct(ctx context.Context, id *uuid.UUID, in ProductInput) (Product, error) {
	for _, currency := range []money.Currency{money.PLN, money.EUR} {
		compare := in.CompareAt.Get(currency)
		if compare > 0 && compare <= in.BasePrice.Get(currency) {
			return Product{}, errors.New("catalog: compare-at price must exceed the base price")
		}
	}
	var (
		p   Product
		err error
	)
	if id == nil {
		p, err = s.store.Create(ctx, in)
	} else {
		p, err = s.store.Update(ctx, *id, in)
	}
	if err != nil {
		return Product{}, err
	}
	if err := s.cache.Invalidate(ctx, p.Slug); err != nil {
		s.logger.Warn().Err(err).Str("slug", p.Slug).Msg("catalog cache invalidation failed")
	}
	return p, nil
}
