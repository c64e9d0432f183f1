// Package catalog is the product read model for the storefront and the
// pricing core. Stored prices are gross (VAT-inclusive) minor units per
// currency; the pricing logic only ever reads from here.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agroflight/backend-shop/internal/money"
)

// ErrProductNotFound is returned for unknown product ids or slugs. It is
// fatal to the calling request and surfaces as a 404.
var ErrProductNotFound = errors.New("catalog: product not found")

// ErrSlugTaken is returned when creating a product with an existing slug.
var ErrSlugTaken = errors.New("catalog: slug already in use")

// Availability describes the orderable state of a product.
type Availability struct {
	Stock            int     `json:"stock"`
	PreorderEnabled  bool    `json:"preorderEnabled"`
	PreorderLeadTime *string `json:"preorderLeadTime,omitempty"`
}

// Product is the catalog record. CompareAt holds the optional strikethrough
// price per currency; a zero entry means absent.
type Product struct {
	ID               uuid.UUID     `json:"id"`
	Slug             string        `json:"slug"`
	Title            string        `json:"title"`
	Description      string        `json:"description,omitempty"`
	BasePrice        money.Amounts `json:"basePrice"`
	CompareAt        money.Amounts `json:"compareAt,omitempty"`
	Stock            int           `json:"stock"`
	PreorderEnabled  bool          `json:"preorderEnabled"`
	PreorderLeadTime *string       `json:"preorderLeadTime,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Availability projects the orderable state of the product.
func (p Product) Availability() Availability {
	return Availability{
		Stock:            p.Stock,
		PreorderEnabled:  p.PreorderEnabled,
		PreorderLeadTime: p.PreorderLeadTime,
	}
}

// Store reads and writes products in Postgres.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const productColumns = `
id, slug, title, description,
base_price_pln, base_price_eur,
compare_at_pln, compare_at_eur,
stock, preorder_enabled, preorder_lead_time,
created_at, updated_at`

// GetByID loads a product by id.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return s.getOne(ctx, q, id)
}

// GetBySlug loads a product by its public slug.
func (s *Store) GetBySlug(ctx context.Context, slug string) (Product, error) {
	const q = `SELECT ` + productColumns + ` FROM products WHERE slug = $1`
	return s.getOne(ctx, q, slug)
}

func (s *Store) getOne(ctx context.Context, q string, arg any) (Product, error) {
	p, err := scanProduct(s.pool.QueryRow(ctx, q, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// List returns products ordered by creation time, newest first.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Product, int64, error) {
	const q = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	rows, err := s.pool.Query(ctx, q, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM products`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ProductInput carries the editable fields of a product.
type ProductInput struct {
	Slug             string
	Title            string
	Description      string
	BasePrice        money.Amounts
	CompareAt        money.Amounts
	Stock            int
	PreorderEnabled  bool
	PreorderLeadTime *string
}

// Create inserts a new product.
func (s *Store) Create(ctx context.Context, in ProductInput) (Product, error) {
	const q = `
INSERT INTO products (slug, title, description, base_price_pln, base_price_eur, compare_at_pln, compare_at_eur, stock, preorder_enabled, preorder_lead_time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + productColumns
	row := s.pool.QueryRow(ctx, q,
		in.Slug, in.Title, in.Description,
		in.BasePrice.Get(money.PLN), in.BasePrice.Get(money.EUR),
		nullableAmount(in.CompareAt, money.PLN), nullableAmount(in.CompareAt, money.EUR),
		in.Stock, in.PreorderEnabled, in.PreorderLeadTime,
	)
	p, err := scanProduct(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Product{}, ErrSlugTaken
		}
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	return p, nil
}

// Update replaces the editable fields of an existing product.
func (s *Store) Update(ctx context.Context, id uuid.UUID, in ProductInput) (Product, error) {
	const q = `
UPDATE products
SET slug = $2, title = $3, description = $4,
    base_price_pln = $5, base_price_eur = $6,
    compare_at_pln = $7, compare_at_eur = $8,
    stock = $9, preorder_enabled = $10, preorder_lead_time = $11,
    updated_at = now()
WHERE id = $1
RETURNING ` + productColumns
	row := s.pool.QueryRow(ctx, q, id,
		in.Slug, in.Title, in.Description,
		in.BasePrice.Get(money.PLN), in.BasePrice.Get(money.EUR),
		nullableAmount(in.CompareAt, money.PLN), nullableAmount(in.CompareAt, money.EUR),
		in.Stock, in.PreorderEnabled, in.PreorderLeadTime,
	)
	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrProductNotFound
		}
		return Product{}, err
	}
	return p, nil
}

func nullableAmount(amounts money.Amounts, c money.Currency) *int64 {
	v := amounts.Get(c)
	if v <= 0 {
		return nil
	}
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (Product, error) {
	var p Product
	var basePLN, baseEUR int64
	var comparePLN, compareEUR *int64
	if err := row.Scan(
		&p.ID, &p.Slug, &p.Title, &p.Description,
		&basePLN, &baseEUR,
		&comparePLN, &compareEUR,
		&p.Stock, &p.PreorderEnabled, &p.PreorderLeadTime,
		&p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return Product{}, err
	}
	p.BasePrice = money.Amounts{money.PLN: basePLN, money.EUR: baseEUR}
	p.CompareAt = money.Amounts{}
	if comparePLN != nil {
		p.CompareAt[money.PLN] = *comparePLN
	}
	if compareEUR != nil {
		p.CompareAt[money.EUR] = *compareEUR
	}
	return p, nil
}
