// Package cart persists shopping carts. A cart belongs either to a B2B
// account or to an anonymous session token; items reference catalog products
// by id and carry only a quantity, prices are resolved at read time and at
// checkout, never stored in the cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the requested cart could not be located or has expired.
var ErrNotFound = errors.New("cart not found")

// Cart is the stored cart head. CustomerID and AnonID are mutually exclusive.
type Cart struct {
	ID         uuid.UUID
	CustomerID *uuid.UUID
	AnonID     *string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Item is one cart line.
type Item struct {
	ProductID uuid.UUID
	Quantity  int
	AddedAt   time.Time
}

// Store reads and writes carts in Postgres.
type Store struct {
	Pool *pgxpool.Pool
	TTL  time.Duration
	Now  func() time.Time
}

func (s *Store) ttl() time.Duration {
	if s.TTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return s.TTL
}

func (s *Store) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// EnsureCart loads the active cart for the given owner, creating one when
// none exists. Expired carts are treated as absent. Exactly one of customerID
// and anonID must be set.
func (s *Store) EnsureCart(ctx context.Context, customerID *uuid.UUID, anonID string) (Cart, error) {
	if customerID == nil && anonID == "" {
		return Cart{}, errors.New("cart owner is required")
	}
	expires := s.now().Add(s.ttl())

	var (
		c   Cart
		err error
	)
	if customerID != nil {
		err = s.Pool.QueryRow(ctx, `
			SELECT id, customer_id, anon_id, expires_at, created_at, updated_at
			FROM carts
			WHERE customer_id = $1 AND expires_at > now()`, *customerID).
			Scan(&c.ID, &c.CustomerID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	} else {
		err = s.Pool.QueryRow(ctx, `
			SELECT id, customer_id, anon_id, expires_at, created_at, updated_at
			FROM carts
			WHERE anon_id = $1 AND expires_at > now()`, anonID).
			Scan(&c.ID, &c.CustomerID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	}
	if err == nil {
		_, _ = s.Pool.Exec(ctx, `UPDATE carts SET expires_at = $2, updated_at = now() WHERE id = $1`, c.ID, expires)
		c.ExpiresAt = expires
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, fmt.Errorf("load cart: %w", err)
	}

	var anon *string
	if anonID != "" {
		anon = &anonID
	}
	err = s.Pool.QueryRow(ctx, `
		INSERT INTO carts (id, customer_id, anon_id, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, customer_id, anon_id, expires_at, created_at, updated_at`,
		uuid.New(), customerID, anon, expires).
		Scan(&c.ID, &c.CustomerID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return Cart{}, fmt.Errorf("create cart: %w", err)
	}
	return c, nil
}

// Get returns a live cart by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Cart, error) {
	var c Cart
	err := s.Pool.QueryRow(ctx, `
		SELECT id, customer_id, anon_id, expires_at, created_at, updated_at
		FROM carts
		WHERE id = $1 AND expires_at > now()`, id).
		Scan(&c.ID, &c.CustomerID, &c.AnonID, &c.ExpiresAt, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Cart{}, ErrNotFound
	}
	if err != nil {
		return Cart{}, fmt.Errorf("get cart: %w", err)
	}
	return c, nil
}

// SetItem upserts a cart line. Quantity <= 0 removes the line.
func (s *Store) SetItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return s.RemoveItem(ctx, cartID, productID)
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = EXCLUDED.quantity`,
		cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("set cart item: %w", err)
	}
	return s.touch(ctx, cartID)
}

// AddItem increments a cart line by the given quantity, creating it at that
// quantity when absent.
func (s *Store) AddItem(ctx context.Context, cartID, productID uuid.UUID, quantity int) error {
	if quantity <= 0 {
		return nil
	}
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity`,
		cartID, productID, quantity)
	if err != nil {
		return fmt.Errorf("add cart item: %w", err)
	}
	return s.touch(ctx, cartID)
}

// RemoveItem deletes a cart line. Removing an absent line is not an error.
func (s *Store) RemoveItem(ctx context.Context, cartID, productID uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2`, cartID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}
	return s.touch(ctx, cartID)
}

// Items returns the cart lines, oldest first.
func (s *Store) Items(ctx context.Context, cartID uuid.UUID) ([]Item, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, quantity, added_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY added_at`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ProductID, &it.Quantity, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// Clear empties the cart after a successful checkout.
func (s *Store) Clear(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return s.touch(ctx, cartID)
}

func (s *Store) touch(ctx context.Context, cartID uuid.UUID) error {
	_, err := s.Pool.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}
