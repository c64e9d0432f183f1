// Package order persists placed orders. An order is an immutable snapshot of
// prices as resolved at checkout; later rule or catalog changes never touch
// it. Only the fulfilment status moves.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
	"github.com/agroflight/backend-shop/internal/pricing"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusNew       Status = "new"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusNew, StatusPaid, StatusShipped, StatusCancelled:
		return Status(raw), nil
	default:
		return "", fmt.Errorf("unknown order status %q", raw)
	}
}

var (
	// ErrNotFound indicates the order does not exist or belongs to someone else.
	ErrNotFound = errors.New("order not found")
)

// Order is the stored order head with its snapshot totals.
type Order struct {
	ID             uuid.UUID       `json:"id"`
	CustomerID     *uuid.UUID      `json:"customerId,omitempty"`
	Email          string          `json:"email"`
	Status         Status          `json:"status"`
	Currency       money.Currency  `json:"currency"`
	Subtotal       money.Money     `json:"subtotal"`
	Net            money.Money     `json:"net"`
	VAT            money.Money     `json:"vat"`
	Shipping       money.Money     `json:"shipping"`
	Total          money.Money     `json:"total"`
	VATRatePercent decimal.Decimal `json:"vatRatePercent"`
	ReverseCharge  bool            `json:"reverseCharge"`
	Lines          []Line          `json:"lines,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Line is one snapshotted order line.
type Line struct {
	ProductID uuid.UUID    `json:"productId"`
	Slug      string       `json:"slug"`
	Title     string       `json:"title"`
	Quantity  int          `json:"quantity"`
	UnitPrice money.Money  `json:"unitPrice"`
	LineTotal money.Money  `json:"lineTotal"`
	Tier      pricing.Tier `json:"tier"`
}

// Snapshot carries the fully priced checkout result that becomes the stored
// order. All amounts are final; the store never recomputes them.
type Snapshot struct {
	Currency       money.Currency
	Lines          []Line
	Subtotal       money.Money
	Net            money.Money
	VAT            money.Money
	Shipping       money.Money
	Total          money.Money
	VATRatePercent decimal.Decimal
	ReverseCharge  bool
}

// Store reads and writes orders in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// Create inserts the order head and lines in one transaction and returns the
// stored order.
func (s *Store) Create(ctx context.Context, customerID *uuid.UUID, email string, snap Snapshot) (Order, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return Order{}, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	o := Order{
		ID:             uuid.New(),
		CustomerID:     customerID,
		Email:          email,
		Status:         StatusNew,
		Currency:       snap.Currency,
		Subtotal:       snap.Subtotal,
		Net:            snap.Net,
		VAT:            snap.VAT,
		Shipping:       snap.Shipping,
		Total:          snap.Total,
		VATRatePercent: snap.VATRatePercent,
		ReverseCharge:  snap.ReverseCharge,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO orders (id, customer_id, email, status, currency, subtotal, net, vat, shipping, total, vat_rate_percent, reverse_charge)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at, updated_at`,
		o.ID, o.CustomerID, o.Email, o.Status, o.Currency, o.Subtotal, o.Net, o.VAT, o.Shipping, o.Total,
		o.VATRatePercent.String(), o.ReverseCharge).
		Scan(&o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("insert order: %w", err)
	}

	o.Lines = make([]Line, 0, len(snap.Lines))
	for _, line := range snap.Lines {
		if line.Quantity <= 0 {
			continue
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO order_items (order_id, product_id, slug, title, quantity, unit_price, line_total, tier)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			o.ID, line.ProductID, line.Slug, line.Title, line.Quantity, line.UnitPrice, line.LineTotal, string(line.Tier))
		if err != nil {
			return Order{}, fmt.Errorf("insert order line: %w", err)
		}
		o.Lines = append(o.Lines, line)
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, fmt.Errorf("commit: %w", err)
	}
	return o, nil
}

const orderColumns = `id, customer_id, email, status, currency, subtotal, net, vat, shipping, total, vat_rate_percent::text, reverse_charge, created_at, updated_at`

// Get returns one order with its lines. When customerID is non-nil the order
// must belong to that customer.
func (s *Store) Get(ctx context.Context, id uuid.UUID, customerID *uuid.UUID) (Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`
	args := []any{id}
	if customerID != nil {
		query += ` AND customer_id = $2`
		args = append(args, *customerID)
	}
	o, err := scanOrder(s.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		return Order{}, err
	}
	lines, err := s.lines(ctx, o.ID)
	if err != nil {
		return Order{}, err
	}
	o.Lines = lines
	return o, nil
}

// ListByCustomer returns a customer's orders, newest first, without lines.
func (s *Store) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit, offset int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`, customerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// List returns all orders for the admin surface, newest first, without lines.
func (s *Store) List(ctx context.Context, limit, offset int) ([]Order, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT `+orderColumns+` FROM orders
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	return collectOrders(rows)
}

// SetStatus moves an order to the given fulfilment status.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, status Status) (Order, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return Order{}, fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return Order{}, ErrNotFound
	}
	return s.Get(ctx, id, nil)
}

func (s *Store) lines(ctx context.Context, orderID uuid.UUID) ([]Line, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT product_id, slug, title, quantity, unit_price, line_total, tier
		FROM order_items
		WHERE order_id = $1
		ORDER BY slug`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order lines: %w", err)
	}
	defer rows.Close()

	var lines []Line
	for rows.Next() {
		var (
			line Line
			tier string
		)
		if err := rows.Scan(&line.ProductID, &line.Slug, &line.Title, &line.Quantity, &line.UnitPrice, &line.LineTotal, &tier); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		line.Tier = pricing.Tier(tier)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func scanOrder(row pgx.Row) (Order, error) {
	var (
		o        Order
		status   string
		currency string
		rate     string
	)
	err := row.Scan(&o.ID, &o.CustomerID, &o.Email, &status, &currency, &o.Subtotal, &o.Net, &o.VAT,
		&o.Shipping, &o.Total, &rate, &o.ReverseCharge, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, fmt.Errorf("scan order: %w", err)
	}
	o.Status = Status(status)
	o.Currency = money.Currency(currency)
	o.VATRatePercent, err = decimal.NewFromString(rate)
	if err != nil {
		return Order{}, fmt.Errorf("parse vat rate: %w", err)
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
