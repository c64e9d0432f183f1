package b2b

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

var (
	// ErrCustomerNotFound is returned for unknown customer identifiers.
	ErrCustomerNotFound = errors.New("b2b: customer not found")
	// ErrRuleNotFound is returned for unknown rule identifiers.
	ErrRuleNotFound = errors.New("b2b: price rule not found")
	// ErrDuplicateRule is returned when creating a rule for a
	// (product, customer) pair that already has one.
	ErrDuplicateRule = errors.New("b2b: duplicate price rule")
	// ErrEmailTaken is returned when registering an already-registered email.
	ErrEmailTaken = errors.New("b2b: email already registered")
)

const pgUniqueViolation = "23505"

// Store provides access to B2B customers and price rules. Rule lookups always
// hit the database: a stale rule read is a pricing bug, so no cache sits in
// front of this store.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// NewCustomerParams captures the fields needed to create an account.
type NewCustomerParams struct {
	Email        string
	PasswordHash string
	CompanyName  string
	VATID        string
	Region       Region
	Status       Status
}

const customerColumns = `id, email, company_name, vat_id, region, status, created_at`

// CreateCustomer inserts a new account. Administrators may create accounts
// pre-approved; self-registration always starts pending.
func (s *Store) CreateCustomer(ctx context.Context, p NewCustomerParams) (Customer, error) {
	if p.Status == "" {
		p.Status = StatusPending
	}
	const q = `
INSERT INTO b2b_customers (email, password_hash, company_name, vat_id, region, status)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + customerColumns
	row := s.pool.QueryRow(ctx, q, p.Email, p.PasswordHash, p.CompanyName, p.VATID, string(p.Region), string(p.Status))
	c, err := scanCustomer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return Customer{}, ErrEmailTaken
		}
		return Customer{}, fmt.Errorf("create customer: %w", err)
	}
	return c, nil
}

// GetCustomer loads an account by id.
func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM b2b_customers WHERE id = $1`
	c, err := scanCustomer(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// Credentials returns the account and password hash for login.
func (s *Store) Credentials(ctx context.Context, email string) (Customer, string, error) {
	const q = `SELECT ` + customerColumns + `, password_hash FROM b2b_customers WHERE email = $1`
	row := s.pool.QueryRow(ctx, q, email)
	var c Customer
	var region, status, hash string
	if err := row.Scan(&c.ID, &c.Email, &c.CompanyName, &c.VATID, &region, &status, &c.CreatedAt, &hash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, "", ErrCustomerNotFound
		}
		return Customer{}, "", err
	}
	c.Region = Region(strings.ToLower(region))
	c.Status = Status(status)
	return c, hash, nil
}

// ListCustomers returns accounts, optionally filtered by status.
func (s *Store) ListCustomers(ctx context.Context, status *Status, limit, offset int) ([]Customer, error) {
	const q = `
SELECT ` + customerColumns + `
FROM b2b_customers
WHERE ($1::text IS NULL OR status = $1)
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`
	var filter *string
	if status != nil {
		v := string(*status)
		filter = &v
	}
	rows, err := s.pool.Query(ctx, q, filter, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// SetCustomerStatus transitions the approval state. Approved and rejected are
// mutually reversible; the transition itself carries no other side effects.
func (s *Store) SetCustomerStatus(ctx context.Context, id uuid.UUID, status Status) (Customer, error) {
	const q = `
UPDATE b2b_customers SET status = $2, updated_at = now()
WHERE id = $1
RETURNING ` + customerColumns
	c, err := scanCustomer(s.pool.QueryRow(ctx, q, id, string(status)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Customer{}, ErrCustomerNotFound
		}
		return Customer{}, err
	}
	return c, nil
}

// DeleteCustomer removes the account. Rules scoped to the customer go with it
// through the ON DELETE CASCADE on b2b_price_rules.customer_id.
func (s *Store) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM b2b_customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}
	return nil
}

const ruleColumns = `
id, product_id, customer_id,
fixed_price_pln, fixed_price_eur,
discount_pln::text, discount_eur::text,
created_at, updated_at`

// FindRule returns the rule scoped exactly to (product, customer), nil when absent.
func (s *Store) FindRule(ctx context.Context, productID, customerID uuid.UUID) (*PriceRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM b2b_price_rules WHERE product_id = $1 AND customer_id = $2`
	return s.findOneRule(ctx, q, productID, customerID)
}

// FindRegionalRule returns the product's rule with no customer scope, nil when absent.
func (s *Store) FindRegionalRule(ctx context.Context, productID uuid.UUID) (*PriceRule, error) {
	const q = `SELECT ` + ruleColumns + ` FROM b2b_price_rules WHERE product_id = $1 AND customer_id IS NULL`
	return s.findOneRule(ctx, q, productID)
}

func (s *Store) findOneRule(ctx context.Context, q string, args ...any) (*PriceRule, error) {
	rule, err := scanRule(s.pool.QueryRow(ctx, q, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// ListRulesByProduct returns every rule for a product, regional first.
func (s *Store) ListRulesByProduct(ctx context.Context, productID uuid.UUID) ([]PriceRule, error) {
	const q = `
SELECT ` + ruleColumns + `
FROM b2b_price_rules
WHERE product_id = $1
ORDER BY customer_id NULLS FIRST, created_at`
	rows, err := s.pool.Query(ctx, q, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PriceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, rows.Err()
}

// RuleInput carries the editable fields of a rule.
type RuleInput struct {
	ProductID  uuid.UUID
	CustomerID *uuid.UUID
	Fixed      money.Amounts
	Discount   map[money.Currency]decimal.Decimal
}

// CreateRule inserts a new rule. The partial unique index on
// (product_id, customer_id) enforces the at-most-one invariant; a conflict
// maps to ErrDuplicateRule and is surfaced to the administrator, not retried.
func (s *Store) CreateRule(ctx context.Context, in RuleInput) (PriceRule, error) {
	const q = `
INSERT INTO b2b_price_rules (product_id, customer_id, fixed_price_pln, fixed_price_eur, discount_pln, discount_eur)
VALUES ($1, $2, $3, $4, $5::numeric, $6::numeric)
RETURNING ` + ruleColumns
	row := s.pool.QueryRow(ctx, q,
		in.ProductID, in.CustomerID,
		in.Fixed.Get(money.PLN), in.Fixed.Get(money.EUR),
		discountArg(in.Discount, money.PLN), discountArg(in.Discount, money.EUR),
	)
	rule, err := scanRule(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return PriceRule{}, ErrDuplicateRule
		}
		return PriceRule{}, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

// UpdateRule replaces the pricing fields of an existing rule.
func (s *Store) UpdateRule(ctx context.Context, id uuid.UUID, in RuleInput) (PriceRule, error) {
	const q = `
UPDATE b2b_price_rules
SET fixed_price_pln = $2,
    fixed_price_eur = $3,
    discount_pln = $4::numeric,
    discount_eur = $5::numeric,
    updated_at = now()
WHERE id = $1
RETURNING ` + ruleColumns
	row := s.pool.QueryRow(ctx, q, id,
		in.Fixed.Get(money.PLN), in.Fixed.Get(money.EUR),
		discountArg(in.Discount, money.PLN), discountArg(in.Discount, money.EUR),
	)
	rule, err := scanRule(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PriceRule{}, ErrRuleNotFound
		}
		return PriceRule{}, err
	}
	return rule, nil
}

// DeleteRule removes a rule by id.
func (s *Store) DeleteRule(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM b2b_price_rules WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRuleNotFound
	}
	return nil
}

func discountArg(discounts map[money.Currency]decimal.Decimal, c money.Currency) *string {
	if discounts == nil {
		return nil
	}
	d, ok := discounts[c]
	if !ok || d.LessThanOrEqual(decimal.Zero) {
		return nil
	}
	v := d.String()
	return &v
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (Customer, error) {
	var c Customer
	var region, status string
	if err := row.Scan(&c.ID, &c.Email, &c.CompanyName, &c.VATID, &region, &status, &c.CreatedAt); err != nil {
		return Customer{}, err
	}
	c.Region = Region(strings.ToLower(region))
	c.Status = Status(status)
	return c, nil
}

func scanRule(row rowScanner) (PriceRule, error) {
	var r PriceRule
	var fixedPLN, fixedEUR int64
	var discPLN, discEUR *string
	if err := row.Scan(&r.ID, &r.ProductID, &r.CustomerID, &fixedPLN, &fixedEUR, &discPLN, &discEUR, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return PriceRule{}, err
	}
	r.Fixed = money.Amounts{money.PLN: fixedPLN, money.EUR: fixedEUR}
	r.Discount = map[money.Currency]decimal.Decimal{}
	for c, raw := range map[money.Currency]*string{money.PLN: discPLN, money.EUR: discEUR} {
		if raw == nil {
			continue
		}
		d, err := decimal.NewFromString(*raw)
		if err != nil {
			return PriceRule{}, fmt.Errorf("parse discount: %w", err)
		}
		if d.GreaterThan(decimal.Zero) {
			r.Discount[c] = d
		}
	}
	return r, nil
}
