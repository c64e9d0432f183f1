// Package b2b holds the wholesale side of the store: customer accounts with
// an approval lifecycle and per-product price rules, optionally scoped to a
// single customer.
package b2b

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/agroflight/backend-shop/internal/money"
)

// Region determines which settlement currency applies to a B2B customer.
type Region string

// Region values match the CHECK constraint on b2b_customers.region; they are
// stored and compared lowercase.
const (
	// RegionHome covers domestic customers billed in PLN.
	RegionHome Region = "home"
	// RegionForeign covers intra-community customers billed in EUR with
	// reverse-charged VAT.
	RegionForeign Region = "foreign"
)

// Currency returns the settlement currency for the region.
func (r Region) Currency() money.Currency {
	if r == RegionForeign {
		return money.EUR
	}
	return money.PLN
}

// ParseRegion validates a region value, accepting any casing.
func ParseRegion(value string) (Region, error) {
	switch Region(strings.ToLower(strings.TrimSpace(value))) {
	case RegionHome:
		return RegionHome, nil
	case RegionForeign:
		return RegionForeign, nil
	default:
		return "", errors.New("b2b: unknown region")
	}
}

// Status is the account approval state. Only approved customers receive B2B
// prices; pending and rejected accounts shop at regular prices.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus validates a status value.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	default:
		return "", errors.New("b2b: unknown status")
	}
}

// Customer is a wholesale account.
type Customer struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"companyName"`
	VATID       string    `json:"vatId"`
	Region      Region    `json:"region"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Approved reports whether the account may receive B2B prices.
func (c *Customer) Approved() bool {
	return c != nil && c.Status == StatusApproved
}

// PriceRule is one per-product pricing override. CustomerID nil means the
// rule is regional: it applies to every approved B2B customer for the
// product. Per currency side a rule may carry a fixed price, a discount
// percent, both, or neither; a fixed price of zero and a discount of zero
// both mean "not set".
type PriceRule struct {
	ID         uuid.UUID                        `json:"id"`
	ProductID  uuid.UUID                        `json:"productId"`
	CustomerID *uuid.UUID                       `json:"customerId,omitempty"`
	Fixed      money.Amounts                    `json:"fixed"`
	Discount   map[money.Currency]decimal.Decimal `json:"discount"`
	CreatedAt  time.Time                        `json:"createdAt"`
	UpdatedAt  time.Time                        `json:"updatedAt"`
}

// FixedFor returns the fixed price for the currency and whether it is set.
func (r *PriceRule) FixedFor(c money.Currency) (money.Money, bool) {
	if r == nil {
		return 0, false
	}
	v := r.Fixed.Get(c)
	return v, v > 0
}

// DiscountFor returns the discount percent for the currency and whether it is set.
func (r *PriceRule) DiscountFor(c money.Currency) (decimal.Decimal, bool) {
	if r == nil || r.Discount == nil {
		return decimal.Zero, false
	}
	d, ok := r.Discount[c]
	if !ok || d.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return d, true
}
