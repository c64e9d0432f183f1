package b2b

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/agroflight/backend-shop/internal/common"
)

// Directory resolves the B2B account behind the current request. Pricing
// surfaces only ever see approved accounts; pending, rejected, deleted or
// anonymous sessions all come back as absent, never as an error.
type Directory struct {
	Store *Store
}

// ApprovedCustomer returns the approved account for the request context, or
// nil when no B2B pricing applies.
func (d Directory) ApprovedCustomer(ctx context.Context) (*Customer, error) {
	if d.Store == nil {
		return nil, nil
	}
	raw, ok := common.CustomerID(ctx)
	if !ok || raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, nil
	}
	customer, err := d.Store.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if customer.Status != StatusApproved {
		return nil, nil
	}
	return &customer, nil
}
