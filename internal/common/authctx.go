package common

import "context"

type ctxKey string

const customerIDKey ctxKey = "auth/customer-id"

// WithCustomerID stores the authenticated B2B customer identifier on the context.
func WithCustomerID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, customerIDKey, id)
}

// CustomerID extracts the authenticated B2B customer identifier if present.
// Anonymous storefront traffic carries no identifier; callers treat the
// absent case as "no B2B pricing applies".
func CustomerID(ctx context.Context) (string, bool) {
	v := ctx.Value(customerIDKey)
	if v == nil {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
