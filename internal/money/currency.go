package money

import (
	"errors"
	"strings"
)

// Currency identifies one of the supported settlement currencies.
type Currency string

const (
	// PLN is the home currency, amounts in grosz.
	PLN Currency = "PLN"
	// EUR is the foreign currency, amounts in cents.
	EUR Currency = "EUR"
)

// ErrUnknownCurrency is returned for currency codes outside the supported set.
var ErrUnknownCurrency = errors.New("money: unknown currency")

// ParseCurrency normalises and validates a currency code.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToUpper(strings.TrimSpace(code))) {
	case PLN:
		return PLN, nil
	case EUR:
		return EUR, nil
	default:
		return "", ErrUnknownCurrency
	}
}

// Amounts maps a currency to an amount in that currency's minor units. Price
// pairs are represented this way internally so adding a currency is a data
// change, not a schema change.
type Amounts map[Currency]Money

// Get returns the amount for the currency, zero when absent.
func (a Amounts) Get(c Currency) Money {
	if a == nil {
		return 0
	}
	return a[c]
}
