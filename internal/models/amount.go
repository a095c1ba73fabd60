package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a number of units of a commodity. The number keeps the scale it
// was parsed with, so "1000.00 EUR" renders back as written.
type Amount struct {
	Number   decimal.Decimal `json:"number" yaml:"number"`
	Currency string          `json:"currency" yaml:"currency"`
}

// NewAmount creates a new Amount with the given number and currency
func NewAmount(number decimal.Decimal, currency string) Amount {
	return Amount{
		Number:   number,
		Currency: currency,
	}
}

// IsZero returns true if the number is zero
func (a Amount) IsZero() bool {
	return a.Number.IsZero()
}

// Mul converts the amount with a per-unit price, yielding the price currency.
func (a Amount) Mul(price Amount) Amount {
	return Amount{Number: a.Number.Mul(price.Number), Currency: price.Currency}
}

// String renders "<number> <currency>" with the number at its own scale.
func (a Amount) String() string {
	if exp := a.Number.Exponent(); exp < 0 {
		return fmt.Sprintf("%s %s", a.Number.StringFixed(-exp), a.Currency)
	}
	return fmt.Sprintf("%s %s", a.Number.String(), a.Currency)
}
