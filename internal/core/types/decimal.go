// Package types holds the exact numeric types sales rows are stored in.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricePlaces is the number of fractional digits unit prices are compared at.
const PricePlaces int32 = 2

// Money is an exact sale amount or unit price.
type Money = decimal.Decimal

// NewMoneyFromString parses a decimal amount ("1234.5", "-3", "1e3").
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney is NewMoneyFromString for literals; it panics on bad input.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Zero() Money {
	return decimal.Zero
}

// RoundPrice rounds a unit price half away from zero to PricePlaces digits.
func RoundPrice(m Money) Money {
	return m.Round(PricePlaces)
}

// PriceKey returns a canonical string for m usable as a map key.
// Equal values produce equal keys regardless of their scale ("10.0" and "10").
func PriceKey(m Money) string {
	return m.String()
}

// Quantity counts units sold in ten-thousandths, so sums stay exact.
type Quantity int64

// quantityExp is the decimal exponent of one Quantity step.
const quantityExp int32 = -4

// NewQuantityFromInt creates a whole-unit Quantity.
func NewQuantityFromInt(v int64) Quantity {
	return QuantityFromDecimal(decimal.NewFromInt(v))
}

// NewQuantityFromFloat rounds v to the nearest Quantity step.
func NewQuantityFromFloat(v float64) Quantity {
	return QuantityFromDecimal(decimal.NewFromFloat(v))
}

// QuantityFromDecimal rounds d half away from zero to four decimals.
func QuantityFromDecimal(d decimal.Decimal) Quantity {
	return Quantity(d.Round(-quantityExp).Shift(-quantityExp).IntPart())
}

// ParseQuantity parses a decimal string ("12", "12.5", "-3.25", "1e2").
func ParseQuantity(s string) (Quantity, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty quantity")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse quantity %q: %w", s, err)
	}
	return QuantityFromDecimal(d), nil
}

func (q Quantity) Float64() float64 { return q.Decimal().InexactFloat64() }

// Decimal returns q as an exact decimal value.
func (q Quantity) Decimal() decimal.Decimal {
	return decimal.New(int64(q), quantityExp)
}

func (q Quantity) IsZero() bool { return q == 0 }

// String returns a decimal string with 4 fractional digits.
func (q Quantity) String() string {
	return q.Decimal().StringFixed(-quantityExp)
}

// MarshalJSON encodes q as a JSON number.
func (q Quantity) MarshalJSON() ([]byte, error) {
	return []byte(q.String()), nil
}

// UnmarshalJSON accepts a JSON number, a numeric string or null.
func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*q = 0
		return nil
	}

	s := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	}
	parsed, err := ParseQuantity(s)
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}
