package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency amount kept at two decimal places.
type Money struct {
	decimal.Decimal
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{Decimal: decimal.Zero}

// NewMoney wraps a decimal, rounding to cents.
func NewMoney(amount decimal.Decimal) Money {
	return Money{Decimal: amount.Round(2)}
}

// MoneyFromCents builds a Money from minor units.
func MoneyFromCents(cents int64) Money {
	return Money{Decimal: decimal.NewFromInt(cents).Shift(-2)}
}

// ParseMoney parses a decimal string such as "12.50".
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return ZeroMoney, fmt.Errorf("parse money %q: %w", raw, err)
	}
	return NewMoney(d), nil
}

// MustMoney is ParseMoney for literals.
func MustMoney(raw string) Money {
	m, err := ParseMoney(raw)
	if err != nil {
		panic(err)
	}
	return m
}

func (m Money) Add(other Money) Money {
	return NewMoney(m.Decimal.Add(other.Decimal))
}

func (m Money) Sub(other Money) Money {
	return NewMoney(m.Decimal.Sub(other.Decimal))
}

// Times multiplies by an integer quantity.
func (m Money) Times(qty int) Money {
	return NewMoney(m.Decimal.Mul(decimal.NewFromInt(int64(qty))))
}

// Max returns the larger of m and other.
func (m Money) Max(other Money) Money {
	if other.Decimal.GreaterThan(m.Decimal) {
		return other
	}
	return m
}

// Equal compares by value, ignoring exponent differences.
func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// MarshalJSON emits a number with two decimals, the shape the marketplace API expects.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.Decimal.Round(2).StringFixed(2)), nil
}

// UnmarshalJSON accepts both numbers and numeric strings.
func (m *Money) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		m.Decimal = decimal.Zero
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if s == "" {
			m.Decimal = decimal.Zero
			return nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		m.Decimal = d.Round(2)
		return nil
	}
	d, err := decimal.NewFromString(string(b))
	if err != nil {
		return err
	}
	m.Decimal = d.Round(2)
	return nil
}

func (m Money) String() string {
	return m.Decimal.Round(2).StringFixed(2)
}
