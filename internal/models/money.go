package models

import (
	"bytes"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fraction digits kept for currency amounts.
const MoneyScale = 2

var ErrNotNumeric = errors.New("amount must be numeric")

// MaxAmount is the largest amount accepted for a single expense. Cents of
// anything at or below it fit an int64 with room for per-user sums.
var MaxAmount = MoneyFromCents(100_000_000_000_000)

// Money is a currency amount with two fraction digits.
// It serializes as a bare JSON number (42.50) and accepts numbers or numeric strings.
type Money struct {
	d decimal.Decimal
}

func NewMoney(d decimal.Decimal) Money {
	return Money{d: d.Round(MoneyScale)}
}

// MoneyFromCents converts an integer amount of cents.
func MoneyFromCents(cents int64) Money {
	return Money{d: decimal.New(cents, -MoneyScale)}
}

// ParseMoney parses a decimal string, rounding half away from zero to cents.
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrNotNumeric
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrNotNumeric
	}
	return NewMoney(d), nil
}

func (m Money) Decimal() decimal.Decimal { return m.d }

// Cents returns the amount as an integer number of cents. The result is
// only meaningful for amounts within MaxAmount.
func (m Money) Cents() int64 {
	return m.d.Shift(MoneyScale).Round(0).IntPart()
}

func (m Money) Add(o Money) Money { return Money{d: m.d.Add(o.d)} }

func (m Money) IsPositive() bool { return m.d.IsPositive() }

func (m Money) GreaterThan(o Money) bool { return m.d.GreaterThan(o.d) }

func (m Money) IsZero() bool { return m.d.IsZero() }

func (m Money) Equal(o Money) bool { return m.d.Equal(o.d) }

func (m Money) String() string { return m.d.StringFixed(MoneyScale) }

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Money) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*m = Money{}
		return nil
	}
	s := string(b)
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		s = string(b[1 : len(b)-1])
	}
	parsed, err := ParseMoney(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
