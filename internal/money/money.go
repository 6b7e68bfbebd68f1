// Package money represents currency amounts as integer minor units.
package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an amount in minor currency units (1/100).
type Cents int64

// FromFloat converts a decimal amount such as 19.99 to cents, rounding half away from zero.
func FromFloat(v float64) Cents {
	return Cents(decimal.NewFromFloat(v).Shift(2).Round(0).IntPart())
}

// Parse converts a decimal string such as "5.99" to cents.
func Parse(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return Cents(d.Shift(2).Round(0).IntPart()), nil
}

// Mul multiplies the amount by a quantity.
func (c Cents) Mul(qty int) Cents { return c * Cents(qty) }

// Decimal returns the amount in major units.
func (c Cents) Decimal() decimal.Decimal { return decimal.New(int64(c), -2) }

// Float64 returns the amount in major units for storage in numeric columns.
func (c Cents) Float64() float64 { return c.Decimal().InexactFloat64() }

// String formats the amount with exactly two decimals.
func (c Cents) String() string { return c.Decimal().StringFixed(2) }

// MarshalJSON renders the amount as a two-decimal string, e.g. "45.99".
func (c Cents) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

// UnmarshalJSON accepts either a JSON number or a decimal string.
func (c *Cents) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return fmt.Errorf("decode amount: %w", err)
	}
	*c = Cents(d.Shift(2).Round(0).IntPart())
	return nil
}
