package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places carried by ledger amounts.
const Scale = 2

// Amount is a monetary quantity expressed in minor units. Ledger balances are
// always non-negative; entry amounts may be signed (negative for debits).
type Amount int64

// ErrNotRepresentable occurs when a decimal string carries more precision
// than the ledger scale supports.
var ErrNotRepresentable = fmt.Errorf("amount not representable at scale %d", Scale)

// FromMinorUnits wraps a raw minor-unit quantity.
func FromMinorUnits(units int64) Amount {
	return Amount(units)
}

// Parse converts a decimal string such as "1000.00" into minor units. The
// value must be exactly representable at the ledger scale.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(Scale)
	if !shifted.IsInteger() {
		return 0, ErrNotRepresentable
	}
	// IntPart wraps silently outside int64 range.
	if !shifted.BigInt().IsInt64() {
		return 0, ErrNotRepresentable
	}
	return Amount(shifted.IntPart()), nil
}

// MinorUnits returns the raw minor-unit value.
func (a Amount) MinorUnits() int64 {
	return int64(a)
}

// Decimal returns the amount as a fixed-point decimal in major units.
func (a Amount) Decimal() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount in major units, e.g. "1000.00".
func (a Amount) String() string {
	return a.Decimal().StringFixed(Scale)
}

// Neg flips the sign of the amount.
func (a Amount) Neg() Amount {
	return -a
}

// Abs returns the magnitude of the amount.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// IsPositive reports whether the amount is strictly greater than zero.
func (a Amount) IsPositive() bool {
	return a > 0
}

// IsNegative reports whether the amount is strictly less than zero.
func (a Amount) IsNegative() bool {
	return a < 0
}
