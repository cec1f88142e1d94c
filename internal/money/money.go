// Package money holds exact currency amounts.
//
// Every amount inside the service is an integer count of minor currency units
// (paise, cents). Major-unit decimals only appear at the JSON boundary, where
// amounts are written as plain numbers and read back with half-up rounding.
package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places between major and minor units.
const Scale = 2

var ErrInvalidAmount = errors.New("invalid amount")

// Amount is a signed number of minor currency units.
type Amount int64

// FromMajor converts a major-unit decimal to minor units, rounding half away
// from zero on the third decimal place.
func FromMajor(d decimal.Decimal) (Amount, error) {
	minor := d.Shift(Scale).Round(0)
	if !minor.IsInteger() || minor.Abs().GreaterThan(decimal.NewFromInt(maxMinor)) {
		return 0, fmt.Errorf("%w: %s out of range", ErrInvalidAmount, d.String())
	}
	return Amount(minor.IntPart()), nil
}

// Parse reads a major-unit decimal string such as "12.34" or "12,34".
func Parse(s string) (Amount, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return 0, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	return FromMajor(d)
}

// maxMinor keeps a sum of a few thousand amounts well inside int64.
const maxMinor = 1 << 52

// Major returns the amount in major units.
func (a Amount) Major() decimal.Decimal {
	return decimal.New(int64(a), -Scale)
}

// String renders the amount with exactly Scale decimals.
func (a Amount) String() string {
	return a.Major().StringFixed(Scale)
}

// Abs returns the absolute value.
func (a Amount) Abs() Amount {
	if a < 0 {
		return -a
	}
	return a
}

// MarshalJSON writes the amount as a bare JSON number in major units.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.Major().String()), nil
}

// UnmarshalJSON accepts a JSON number or a quoted decimal string.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		return nil
	}
	v, err := Parse(s)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Sum adds amounts.
func Sum(amounts ...Amount) Amount {
	var total Amount
	for _, v := range amounts {
		total += v
	}
	return total
}
