// =============================================================================
// Payments Engine - Money Module
// =============================================================================
//
// Fixed-point monetary values with exactly four fractional digits. A Money
// is an int64 count of 0.0001 units, so the representable range is
// [-922337203685477.5808, 922337203685477.5807]. All arithmetic is checked:
// an operation whose true result falls outside that range fails instead of
// wrapping.
//
// Parsing and formatting go through shopspring/decimal so the text contract
// stays exact: inputs with more than four fractional digits are rejected
// (excess precision is an error, not a rounding), and formatting always
// emits the canonical four-digit form.
//
// =============================================================================

package money

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// unitsPerWhole is the number of representable units in 1.0000.
const unitsPerWhole = 10000

// fractionalDigits is the fixed decimal scale of every Money value.
const fractionalDigits = 4

var (
	// ErrOverflow reports an arithmetic result above the representable range.
	ErrOverflow = errors.New("money: arithmetic overflow")

	// ErrUnderflow reports an arithmetic result below the representable range.
	ErrUnderflow = errors.New("money: arithmetic underflow")

	// ErrPrecision reports an input with more than four fractional digits.
	ErrPrecision = errors.New("money: more than four fractional digits")

	// ErrRange reports a parsed value outside the representable range.
	ErrRange = errors.New("money: value out of range")

	// ErrSyntax reports text that is not a plain decimal literal.
	ErrSyntax = errors.New("money: invalid decimal literal")
)

// Money is a signed fixed-point amount with four fractional digits.
// The zero value is 0.0000 and ready to use.
type Money struct {
	units int64
}

// Max is the largest representable Money (922337203685477.5807).
var Max = Money{units: math.MaxInt64}

// Min is the smallest representable Money (-922337203685477.5808).
var Min = Money{units: math.MinInt64}

// Zero returns the zero amount.
func Zero() Money {
	return Money{}
}

// FromUnits builds a Money from a raw count of 0.0001 units.
func FromUnits(units int64) Money {
	return Money{units: units}
}

// Units returns the raw count of 0.0001 units.
func (m Money) Units() int64 {
	return m.units
}

// Parse converts a decimal literal into a Money.
//
// The literal may carry a leading sign and at most four fractional digits.
// Scientific notation is accepted only when the effective exponent keeps the
// value within four fractional digits. NaN, infinities, hex floats and any
// other non-decimal syntax fail with ErrSyntax.
func Parse(text string) (Money, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Money{}, fmt.Errorf("%w: empty string", ErrSyntax)
	}

	d, err := decimal.NewFromString(trimmed)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrSyntax, trimmed)
	}

	// decimal.NewFromString preserves the literal's scale, so the exponent
	// tells us how many fractional digits the text carried.
	if d.Exponent() < -fractionalDigits {
		return Money{}, fmt.Errorf("%w: %q", ErrPrecision, trimmed)
	}

	scaled := d.Shift(fractionalDigits)
	if !scaled.IsInteger() {
		return Money{}, fmt.Errorf("%w: %q", ErrPrecision, trimmed)
	}
	if scaled.Cmp(maxUnitsDec) > 0 || scaled.Cmp(minUnitsDec) < 0 {
		return Money{}, fmt.Errorf("%w: %q", ErrRange, trimmed)
	}

	return Money{units: scaled.IntPart()}, nil
}

// MustParse is Parse for literals known to be valid. It panics on error and
// exists for tests and constants.
func MustParse(text string) Money {
	m, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return m
}

var (
	maxUnitsDec = decimal.NewFromInt(math.MaxInt64)
	minUnitsDec = decimal.NewFromInt(math.MinInt64)
)

// CheckedAdd returns m + other, or ErrOverflow/ErrUnderflow when the sum is
// not representable. m is unchanged on failure.
func (m Money) CheckedAdd(other Money) (Money, error) {
	sum := m.units + other.units
	if m.units > 0 && other.units > 0 && sum < 0 {
		return Money{}, ErrOverflow
	}
	if m.units < 0 && other.units < 0 && sum >= 0 {
		return Money{}, ErrUnderflow
	}
	return Money{units: sum}, nil
}

// CheckedSub returns m - other, or ErrOverflow/ErrUnderflow when the
// difference is not representable. m is unchanged on failure.
func (m Money) CheckedSub(other Money) (Money, error) {
	if other.units == math.MinInt64 {
		// -MinInt64 is itself unrepresentable; handle without negating.
		if m.units < 0 {
			return Money{units: m.units - other.units}, nil
		}
		return Money{}, ErrOverflow
	}
	return m.CheckedAdd(Money{units: -other.units})
}

// IsZero reports whether m is exactly zero.
func (m Money) IsZero() bool {
	return m.units == 0
}

// IsNegative reports whether m < 0.
func (m Money) IsNegative() bool {
	return m.units < 0
}

// IsPositive reports whether m > 0.
func (m Money) IsPositive() bool {
	return m.units > 0
}

// Cmp compares m and other: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.units < other.units:
		return -1
	case m.units > other.units:
		return 1
	default:
		return 0
	}
}

// String returns the canonical form with exactly four fractional digits,
// e.g. "1.5000", "-0.0001", "0.0000".
func (m Money) String() string {
	return decimal.New(m.units, -fractionalDigits).StringFixed(fractionalDigits)
}
