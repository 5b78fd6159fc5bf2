// Package types holds shared value types for monetary and quantity math.
//
// All money and quantity fields use decimal.Decimal and are compared at
// four decimal places. Float math is never used for business values.
package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places business values are rounded to
// before comparison or storage.
const Scale = 4

// Money is an exact decimal amount. Alias kept for readability in models.
type Money = decimal.Decimal

// ParseDecimal converts a loosely typed JSON value into a Decimal.
// Payloads arrive with numbers as json.Number (decoder uses UseNumber),
// strings, or occasionally raw float64 when re-marshalled upstream.
func ParseDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, fmt.Errorf("value is null")
	case json.Number:
		return decimal.NewFromString(n.String())
	case string:
		if n == "" {
			return decimal.Zero, fmt.Errorf("value is empty")
		}
		return decimal.NewFromString(n)
	case float64:
		return decimal.NewFromFloat(n), nil
	case int:
		return decimal.NewFromInt(int64(n)), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case decimal.Decimal:
		return n, nil
	default:
		return decimal.Zero, fmt.Errorf("unsupported numeric type %T", v)
	}
}

// Quantize rounds d to the standard business scale.
func Quantize(d decimal.Decimal) decimal.Decimal {
	return d.Round(Scale)
}

// EqualQuantized reports whether a and b are equal after rounding both
// to the standard scale.
func EqualQuantized(a, b decimal.Decimal) bool {
	return Quantize(a).Equal(Quantize(b))
}
