// Package types provides the value types shared across paystream.
package types

import (
	"errors"
	"fmt"
	"math"
	"math/big"
)

// BasisPointsDenominator is the number of basis points in a whole (100%).
const BasisPointsDenominator int64 = 10_000

// ErrOverflow reports an amount computation that does not fit in int64.
var ErrOverflow = errors.New("types: amount overflow")

// MulDivFloor returns floor(a * num / den) computed exactly.
// All operands must be non-negative and den must be positive. The
// intermediate product is carried in a big.Int so large token amounts
// multiplied by long durations never wrap.
func MulDivFloor(a, num, den int64) (int64, error) {
	if den <= 0 {
		return 0, fmt.Errorf("types: mul-div by non-positive denominator %d", den)
	}
	if a < 0 || num < 0 {
		return 0, fmt.Errorf("types: mul-div of negative operand (%d, %d)", a, num)
	}
	if a == 0 || num == 0 {
		return 0, nil
	}

	prod := new(big.Int).Mul(big.NewInt(a), big.NewInt(num))
	q := prod.Quo(prod, big.NewInt(den))
	if !q.IsInt64() {
		return 0, ErrOverflow
	}
	return q.Int64(), nil
}

// AddChecked returns a + b and whether the sum stayed within int64.
func AddChecked(a, b int64) (int64, bool) {
	if b > 0 && a > math.MaxInt64-b {
		return 0, false
	}
	if b < 0 && a < math.MinInt64-b {
		return 0, false
	}
	return a + b, true
}

// FormatUnits renders an amount held in the smallest token unit as a
// decimal string. Stellar assets use 7 decimals: FormatUnits(15_000_000, 7)
// is "1.5000000".
func FormatUnits(amount int64, decimals int) string {
	if decimals <= 0 {
		return fmt.Sprintf("%d", amount)
	}

	divisor := int64(1)
	for i := 0; i < decimals; i++ {
		divisor *= 10
	}

	negative := amount < 0
	abs := new(big.Int).Abs(big.NewInt(amount))
	major, minor := new(big.Int).QuoRem(abs, big.NewInt(divisor), new(big.Int))

	result := fmt.Sprintf("%s.%0*d", major.String(), decimals, minor.Int64())
	if negative {
		return "-" + result
	}
	return result
}
