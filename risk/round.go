package risk

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to 2 decimal places. It rounds the
// shortest decimal form of x, so 1.005 becomes 1.01.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).Round(2).Float64()
	return f
}

// Floor2 rounds toward negative infinity at 2 decimal places.
func Floor2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	f, _ := decimal.NewFromFloat(x).RoundFloor(2).Float64()
	return f
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
