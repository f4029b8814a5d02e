package onchain

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Round2 rounds v to two decimal places, half away from zero, operating on
// the shortest decimal representation of v. So 2.675 becomes 2.68 even though
// its binary value is slightly below 2.675. NaN and Inf are returned as is.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatValue renders v with the fewest digits that round-trip, e.g. 65432.1
// or 0.54.
func FormatValue(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).String()
}
