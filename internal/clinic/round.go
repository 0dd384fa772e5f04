package clinic

import "github.com/shopspring/decimal"

// Round2 rounds x half away from zero to two decimal places.
func Round2(x float64) float64 {
	return decimal.NewFromFloat(x).Round(2).InexactFloat64()
}
