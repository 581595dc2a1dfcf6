package utils

import (
	"github.com/shopspring/decimal"
)

// Round rounds value half away from zero to the given number of decimals.
func Round(value float64, precision int32) float64 {
	return decimal.NewFromFloat(value).Round(precision).InexactFloat64()
}

// RoundUp rounds value towards positive infinity to the given number of decimals.
func RoundUp(value float64, precision int32) float64 {
	return decimal.NewFromFloat(value).RoundCeil(precision).InexactFloat64()
}

// FormatDecimal renders value with exactly precision decimals.
func FormatDecimal(value float64, precision int32) string {
	return decimal.NewFromFloat(value).StringFixed(precision)
}

// Step returns the smallest increment representable with precision decimals.
func Step(precision int32) float64 {
	return decimal.New(1, -precision).InexactFloat64()
}
