package helper

import (
	"math"
	"strings"
)

// ApplyPercentage shifts v by pct percent. pct may be negative.
func ApplyPercentage(v, pct float64) float64 {
	return v + v*pct/100
}

// Percentage returns pct percent of v.
func Percentage(v, pct float64) float64 {
	return v * pct / 100
}

// ToFixed truncates v down to the given number of decimals. Order amounts
// must never round up past what the budget can pay for.
func ToFixed(v float64, decimals int) float64 {
	if decimals < 0 {
		return v
	}
	pow := math.Pow(10, float64(decimals))
	return math.Floor(v*pow+1e-9) / pow
}

// PairOf builds the exchange pair name, e.g. ("doge", "USDT") -> "DOGE_USDT".
func PairOf(symbol, quote string) string {
	return strings.ToUpper(strings.TrimSpace(symbol)) + "_" + strings.ToUpper(quote)
}
