package utils

import "math"

// Round2 rounds to two decimal places. Commission halves are each rounded
// independently, so the two halves of a split may drift from the original
// price by at most one cent.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
