package rating

import "math"

// round2 rounds to 2 decimals at reporting boundaries. Intermediate sums are
// never rounded mid-calculation.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
