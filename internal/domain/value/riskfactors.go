package value

// RiskFactors maps risk field codes to their numeric values for one
// submission.
type RiskFactors map[string]float64

// Lookup returns the factor for key and whether it is present.
func (f RiskFactors) Lookup(key string) (float64, bool) {
	v, ok := f[key]
	return v, ok
}

// FactorOr returns the factor for key, or fallback when the key is absent.
func (f RiskFactors) FactorOr(key string, fallback float64) float64 {
	if v, ok := f[key]; ok {
		return v
	}
	return fallback
}
