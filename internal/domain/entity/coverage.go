package entity

// CoverageSelection is one coverage the caller wants rated. Only Selected
// entries participate in evaluation.
type CoverageSelection struct {
	CoverageID string   `json:"coverage_id"`
	Limit      float64  `json:"limit"`
	Deductible *float64 `json:"deductible,omitempty"`
	Selected   bool     `json:"selected"`
}

// BaseRate seeds the premium of one coverage. One BaseRate per coverage per
// program; a selected coverage without a matching BaseRate is skipped, not an
// error.
type BaseRate struct {
	CoverageID string  `json:"coverage_id"`
	Rate       float64 `json:"rate"`
	Basis      string  `json:"basis"`
}
