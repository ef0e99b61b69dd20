package entity

// StepTrace is one entry of the ordered evaluation trace. Every intermediate
// value is recorded for auditability.
type StepTrace struct {
	CoverageID string   `json:"coverage_id"`
	StepID     string   `json:"step_id,omitempty"`
	StepType   StepType `json:"step_type"`
	Detail     string   `json:"detail,omitempty"`
	Result     float64  `json:"result"`
}

// RatingResult is the contract consumed by reporting layers: the total
// premium, per-coverage breakdown and the full step trace.
type RatingResult struct {
	Premium   float64            `json:"premium"`
	Breakdown map[string]float64 `json:"breakdown"`
	Steps     []StepTrace        `json:"steps"`
}

// ILFResult reports one increased-limit-factor calculation.
type ILFResult struct {
	ILF                   float64 `json:"ilf"`
	BasicLimitPremium     float64 `json:"basic_limit_premium"`
	IncreasedLimitPremium float64 `json:"increased_limit_premium"`
}

// ExperienceModResult reports the experience modifier and its intermediates.
type ExperienceModResult struct {
	ExperienceMod  float64 `json:"experience_mod"`
	ExpectedLosses float64 `json:"expected_losses"`
	ActualPrimary  float64 `json:"actual_primary"`
	Ballast        float64 `json:"ballast"`
	SplitPoint     float64 `json:"split_point"`
}

// AppliedCredit records one clamped schedule credit/debit and the
// underwriter's justification.
type AppliedCredit struct {
	Category      string  `json:"category"`
	Value         float64 `json:"value"`
	Justification string  `json:"justification"`
}

// ScheduleRatingResult reports the aggregated schedule credit and the premium
// after applying it.
type ScheduleRatingResult struct {
	TotalScheduleCredit float64         `json:"total_schedule_credit"`
	AppliedCredits      []AppliedCredit `json:"applied_credits"`
	ModifiedPremium     float64         `json:"modified_premium"`
}

// ValidationResult is the outcome of determinism validation over a step set.
// IsValid is true iff Errors is empty; warnings never block publishing.
type ValidationResult struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// TestCaseResult is one executed rating test case.
type TestCaseResult struct {
	TestCaseID string  `json:"test_case_id"`
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Error      string  `json:"error,omitempty"`
}
