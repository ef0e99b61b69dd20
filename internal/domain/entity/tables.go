package entity

// ILFTableEntry is one {limit, factor} pair of an increased-limit-factor
// table. Tables are sorted by Limit before interpolation; duplicate limits are
// not deduplicated and the first exact match wins.
type ILFTableEntry struct {
	Limit  float64 `json:"limit"`
	Factor float64 `json:"factor"`
}

// LossRecord is one policy year of loss history. Only IncurredLoss feeds the
// experience modifier.
type LossRecord struct {
	Year         int     `json:"year"`
	PaidLoss     float64 `json:"paid_loss"`
	IncurredLoss float64 `json:"incurred_loss"`
	ClaimCount   int     `json:"claim_count"`
}

// SplitPointEntry maps an expected-loss volume to the primary/excess split
// point. Tables are sorted ascending by ExpectedLosses.
type SplitPointEntry struct {
	ExpectedLosses float64 `json:"expected_losses"`
	SplitPoint     float64 `json:"split_point"`
}

// ScheduleCategory bounds the discretionary credit/debit for one risk
// characteristic. MaxCredit must not exceed MaxDebit; the calculator rejects
// inverted bounds instead of guessing the convention.
type ScheduleCategory struct {
	Name      string  `json:"name"`
	MaxCredit float64 `json:"max_credit"`
	MaxDebit  float64 `json:"max_debit"`
}

// ScheduleAssessment is an underwriter's judged value for one category. The
// justification is mandatory for audit but not format-validated.
type ScheduleAssessment struct {
	Category      string  `json:"category"`
	Value         float64 `json:"value"`
	Justification string  `json:"justification"`
}
