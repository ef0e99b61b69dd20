package entity

// StepType identifies one kind of rating operation.
type StepType string

const (
	StepBaseRate    StepType = "BaseRate"
	StepMultiply    StepType = "Multiply"
	StepAdd         StepType = "Add"
	StepSubtract    StepType = "Subtract"
	StepLookup      StepType = "Lookup"
	StepConditional StepType = "Conditional"
	StepILF         StepType = "ILF"
	StepExpMod      StepType = "ExpMod"
)

func (t StepType) String() string {
	return string(t)
}

// Known returns false for step types the evaluator cannot dispatch.
func (t StepType) Known() bool {
	switch t {
	case StepBaseRate, StepMultiply, StepAdd, StepSubtract,
		StepLookup, StepConditional, StepILF, StepExpMod:
		return true
	}
	return false
}

// StepConfig holds the per-type parameters of a rating step. Which fields are
// meaningful depends on RatingStep.Type; unused fields stay zero.
type StepConfig struct {
	FactorKey     string  `json:"factor_key,omitempty"`
	Value         float64 `json:"value,omitempty"`
	LookupKey     string  `json:"lookup_key,omitempty"`
	Condition     string  `json:"condition,omitempty"`
	AdjustmentPct float64 `json:"adjustment_pct,omitempty"`
	CoverageID    string  `json:"coverage_id,omitempty"`
}

// RatingStep is one ordered unit of computation inside a rate program version.
// Order values are used only for sorting; they need not be contiguous, and
// ties are broken by insertion order.
type RatingStep struct {
	ID        string     `json:"id"`
	VersionID string     `json:"version_id"`
	Type      StepType   `json:"type"`
	Config    StepConfig `json:"config"`
	Order     int        `json:"order"`
}

// FieldCodes lists every risk-factor field code this step references.
func (s RatingStep) FieldCodes() []string {
	var codes []string

	if s.Config.FactorKey != "" {
		codes = append(codes, s.Config.FactorKey)
	}

	if s.Config.LookupKey != "" {
		codes = append(codes, s.Config.LookupKey)
	}

	return codes
}
