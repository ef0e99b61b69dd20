package rating

import (
	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/value"
)

// Reserved risk-factor keys the composition helpers write into.
const (
	FactorKeyILF           = "ilf"
	FactorKeyExperienceMod = "experience_mod"
)

// RatingPayload is the full input of one pipeline evaluation.
type RatingPayload struct {
	Coverages   []entity.CoverageSelection `json:"coverages"`
	BaseRates   []entity.BaseRate          `json:"base_rates"`
	Steps       []entity.RatingStep        `json:"steps"`
	RiskFactors value.RiskFactors          `json:"risk_factors"`
}

// ILFPayload is the input of a standalone increased-limit-factor calculation.
type ILFPayload struct {
	BasicLimit    float64                `json:"basic_limit"`
	SelectedLimit float64                `json:"selected_limit"`
	Table         []entity.ILFTableEntry `json:"table"`
	BasePremium   float64                `json:"base_premium"`
}

// ExperienceModPayload is the input of a standalone experience-mod
// calculation.
type ExperienceModPayload struct {
	Payroll          float64                  `json:"payroll"`
	LossHistory      []entity.LossRecord      `json:"loss_history"`
	ExpectedLossRate float64                  `json:"expected_loss_rate"`
	SplitPointTable  []entity.SplitPointEntry `json:"split_point_table"`
}

// SchedulePayload is the input of a standalone schedule-rating calculation.
type SchedulePayload struct {
	BasePremium float64                     `json:"base_premium"`
	Assessments []entity.ScheduleAssessment `json:"assessments"`
	Categories  []entity.ScheduleCategory   `json:"categories"`
}

// ComposeILF runs the ILF calculator and publishes the resulting factor under
// the reserved "ilf" risk-factor key, so that an ILF step in the pipeline
// picks it up. Returns the updated factor map.
func (p *RatingPayload) ComposeILF(ilfPayload ILFPayload) (entity.ILFResult, error) {
	result, err := CalculateILF(ilfPayload.BasicLimit, ilfPayload.SelectedLimit, ilfPayload.Table, ilfPayload.BasePremium)
	if err != nil {
		return entity.ILFResult{}, err
	}

	if p.RiskFactors == nil {
		p.RiskFactors = value.RiskFactors{}
	}
	p.RiskFactors[FactorKeyILF] = result.ILF

	return result, nil
}

// ComposeExperienceMod runs the experience-mod calculator and publishes the
// modifier under the reserved "experience_mod" risk-factor key.
func (p *RatingPayload) ComposeExperienceMod(modPayload ExperienceModPayload) entity.ExperienceModResult {
	result := CalculateExperienceMod(
		modPayload.Payroll,
		modPayload.LossHistory,
		modPayload.ExpectedLossRate,
		modPayload.SplitPointTable,
	)

	if p.RiskFactors == nil {
		p.RiskFactors = value.RiskFactors{}
	}
	p.RiskFactors[FactorKeyExperienceMod] = result.ExperienceMod

	return result
}
