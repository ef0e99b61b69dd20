package rating

import (
	"fmt"
	"sort"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/value"
	"rating_engine/pkg/errcodes"
)

// CalculateRating runs the ordered step pipeline over every selected coverage
// and returns the total premium, the per-coverage breakdown and the full
// evaluation trace.
//
// The same step sequence runs once per coverage. A selected coverage without
// a matching base rate contributes nothing: no trace entries, no breakdown
// key. Per-coverage premiums are rounded into the breakdown; the overall
// premium accumulates unrounded and is rounded once at the end.
func CalculateRating(payload RatingPayload) (entity.RatingResult, error) {
	steps := make([]entity.RatingStep, len(payload.Steps))
	copy(steps, payload.Steps)
	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	baseRates := make(map[string]entity.BaseRate, len(payload.BaseRates))
	for _, br := range payload.BaseRates {
		if _, ok := baseRates[br.CoverageID]; !ok {
			baseRates[br.CoverageID] = br
		}
	}

	result := entity.RatingResult{
		Breakdown: map[string]float64{},
		Steps:     []entity.StepTrace{},
	}

	var total float64

	for _, coverage := range payload.Coverages {
		if !coverage.Selected {
			continue
		}

		baseRate, ok := baseRates[coverage.CoverageID]
		if !ok {
			continue
		}

		premium := baseRate.Rate

		result.Steps = append(result.Steps, entity.StepTrace{
			CoverageID: coverage.CoverageID,
			StepType:   entity.StepBaseRate,
			Detail:     fmt.Sprintf("base rate (%s)", baseRate.Basis),
			Result:     premium,
		})

		for _, step := range steps {
			applied, detail, err := applyStep(step, premium, payload.RiskFactors)
			if err != nil {
				return entity.RatingResult{}, err
			}

			premium = applied

			result.Steps = append(result.Steps, entity.StepTrace{
				CoverageID: coverage.CoverageID,
				StepID:     step.ID,
				StepType:   step.Type,
				Detail:     detail,
				Result:     premium,
			})
		}

		result.Breakdown[coverage.CoverageID] = round2(premium)
		total += premium
	}

	result.Premium = round2(total)

	return result, nil
}

// applyStep applies one step to the running coverage premium. Missing optional
// data degrades gracefully; only a structurally unknown step type is an error.
func applyStep(step entity.RatingStep, premium float64, factors value.RiskFactors) (float64, string, error) {
	switch step.Type {
	case entity.StepMultiply:
		factor := factors.FactorOr(step.Config.FactorKey, 1)
		return premium * factor, fmt.Sprintf("multiply by %s=%v", step.Config.FactorKey, factor), nil

	case entity.StepAdd:
		return premium + step.Config.Value, fmt.Sprintf("add %v", step.Config.Value), nil

	case entity.StepSubtract:
		return premium - step.Config.Value, fmt.Sprintf("subtract %v", step.Config.Value), nil

	case entity.StepLookup:
		factor, ok := factors.Lookup(step.Config.LookupKey)
		if !ok {
			return premium, fmt.Sprintf("lookup %s absent, skipped", step.Config.LookupKey), nil
		}
		return premium * factor, fmt.Sprintf("lookup %s=%v", step.Config.LookupKey, factor), nil

	case entity.StepConditional:
		condition, err := value.ParseCondition(step.Config.Condition)
		if err != nil {
			// Malformed expressions evaluate to false, not to an error.
			return premium, "condition malformed, skipped", nil
		}
		if !condition.Eval(factors) {
			return premium, "condition false", nil
		}
		return premium * (1 + step.Config.AdjustmentPct/100),
			fmt.Sprintf("condition true, adjust %v%%", step.Config.AdjustmentPct), nil

	case entity.StepBaseRate:
		// Seeding already happened; a BaseRate step in the sequence is inert.
		return premium, "base rate already seeded", nil

	case entity.StepILF:
		factor := factors.FactorOr(FactorKeyILF, 1)
		return premium * factor, fmt.Sprintf("ilf=%v", factor), nil

	case entity.StepExpMod:
		factor := factors.FactorOr(FactorKeyExperienceMod, 1)
		return premium * factor, fmt.Sprintf("experience mod=%v", factor), nil
	}

	return 0, "", domain.NewError(errcodes.InvalidStepType,
		fmt.Sprintf("unknown step type %q", step.Type))
}
