package rating

import (
	"sort"

	"rating_engine/internal/domain/entity"
)

// Simplified NCCI experience rating parameters.
const (
	payrollBasis         = 100
	ballastRate          = 0.07
	expectedPrimaryRate  = 0.70
	actualExcessWeight   = 0.30
	fallbackSplitPoint   = 5000
	experienceModFloor   = 0.75
	experienceModCeiling = 2.0
)

// CalculateExperienceMod derives a loss-history modifier from payroll, the
// expected loss rate and the split-point table. Only incurred losses feed the
// calculation; the final modifier is clamped into [0.75, 2.0] and rounded at
// the reporting boundary.
func CalculateExperienceMod(
	payroll float64,
	lossHistory []entity.LossRecord,
	expectedLossRate float64,
	splitPointTable []entity.SplitPointEntry,
) entity.ExperienceModResult {
	expectedLosses := payroll / payrollBasis * expectedLossRate
	splitPoint := resolveSplitPoint(splitPointTable, expectedLosses)

	var actualPrimary, actualExcess float64

	for _, loss := range lossHistory {
		primary := loss.IncurredLoss
		if primary > splitPoint {
			primary = splitPoint
		}

		actualPrimary += primary
		actualExcess += loss.IncurredLoss - primary
	}

	ballast := expectedLosses * ballastRate
	expectedPrimary := expectedLosses * expectedPrimaryRate
	stabilizing := ballast + expectedPrimary

	raw := (actualPrimary + actualExcess*actualExcessWeight + stabilizing) /
		(expectedPrimary + stabilizing)

	mod := raw
	if mod < experienceModFloor {
		mod = experienceModFloor
	}
	if mod > experienceModCeiling {
		mod = experienceModCeiling
	}

	return entity.ExperienceModResult{
		ExperienceMod:  round2(mod),
		ExpectedLosses: round2(expectedLosses),
		ActualPrimary:  round2(actualPrimary),
		Ballast:        round2(ballast),
		SplitPoint:     splitPoint,
	}
}

// resolveSplitPoint picks the first entry (ascending by expected losses) whose
// threshold covers the computed expected losses, falling back to the last
// entry, then to a fixed default.
func resolveSplitPoint(table []entity.SplitPointEntry, expectedLosses float64) float64 {
	if len(table) == 0 {
		return fallbackSplitPoint
	}

	sorted := make([]entity.SplitPointEntry, len(table))
	copy(sorted, table)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ExpectedLosses < sorted[j].ExpectedLosses
	})

	for _, entry := range sorted {
		if entry.ExpectedLosses >= expectedLosses {
			return entry.SplitPoint
		}
	}

	return sorted[len(sorted)-1].SplitPoint
}
