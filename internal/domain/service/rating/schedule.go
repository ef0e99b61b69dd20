package rating

import (
	"fmt"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

// CalculateScheduleRating aggregates bounded per-category credits/debits into
// a percentage adjustment of the base premium. Assessments without a
// configured category are ignored; categories without an assessment
// contribute nothing. A category configured with MaxCredit > MaxDebit would
// silently invert the clamp, so it is rejected as a configuration error.
func CalculateScheduleRating(
	basePremium float64,
	assessments []entity.ScheduleAssessment,
	categories []entity.ScheduleCategory,
) (entity.ScheduleRatingResult, error) {
	byCategory := make(map[string]entity.ScheduleAssessment, len(assessments))
	for _, a := range assessments {
		byCategory[a.Category] = a
	}

	var total float64
	applied := make([]entity.AppliedCredit, 0, len(categories))

	for _, category := range categories {
		if category.MaxCredit > category.MaxDebit {
			return entity.ScheduleRatingResult{}, domain.NewError(errcodes.InvalidScheduleBounds,
				fmt.Sprintf("category %q: max credit %v exceeds max debit %v",
					category.Name, category.MaxCredit, category.MaxDebit))
		}

		assessment, ok := byCategory[category.Name]
		if !ok {
			continue
		}

		value := assessment.Value
		if value < category.MaxCredit {
			value = category.MaxCredit
		}
		if value > category.MaxDebit {
			value = category.MaxDebit
		}

		total += value

		applied = append(applied, entity.AppliedCredit{
			Category:      category.Name,
			Value:         value,
			Justification: assessment.Justification,
		})
	}

	return entity.ScheduleRatingResult{
		TotalScheduleCredit: total,
		AppliedCredits:      applied,
		ModifiedPremium:     round2(basePremium * (1 + total/100)),
	}, nil
}
