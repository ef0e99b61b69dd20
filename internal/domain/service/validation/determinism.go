// Package validation implements the static determinism check a rate program
// version must pass before it may be published.
package validation

import (
	"fmt"

	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/value"
)

// FieldCode describes one entry of the externally governed data dictionary.
// This engine only consumes the list; it does not own field-code governance.
type FieldCode struct {
	Code       string `json:"code"`
	Deprecated bool   `json:"deprecated"`
	Ambiguous  bool   `json:"ambiguous"`
}

// ValidateDeterminism verifies that a step set can always be evaluated to one
// answer using only known, current fields. References to unknown fields are
// publish-blocking errors; references to deprecated or ambiguous fields are
// warnings, persisted on the version for audit. The result is valid iff there
// are no errors.
func ValidateDeterminism(steps []entity.RatingStep, availableFieldCodes []FieldCode) entity.ValidationResult {
	known := make(map[string]FieldCode, len(availableFieldCodes))
	for _, fc := range availableFieldCodes {
		known[fc.Code] = fc
	}

	result := entity.ValidationResult{
		Errors:   []string{},
		Warnings: []string{},
	}

	seenOrders := map[int]bool{}

	for _, step := range steps {
		if !step.Type.Known() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("step %s: unknown step type %q", step.ID, step.Type))
		}

		if seenOrders[step.Order] {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("step %s: duplicate order %d, tie broken by insertion order", step.ID, step.Order))
		}
		seenOrders[step.Order] = true

		for _, code := range stepFieldCodes(step) {
			fc, ok := known[code]
			if !ok {
				result.Errors = append(result.Errors,
					fmt.Sprintf("step %s: unknown field code %q", step.ID, code))
				continue
			}

			if fc.Deprecated {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("step %s: field code %q is deprecated", step.ID, code))
			}

			if fc.Ambiguous {
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("step %s: field code %q is ambiguous", step.ID, code))
			}
		}

		if step.Type == entity.StepConditional {
			if _, err := value.ParseCondition(step.Config.Condition); err != nil {
				// A condition that can never parse always evaluates to false;
				// that is almost certainly not the author's intent.
				result.Errors = append(result.Errors,
					fmt.Sprintf("step %s: %v", step.ID, err))
			}
		}
	}

	result.IsValid = len(result.Errors) == 0

	return result
}

// stepFieldCodes lists the field codes a step references, including the
// factor key inside a conditional expression.
func stepFieldCodes(step entity.RatingStep) []string {
	codes := step.FieldCodes()

	if step.Type == entity.StepConditional {
		if condition, err := value.ParseCondition(step.Config.Condition); err == nil {
			codes = append(codes, condition.FactorKey)
		}
	}

	return codes
}
