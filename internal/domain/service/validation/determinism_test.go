package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/validation"
)

func TestValidateDeterminism(t *testing.T) {
	rq := require.New(t)

	fieldCodes := []validation.FieldCode{
		{Code: "territory_factor"},
		{Code: "old_class_code", Deprecated: true},
		{Code: "hazard_index", Ambiguous: true},
	}

	testCases := []struct {
		name         string
		steps        []entity.RatingStep
		wantValid    bool
		wantErrors   int
		wantWarnings int
	}{
		{
			name: "clean step set",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "territory_factor"}, Order: 1},
				{ID: "s2", Type: entity.StepAdd, Config: entity.StepConfig{Value: 50}, Order: 2},
			},
			wantValid: true,
		},
		{
			name: "unknown step type is an error",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepType("Surcharge"), Order: 1},
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "unknown field code is an error",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "not_in_dictionary"}, Order: 1},
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "deprecated field code is a warning",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "old_class_code"}, Order: 1},
			},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name: "ambiguous field code is a warning",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepLookup, Config: entity.StepConfig{LookupKey: "hazard_index"}, Order: 1},
			},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name: "duplicate order is a warning",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepAdd, Config: entity.StepConfig{Value: 1}, Order: 5},
				{ID: "s2", Type: entity.StepAdd, Config: entity.StepConfig{Value: 2}, Order: 5},
			},
			wantValid:    true,
			wantWarnings: 1,
		},
		{
			name: "malformed conditional is an error",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepConditional, Config: entity.StepConfig{Condition: "employee_count >"}, Order: 1},
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name: "conditional factor key is checked against the dictionary",
			steps: []entity.RatingStep{
				{ID: "s1", Type: entity.StepConditional,
					Config: entity.StepConfig{Condition: "unknown_field > 5", AdjustmentPct: 10}, Order: 1},
			},
			wantValid:  false,
			wantErrors: 1,
		},
		{
			name:      "empty step set is valid",
			steps:     nil,
			wantValid: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			result := validation.ValidateDeterminism(tc.steps, fieldCodes)

			rq.Equal(tc.wantValid, result.IsValid)
			rq.Len(result.Errors, tc.wantErrors)
			rq.Len(result.Warnings, tc.wantWarnings)
		})
	}
}

func TestValidateDeterminismAccumulates(t *testing.T) {
	rq := require.New(t)

	steps := []entity.RatingStep{
		{ID: "s1", Type: entity.StepType("Surcharge"), Order: 1},
		{ID: "s2", Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "missing"}, Order: 1},
		{ID: "s3", Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "old_class_code"}, Order: 2},
	}

	result := validation.ValidateDeterminism(steps, []validation.FieldCode{
		{Code: "old_class_code", Deprecated: true},
	})

	rq.False(result.IsValid)
	rq.Len(result.Errors, 2)
	// Duplicate order plus the deprecated reference.
	rq.Len(result.Warnings, 2)
}
