package server

import (
	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/validation"
	"rating_engine/pkg/rest"
)

func newRESTProgram(program entity.RateProgram) rest.Program {
	return rest.Program{
		ID:     program.ID,
		OrgID:  program.OrgID,
		Name:   program.Name,
		Status: string(program.Status),
	}
}

func newRESTVersion(version entity.RateProgramVersion) rest.Version {
	return rest.Version{
		ID:                 version.ID,
		ProgramID:          version.ProgramID,
		VersionNumber:      version.VersionNumber,
		Status:             string(version.Status),
		EffectiveStart:     version.EffectiveStart,
		EffectiveEnd:       version.EffectiveEnd,
		StepsHash:          version.StepsHash,
		ValidationWarnings: version.ValidationWarnings,
		LastValidatedAt:    version.LastValidatedAt,
		PublishedAt:        version.PublishedAt,
		PublishedBy:        version.PublishedBy,
	}
}

func newRESTStep(step entity.RatingStep) rest.Step {
	return rest.Step{
		ID:     step.ID,
		Type:   step.Type.String(),
		Config: newRESTStepConfig(step.Config),
		Order:  step.Order,
	}
}

func newRESTStepConfig(config entity.StepConfig) rest.StepConfig {
	return rest.StepConfig{
		FactorKey:     config.FactorKey,
		Value:         config.Value,
		LookupKey:     config.LookupKey,
		Condition:     config.Condition,
		AdjustmentPct: config.AdjustmentPct,
		CoverageID:    config.CoverageID,
	}
}

func newDomainStepConfig(config rest.StepConfig) entity.StepConfig {
	return entity.StepConfig{
		FactorKey:     config.FactorKey,
		Value:         config.Value,
		LookupKey:     config.LookupKey,
		Condition:     config.Condition,
		AdjustmentPct: config.AdjustmentPct,
		CoverageID:    config.CoverageID,
	}
}

func newRESTValidationResult(result entity.ValidationResult) rest.ValidationResult {
	return rest.ValidationResult{
		IsValid:  result.IsValid,
		Errors:   result.Errors,
		Warnings: result.Warnings,
	}
}

func newRESTTestCaseResult(result entity.TestCaseResult) rest.TestCaseResult {
	return rest.TestCaseResult{
		TestCaseID: result.TestCaseID,
		Name:       result.Name,
		Passed:     result.Passed,
		Expected:   result.Expected,
		Actual:     result.Actual,
		Error:      result.Error,
	}
}

func newDomainFieldCodes(fieldCodes []rest.FieldCode) []validation.FieldCode {
	codes := make([]validation.FieldCode, 0, len(fieldCodes))
	for _, fc := range fieldCodes {
		codes = append(codes, validation.FieldCode{
			Code:       fc.Code,
			Deprecated: fc.Deprecated,
			Ambiguous:  fc.Ambiguous,
		})
	}

	return codes
}
