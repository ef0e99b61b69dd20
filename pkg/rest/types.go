// This file should be generated from the openapi specification and named
// types.gen.go.
package rest

import "time"

type Program struct {
	ID     string `json:"id"`
	OrgID  string `json:"orgId"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type CreateProgramRequest struct {
	OrgID string `json:"orgId" validate:"required"`
	Name  string `json:"name" validate:"required"`
}

type UpdateProgramRequest struct {
	Name   string `json:"name" validate:"required"`
	Status string `json:"status" validate:"required,oneof=active inactive"`
}

type Version struct {
	ID                 string     `json:"id"`
	ProgramID          string     `json:"programId"`
	VersionNumber      int        `json:"versionNumber"`
	Status             string     `json:"status"`
	EffectiveStart     *time.Time `json:"effectiveStart,omitempty"`
	EffectiveEnd       *time.Time `json:"effectiveEnd,omitempty"`
	StepsHash          string     `json:"stepsHash,omitempty"`
	ValidationWarnings int        `json:"validationWarnings"`
	LastValidatedAt    *time.Time `json:"lastValidatedAt,omitempty"`
	PublishedAt        *time.Time `json:"publishedAt,omitempty"`
	PublishedBy        string     `json:"publishedBy,omitempty"`
}

type Step struct {
	ID     string     `json:"id"`
	Type   string     `json:"type"`
	Config StepConfig `json:"config"`
	Order  int        `json:"order"`
}

type StepConfig struct {
	FactorKey     string  `json:"factorKey,omitempty"`
	Value         float64 `json:"value,omitempty"`
	LookupKey     string  `json:"lookupKey,omitempty"`
	Condition     string  `json:"condition,omitempty"`
	AdjustmentPct float64 `json:"adjustmentPct,omitempty"`
	CoverageID    string  `json:"coverageId,omitempty"`
}

type CreateStepRequest struct {
	Type   string     `json:"type" validate:"required"`
	Config StepConfig `json:"config"`
	Order  int        `json:"order"`
}

type FieldCode struct {
	Code       string `json:"code" validate:"required"`
	Deprecated bool   `json:"deprecated"`
	Ambiguous  bool   `json:"ambiguous"`
}

type ValidateRequest struct {
	FieldCodes []FieldCode `json:"fieldCodes"`
}

type ValidationResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

type PublishRequest struct {
	EffectiveStart time.Time   `json:"effectiveStart" validate:"required"`
	EffectiveEnd   *time.Time  `json:"effectiveEnd,omitempty"`
	PublishedBy    string      `json:"publishedBy" validate:"required"`
	FieldCodes     []FieldCode `json:"fieldCodes"`
}

type CreateTestCaseRequest struct {
	Name            string  `json:"name" validate:"required"`
	Payload         any     `json:"payload" validate:"required"`
	ExpectedPremium float64 `json:"expectedPremium"`
}

type TestCaseResult struct {
	TestCaseID string  `json:"testCaseId"`
	Name       string  `json:"name"`
	Passed     bool    `json:"passed"`
	Expected   float64 `json:"expected"`
	Actual     float64 `json:"actual"`
	Error      string  `json:"error,omitempty"`
}

type ResolvedVersion struct {
	Version *Version `json:"version"`
}

type BatchAccepted struct {
	RequestID string `json:"requestId"`
	TaskID    string `json:"taskId"`
	Queue     string `json:"queue"`
}

// Error Response-level error model.
type Error struct {
	// Code Error code.
	Code ErrorCode `json:"code"`

	// Message Human-readable message for UI display.
	Message string `json:"message"`
}

// ErrorCode Error code.
type ErrorCode string
