package entity

import "time"

type ProgramStatus string

const (
	ProgramActive   ProgramStatus = "active"
	ProgramInactive ProgramStatus = "inactive"
)

type VersionStatus string

const (
	VersionDraft     VersionStatus = "draft"
	VersionPublished VersionStatus = "published"
	VersionArchived  VersionStatus = "archived"
)

// RateProgram is the top-level named entity owning rate program versions.
type RateProgram struct {
	ID        string        `json:"id"`
	OrgID     string        `json:"org_id"`
	Name      string        `json:"name"`
	Status    ProgramStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RateProgramVersion is a snapshot of a rating step sequence. Once published
// it is logically immutable: StepsHash freezes the step set and the effective
// window is fixed.
type RateProgramVersion struct {
	ID                 string        `json:"id"`
	ProgramID          string        `json:"program_id"`
	VersionNumber      int           `json:"version_number"`
	Status             VersionStatus `json:"status"`
	EffectiveStart     *time.Time    `json:"effective_start,omitempty"`
	EffectiveEnd       *time.Time    `json:"effective_end,omitempty"`
	StepsHash          string        `json:"steps_hash,omitempty"`
	ValidationWarnings int           `json:"validation_warnings"`
	LastValidatedAt    *time.Time    `json:"last_validated_at,omitempty"`
	PublishedAt        *time.Time    `json:"published_at,omitempty"`
	PublishedBy        string        `json:"published_by,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// EffectiveAt reports whether a published version's window contains the date.
// An open-ended EffectiveEnd means "still current".
func (v RateProgramVersion) EffectiveAt(date time.Time) bool {
	if v.Status != VersionPublished || v.EffectiveStart == nil {
		return false
	}

	if date.Before(*v.EffectiveStart) {
		return false
	}

	if v.EffectiveEnd != nil && date.After(*v.EffectiveEnd) {
		return false
	}

	return true
}

// RatingTestCase is a stored input/expected-output pair used for regression
// checking a program's step set.
type RatingTestCase struct {
	ID              string    `json:"id"`
	ProgramID       string    `json:"program_id"`
	Name            string    `json:"name"`
	Payload         []byte    `json:"payload"`
	ExpectedPremium float64   `json:"expected_premium"`
	CreatedAt       time.Time `json:"created_at"`
}
