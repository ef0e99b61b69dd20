package persistence

import (
	"database/sql"
	"encoding/json"
	"time"

	"rating_engine/internal/domain/entity"
)

// programSchema maps a rate_programs row.
type programSchema struct {
	ID        string    `db:"id"`
	OrgID     string    `db:"org_id"`
	Name      string    `db:"name"`
	Status    string    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *programSchema) toDomain() *entity.RateProgram {
	return &entity.RateProgram{
		ID:        s.ID,
		OrgID:     s.OrgID,
		Name:      s.Name,
		Status:    entity.ProgramStatus(s.Status),
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// versionSchema maps a rate_program_versions row.
type versionSchema struct {
	ID                 string         `db:"id"`
	ProgramID          string         `db:"program_id"`
	VersionNumber      int            `db:"version_number"`
	Status             string         `db:"status"`
	EffectiveStart     *time.Time     `db:"effective_start"`
	EffectiveEnd       *time.Time     `db:"effective_end"`
	StepsHash          sql.NullString `db:"steps_hash"`
	ValidationWarnings int            `db:"validation_warnings"`
	LastValidatedAt    *time.Time     `db:"last_validated_at"`
	PublishedAt        *time.Time     `db:"published_at"`
	PublishedBy        sql.NullString `db:"published_by"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (s *versionSchema) toDomain() *entity.RateProgramVersion {
	return &entity.RateProgramVersion{
		ID:                 s.ID,
		ProgramID:          s.ProgramID,
		VersionNumber:      s.VersionNumber,
		Status:             entity.VersionStatus(s.Status),
		EffectiveStart:     s.EffectiveStart,
		EffectiveEnd:       s.EffectiveEnd,
		StepsHash:          s.StepsHash.String,
		ValidationWarnings: s.ValidationWarnings,
		LastValidatedAt:    s.LastValidatedAt,
		PublishedAt:        s.PublishedAt,
		PublishedBy:        s.PublishedBy.String,
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

// stepSchema maps a rating_steps row. Config is stored as JSONB; seq is a
// serial that keeps insertion order stable under re-reads when step_order
// ties.
type stepSchema struct {
	ID        string `db:"id"`
	VersionID string `db:"version_id"`
	Type      string `db:"type"`
	Config    []byte `db:"config"`
	StepOrder int    `db:"step_order"`
	Seq       int64  `db:"seq"`
}

func (s *stepSchema) toDomain() (*entity.RatingStep, error) {
	var config entity.StepConfig
	if len(s.Config) > 0 {
		if err := json.Unmarshal(s.Config, &config); err != nil {
			return nil, err
		}
	}

	return &entity.RatingStep{
		ID:        s.ID,
		VersionID: s.VersionID,
		Type:      entity.StepType(s.Type),
		Config:    config,
		Order:     s.StepOrder,
	}, nil
}

// testCaseSchema maps a rating_test_cases row.
type testCaseSchema struct {
	ID              string    `db:"id"`
	ProgramID       string    `db:"program_id"`
	Name            string    `db:"name"`
	Payload         []byte    `db:"payload"`
	ExpectedPremium float64   `db:"expected_premium"`
	CreatedAt       time.Time `db:"created_at"`
}

func (s *testCaseSchema) toDomain() *entity.RatingTestCase {
	return &entity.RatingTestCase{
		ID:              s.ID,
		ProgramID:       s.ProgramID,
		Name:            s.Name,
		Payload:         s.Payload,
		ExpectedPremium: s.ExpectedPremium,
		CreatedAt:       s.CreatedAt,
	}
}
