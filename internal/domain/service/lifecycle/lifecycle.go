// Package lifecycle manages the draft → published → archived state machine of
// rate program versions. Publishing is the single auditable gate: it re-runs
// determinism validation and freezes a content hash over the step set.
package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/rating"
	"rating_engine/internal/domain/service/validation"
	"rating_engine/pkg/errcodes"
)

type VersionRepository interface {
	// CreateDraft persists the draft and allocates its version number as
	// max+1 atomically, so concurrent draft creation for one program cannot
	// collide.
	CreateDraft(ctx context.Context, version *entity.RateProgramVersion) error
	GetByID(ctx context.Context, id string) (*entity.RateProgramVersion, error)
	Update(ctx context.Context, version *entity.RateProgramVersion) error
	ListByProgram(ctx context.Context, programID string) ([]entity.RateProgramVersion, error)
	ListPublished(ctx context.Context, programID string) ([]entity.RateProgramVersion, error)
}

type StepRepository interface {
	Create(ctx context.Context, step *entity.RatingStep) error
	CreateBatch(ctx context.Context, steps []entity.RatingStep) error
	GetByID(ctx context.Context, id string) (*entity.RatingStep, error)
	ListByVersion(ctx context.Context, versionID string) ([]entity.RatingStep, error)
	Update(ctx context.Context, step *entity.RatingStep) error
	Delete(ctx context.Context, id string) error
}

type TestCaseRepository interface {
	ListByProgram(ctx context.Context, programID string) ([]entity.RatingTestCase, error)
}

// Manager gates version transitions on the determinism validator. The
// published-version cache is an explicit TTL cache handed in by the caller,
// never process-wide state.
type Manager struct {
	versions       VersionRepository
	steps          StepRepository
	testCases      TestCaseRepository
	publishedCache *cache.Cache
}

func NewManager(
	versions VersionRepository,
	steps StepRepository,
	testCases TestCaseRepository,
	publishedCache *cache.Cache,
) *Manager {
	return &Manager{
		versions:       versions,
		steps:          steps,
		testCases:      testCases,
		publishedCache: publishedCache,
	}
}

// CreateVersion creates a new draft numbered one above the program's current
// maximum.
func (m *Manager) CreateVersion(ctx context.Context, programID string) (*entity.RateProgramVersion, error) {
	now := time.Now().UTC()

	version := &entity.RateProgramVersion{
		ID:        uuid.New().String(),
		ProgramID: programID,
		Status:    entity.VersionDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.versions.CreateDraft(ctx, version); err != nil {
		return nil, fmt.Errorf("versions.CreateDraft: %w", err)
	}

	return version, nil
}

// ValidateVersion runs determinism validation against the version's current
// steps. It stamps the audit fields but never mutates status.
func (m *Manager) ValidateVersion(
	ctx context.Context,
	versionID string,
	fieldCodes []validation.FieldCode,
) (entity.ValidationResult, error) {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return entity.ValidationResult{}, fmt.Errorf("versions.GetByID: %w", err)
	}

	steps, err := m.steps.ListByVersion(ctx, versionID)
	if err != nil {
		return entity.ValidationResult{}, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	result := validation.ValidateDeterminism(steps, fieldCodes)

	now := time.Now().UTC()
	version.LastValidatedAt = &now
	version.ValidationWarnings = len(result.Warnings)
	version.UpdatedAt = now

	if err := m.versions.Update(ctx, version); err != nil {
		return entity.ValidationResult{}, fmt.Errorf("versions.Update: %w", err)
	}

	return result, nil
}

// PublishVersion re-validates, and on success freezes the steps hash, stamps
// the effective window and marks the version published. A failing validation
// leaves the version untouched and surfaces every error message at once.
func (m *Manager) PublishVersion(
	ctx context.Context,
	versionID string,
	effectiveStart time.Time,
	effectiveEnd *time.Time,
	publishedBy string,
	fieldCodes []validation.FieldCode,
) (*entity.RateProgramVersion, error) {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("versions.GetByID: %w", err)
	}

	if version.Status == entity.VersionPublished {
		return nil, domain.NewError(errcodes.VersionAlreadyPublished,
			fmt.Sprintf("version %d is already published", version.VersionNumber))
	}

	steps, err := m.steps.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	result := validation.ValidateDeterminism(steps, fieldCodes)
	if !result.IsValid {
		return nil, domain.NewError(errcodes.PublishBlocked,
			"publish blocked: "+strings.Join(result.Errors, "; "))
	}

	now := time.Now().UTC()

	version.Status = entity.VersionPublished
	version.StepsHash = StepsHash(steps)
	version.EffectiveStart = &effectiveStart
	version.EffectiveEnd = effectiveEnd
	version.PublishedAt = &now
	version.PublishedBy = publishedBy
	version.ValidationWarnings = len(result.Warnings)
	version.LastValidatedAt = &now
	version.UpdatedAt = now

	if err := m.versions.Update(ctx, version); err != nil {
		return nil, fmt.Errorf("versions.Update: %w", err)
	}

	m.publishedCache.Delete(publishedCacheKey(version.ProgramID))

	return version, nil
}

// GetPublishedVersion resolves "the rate program in effect on date X".
// Without a date it returns the highest-numbered published version. With a
// date it returns the published version whose effective window contains it;
// the highest version number wins when windows overlap. A nil version with a
// nil error means no rate is available, which callers must treat as a
// first-class outcome.
func (m *Manager) GetPublishedVersion(
	ctx context.Context,
	programID string,
	effectiveDate *time.Time,
) (*entity.RateProgramVersion, error) {
	published, err := m.listPublished(ctx, programID)
	if err != nil {
		return nil, err
	}

	var best *entity.RateProgramVersion

	for i := range published {
		version := &published[i]

		if effectiveDate != nil && !version.EffectiveAt(*effectiveDate) {
			continue
		}

		if best == nil || version.VersionNumber > best.VersionNumber {
			best = version
		}
	}

	if best == nil {
		return nil, nil //nolint:nilnil
	}

	result := *best

	return &result, nil
}

// CloneVersion creates a new draft and copies every step from the source
// minus identity and timestamps, preserving relative order.
func (m *Manager) CloneVersion(ctx context.Context, sourceVersionID string) (*entity.RateProgramVersion, error) {
	source, err := m.versions.GetByID(ctx, sourceVersionID)
	if err != nil {
		return nil, fmt.Errorf("versions.GetByID: %w", err)
	}

	sourceSteps, err := m.steps.ListByVersion(ctx, sourceVersionID)
	if err != nil {
		return nil, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	draft, err := m.CreateVersion(ctx, source.ProgramID)
	if err != nil {
		return nil, err
	}

	cloned := make([]entity.RatingStep, 0, len(sourceSteps))
	for _, step := range sourceSteps {
		cloned = append(cloned, entity.RatingStep{
			ID:        uuid.New().String(),
			VersionID: draft.ID,
			Type:      step.Type,
			Config:    step.Config,
			Order:     step.Order,
		})
	}

	if len(cloned) > 0 {
		if err := m.steps.CreateBatch(ctx, cloned); err != nil {
			return nil, fmt.Errorf("steps.CreateBatch: %w", err)
		}
	}

	return draft, nil
}

// RunTestCases executes every stored test case of the version's program
// against the evaluator using the version's step set.
func (m *Manager) RunTestCases(ctx context.Context, versionID string) ([]entity.TestCaseResult, error) {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("versions.GetByID: %w", err)
	}

	steps, err := m.steps.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	testCases, err := m.testCases.ListByProgram(ctx, version.ProgramID)
	if err != nil {
		return nil, fmt.Errorf("testCases.ListByProgram: %w", err)
	}

	results := make([]entity.TestCaseResult, 0, len(testCases))

	for _, tc := range testCases {
		results = append(results, m.runTestCase(tc, steps))
	}

	return results, nil
}

func (m *Manager) runTestCase(tc entity.RatingTestCase, steps []entity.RatingStep) entity.TestCaseResult {
	result := entity.TestCaseResult{
		TestCaseID: tc.ID,
		Name:       tc.Name,
		Expected:   tc.ExpectedPremium,
	}

	var payload rating.RatingPayload
	if err := json.Unmarshal(tc.Payload, &payload); err != nil {
		result.Error = fmt.Sprintf("payload: %v", err)
		return result
	}

	payload.Steps = steps

	rated, err := rating.CalculateRating(payload)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.Actual = rated.Premium
	result.Passed = rated.Premium == tc.ExpectedPremium

	return result
}

// VerifyStepsHash re-hashes a published version's current steps against the
// hash frozen at publish time. Published steps are logically immutable; a
// mismatch means out-of-band editing.
func (m *Manager) VerifyStepsHash(ctx context.Context, versionID string) (bool, error) {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return false, fmt.Errorf("versions.GetByID: %w", err)
	}

	if version.Status != entity.VersionPublished {
		return false, domain.NewError(errcodes.InvalidVersionStatus,
			"steps hash is only frozen on published versions")
	}

	steps, err := m.steps.ListByVersion(ctx, versionID)
	if err != nil {
		return false, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	return StepsHash(steps) == version.StepsHash, nil
}

func (m *Manager) listPublished(ctx context.Context, programID string) ([]entity.RateProgramVersion, error) {
	key := publishedCacheKey(programID)

	if cached, ok := m.publishedCache.Get(key); ok {
		if versions, ok := cached.([]entity.RateProgramVersion); ok {
			return versions, nil
		}
	}

	versions, err := m.versions.ListPublished(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("versions.ListPublished: %w", err)
	}

	m.publishedCache.Set(key, versions, cache.DefaultExpiration)

	return versions, nil
}

func publishedCacheKey(programID string) string {
	return "published:" + programID
}
