package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

// Step mutation goes through the manager so the published-version
// immutability policy is enforced in one place. No storage-level lock
// protects published steps; this is the gate.

func (m *Manager) AddStep(ctx context.Context, versionID string, step entity.RatingStep) (*entity.RatingStep, error) {
	if err := m.requireDraft(ctx, versionID); err != nil {
		return nil, err
	}

	if !step.Type.Known() {
		return nil, domain.NewError(errcodes.InvalidStepType,
			fmt.Sprintf("unknown step type %q", step.Type))
	}

	step.ID = uuid.New().String()
	step.VersionID = versionID

	if err := m.steps.Create(ctx, &step); err != nil {
		return nil, fmt.Errorf("steps.Create: %w", err)
	}

	return &step, nil
}

func (m *Manager) UpdateStep(ctx context.Context, stepID string, updated entity.RatingStep) (*entity.RatingStep, error) {
	existing, err := m.steps.GetByID(ctx, stepID)
	if err != nil {
		return nil, fmt.Errorf("steps.GetByID: %w", err)
	}

	if err := m.requireDraft(ctx, existing.VersionID); err != nil {
		return nil, err
	}

	if !updated.Type.Known() {
		return nil, domain.NewError(errcodes.InvalidStepType,
			fmt.Sprintf("unknown step type %q", updated.Type))
	}

	existing.Type = updated.Type
	existing.Config = updated.Config
	existing.Order = updated.Order

	if err := m.steps.Update(ctx, existing); err != nil {
		return nil, fmt.Errorf("steps.Update: %w", err)
	}

	return existing, nil
}

func (m *Manager) DeleteStep(ctx context.Context, stepID string) error {
	existing, err := m.steps.GetByID(ctx, stepID)
	if err != nil {
		return fmt.Errorf("steps.GetByID: %w", err)
	}

	if err := m.requireDraft(ctx, existing.VersionID); err != nil {
		return err
	}

	if err := m.steps.Delete(ctx, stepID); err != nil {
		return fmt.Errorf("steps.Delete: %w", err)
	}

	return nil
}

func (m *Manager) ListSteps(ctx context.Context, versionID string) ([]entity.RatingStep, error) {
	steps, err := m.steps.ListByVersion(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("steps.ListByVersion: %w", err)
	}

	return steps, nil
}

func (m *Manager) requireDraft(ctx context.Context, versionID string) error {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return fmt.Errorf("versions.GetByID: %w", err)
	}

	if version.Status != entity.VersionDraft {
		return domain.NewError(errcodes.InvalidVersionStatus,
			fmt.Sprintf("version %d is %s; steps are frozen", version.VersionNumber, version.Status))
	}

	return nil
}

// GetVersion exposes a single version read for the API layer.
func (m *Manager) GetVersion(ctx context.Context, versionID string) (*entity.RateProgramVersion, error) {
	version, err := m.versions.GetByID(ctx, versionID)
	if err != nil {
		return nil, fmt.Errorf("versions.GetByID: %w", err)
	}

	return version, nil
}

// ListVersions returns every version of a program, newest first.
func (m *Manager) ListVersions(ctx context.Context, programID string) ([]entity.RateProgramVersion, error) {
	versions, err := m.versions.ListByProgram(ctx, programID)
	if err != nil {
		return nil, fmt.Errorf("versions.ListByProgram: %w", err)
	}

	return versions, nil
}
