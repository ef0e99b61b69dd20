package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

type StepRepository struct {
	db *sqlx.DB
}

func NewStepRepository(db *sqlx.DB) *StepRepository {
	return &StepRepository{db: db}
}

func (r *StepRepository) Create(ctx context.Context, step *entity.RatingStep) error {
	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return r.createTx(ctx, tx, step)
	})
}

// CreateBatch inserts a step set atomically, preserving slice order as the
// insertion order used for tie-breaking.
func (r *StepRepository) CreateBatch(ctx context.Context, steps []entity.RatingStep) error {
	if len(steps) == 0 {
		return nil
	}

	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range steps {
			if err := r.createTx(ctx, tx, &steps[i]); err != nil {
				return domain.WrapError(err, errcodes.InternalServerError,
					fmt.Sprintf("failed at index %d", i))
			}
		}
		return nil
	})
}

func (r *StepRepository) GetByID(ctx context.Context, id string) (*entity.RatingStep, error) {
	query := `
		SELECT id, version_id, type, config, step_order, seq
		FROM rating_steps
		WHERE id = $1`

	var schema stepSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.NotFound, "step not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get step")
	}

	step, err := schema.toDomain()
	if err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert step")
	}

	return step, nil
}

// ListByVersion returns the version's steps in evaluation order: step_order
// first, insertion sequence as the tie-break. The ordering is stable under
// re-reads.
func (r *StepRepository) ListByVersion(ctx context.Context, versionID string) ([]entity.RatingStep, error) {
	query := `
		SELECT id, version_id, type, config, step_order, seq
		FROM rating_steps
		WHERE version_id = $1
		ORDER BY step_order, seq`

	var schemas []stepSchema
	if err := r.db.SelectContext(ctx, &schemas, query, versionID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list steps")
	}

	steps := make([]entity.RatingStep, 0, len(schemas))
	for i := range schemas {
		step, err := schemas[i].toDomain()
		if err != nil {
			return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to convert step")
		}
		steps = append(steps, *step)
	}

	return steps, nil
}

func (r *StepRepository) Update(ctx context.Context, step *entity.RatingStep) error {
	configBytes, err := json.Marshal(step.Config)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to marshal config")
	}

	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE rating_steps
			SET type = $1, config = $2, step_order = $3
			WHERE id = $4`

		return execUpdateTx(ctx, tx, errcodes.NotFound, "step not found",
			query, step.Type, configBytes, step.Order, step.ID)
	})
}

func (r *StepRepository) Delete(ctx context.Context, id string) error {
	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `DELETE FROM rating_steps WHERE id = $1`

		return execUpdateTx(ctx, tx, errcodes.NotFound, "step not found", query, id)
	})
}

func (r *StepRepository) createTx(ctx context.Context, tx *sqlx.Tx, step *entity.RatingStep) error {
	configBytes, err := json.Marshal(step.Config)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to marshal config")
	}

	query := `
		INSERT INTO rating_steps (id, version_id, type, config, step_order)
		VALUES (:id, :version_id, :type, :config, :step_order)`

	params := map[string]any{
		"id":         step.ID,
		"version_id": step.VersionID,
		"type":       step.Type,
		"config":     configBytes,
		"step_order": step.Order,
	}

	if _, err := tx.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert step")
	}

	return nil
}
