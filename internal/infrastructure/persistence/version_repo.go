package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

type VersionRepository struct {
	db *sqlx.DB
}

func NewVersionRepository(db *sqlx.DB) *VersionRepository {
	return &VersionRepository{db: db}
}

const versionColumns = `
	id, program_id, version_number, status, effective_start, effective_end,
	steps_hash, validation_warnings, last_validated_at, published_at,
	published_by, created_at, updated_at`

// CreateDraft inserts the draft and allocates version_number as max+1 inside
// one transaction. The program row is locked first, so two concurrent drafts
// for the same program serialize instead of colliding.
func (r *VersionRepository) CreateDraft(ctx context.Context, version *entity.RateProgramVersion) error {
	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lockQuery := `SELECT id FROM rate_programs WHERE id = $1 FOR UPDATE`

		var programID string
		if err := tx.GetContext(ctx, &programID, lockQuery, version.ProgramID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NewError(errcodes.ProgramNotFound, "program not found")
			}
			return domain.WrapError(err, errcodes.InternalServerError, "failed to lock program")
		}

		insertQuery := `
			INSERT INTO rate_program_versions
				(id, program_id, version_number, status, validation_warnings, created_at, updated_at)
			SELECT $1, $2, COALESCE(MAX(version_number), 0) + 1, $3, 0, $4, $5
			FROM rate_program_versions
			WHERE program_id = $2
			RETURNING version_number`

		if err := tx.GetContext(ctx, &version.VersionNumber, insertQuery,
			version.ID, version.ProgramID, version.Status, version.CreatedAt, version.UpdatedAt,
		); err != nil {
			return domain.WrapError(err, errcodes.InternalServerError, "failed to insert version")
		}

		return nil
	})
}

func (r *VersionRepository) GetByID(ctx context.Context, id string) (*entity.RateProgramVersion, error) {
	query := `SELECT` + versionColumns + `
		FROM rate_program_versions
		WHERE id = $1`

	var schema versionSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.VersionNotFound, "version not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get version")
	}

	return schema.toDomain(), nil
}

func (r *VersionRepository) Update(ctx context.Context, version *entity.RateProgramVersion) error {
	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			UPDATE rate_program_versions
			SET status = $1, effective_start = $2, effective_end = $3,
				steps_hash = $4, validation_warnings = $5, last_validated_at = $6,
				published_at = $7, published_by = $8, updated_at = $9
			WHERE id = $10`

		return execUpdateTx(ctx, tx, errcodes.VersionNotFound, "version not found", query,
			version.Status,
			version.EffectiveStart,
			version.EffectiveEnd,
			nullableString(version.StepsHash),
			version.ValidationWarnings,
			version.LastValidatedAt,
			version.PublishedAt,
			nullableString(version.PublishedBy),
			time.Now(),
			version.ID,
		)
	})
}

func (r *VersionRepository) ListByProgram(ctx context.Context, programID string) ([]entity.RateProgramVersion, error) {
	query := `SELECT` + versionColumns + `
		FROM rate_program_versions
		WHERE program_id = $1
		ORDER BY version_number DESC`

	return r.selectVersions(ctx, query, programID)
}

func (r *VersionRepository) ListPublished(ctx context.Context, programID string) ([]entity.RateProgramVersion, error) {
	query := `SELECT` + versionColumns + `
		FROM rate_program_versions
		WHERE program_id = $1 AND status = $2
		ORDER BY version_number DESC`

	return r.selectVersions(ctx, query, programID, entity.VersionPublished)
}

// ListAllPublished feeds the steps-hash drift monitor.
func (r *VersionRepository) ListAllPublished(ctx context.Context) ([]entity.RateProgramVersion, error) {
	query := `SELECT` + versionColumns + `
		FROM rate_program_versions
		WHERE status = $1
		ORDER BY program_id, version_number DESC`

	return r.selectVersions(ctx, query, entity.VersionPublished)
}

func (r *VersionRepository) selectVersions(ctx context.Context, query string, args ...any) ([]entity.RateProgramVersion, error) {
	var schemas []versionSchema
	if err := r.db.SelectContext(ctx, &schemas, query, args...); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list versions")
	}

	versions := make([]entity.RateProgramVersion, 0, len(schemas))
	for i := range schemas {
		versions = append(versions, *schemas[i].toDomain())
	}

	return versions, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
