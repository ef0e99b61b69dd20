package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/jmoiron/sqlx"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

type ProgramRepository struct {
	db *sqlx.DB
}

func NewProgramRepository(db *sqlx.DB) *ProgramRepository {
	return &ProgramRepository{db: db}
}

// withTx runs fn inside a transaction.
func (r *ProgramRepository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return runInTx(ctx, r.db, fn)
}

func (r *ProgramRepository) Create(ctx context.Context, program *entity.RateProgram) error {
	query := `
		INSERT INTO rate_programs (id, org_id, name, status, created_at, updated_at)
		VALUES (:id, :org_id, :name, :status, :created_at, :updated_at)`

	params := map[string]any{
		"id":         program.ID,
		"org_id":     program.OrgID,
		"name":       program.Name,
		"status":     program.Status,
		"created_at": program.CreatedAt,
		"updated_at": program.UpdatedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert program")
	}

	return nil
}

func (r *ProgramRepository) GetByID(ctx context.Context, id string) (*entity.RateProgram, error) {
	query := `
		SELECT id, org_id, name, status, created_at, updated_at
		FROM rate_programs
		WHERE id = $1`

	var schema programSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.ProgramNotFound, "program not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get program")
	}

	return schema.toDomain(), nil
}

// ListByOrg returns the organization's programs, optionally filtered by
// status, newest first.
func (r *ProgramRepository) ListByOrg(ctx context.Context, orgID string, status entity.ProgramStatus) ([]entity.RateProgram, error) {
	query := `
		SELECT id, org_id, name, status, created_at, updated_at
		FROM rate_programs
		WHERE org_id = $1 AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC`

	var schemas []programSchema
	if err := r.db.SelectContext(ctx, &schemas, query, orgID, string(status)); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list programs")
	}

	programs := make([]entity.RateProgram, 0, len(schemas))
	for i := range schemas {
		programs = append(programs, *schemas[i].toDomain())
	}

	return programs, nil
}

func (r *ProgramRepository) Update(ctx context.Context, program *entity.RateProgram) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE rate_programs
			SET name = $1, status = $2, updated_at = $3
			WHERE id = $4`

		return execUpdateTx(ctx, tx, errcodes.ProgramNotFound, "program not found",
			query, program.Name, program.Status, time.Now(), program.ID)
	})
}

func (r *ProgramRepository) Delete(ctx context.Context, id string) error {
	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		query := `DELETE FROM rate_programs WHERE id = $1`

		return execUpdateTx(ctx, tx, errcodes.ProgramNotFound, "program not found", query, id)
	})
}

// runInTx is shared by the rating repositories.
func runInTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to begin transaction")
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return domain.WrapError(
				fmt.Errorf("%w; rollback: %v", err, rbErr),
				errcodes.InternalServerError,
				"transaction failed",
			)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to commit")
	}

	return nil
}

// execUpdateTx executes an update/delete and maps zero affected rows to a
// not-found domain error.
func execUpdateTx(
	ctx context.Context,
	tx *sqlx.Tx,
	notFoundCode failure.ErrorCode,
	notFoundMessage string,
	query string,
	args ...any,
) error {
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to execute update")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to check affected rows")
	}

	if rows == 0 {
		return domain.NewError(notFoundCode, notFoundMessage)
	}

	return nil
}
