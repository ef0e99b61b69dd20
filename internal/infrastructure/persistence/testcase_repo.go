package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/pkg/errcodes"
)

type TestCaseRepository struct {
	db *sqlx.DB
}

func NewTestCaseRepository(db *sqlx.DB) *TestCaseRepository {
	return &TestCaseRepository{db: db}
}

func (r *TestCaseRepository) Create(ctx context.Context, testCase *entity.RatingTestCase) error {
	query := `
		INSERT INTO rating_test_cases (id, program_id, name, payload, expected_premium, created_at)
		VALUES (:id, :program_id, :name, :payload, :expected_premium, :created_at)`

	params := map[string]any{
		"id":               testCase.ID,
		"program_id":       testCase.ProgramID,
		"name":             testCase.Name,
		"payload":          testCase.Payload,
		"expected_premium": testCase.ExpectedPremium,
		"created_at":       testCase.CreatedAt,
	}

	if _, err := r.db.NamedExecContext(ctx, query, params); err != nil {
		return domain.WrapError(err, errcodes.InternalServerError, "failed to insert test case")
	}

	return nil
}

func (r *TestCaseRepository) GetByID(ctx context.Context, id string) (*entity.RatingTestCase, error) {
	query := `
		SELECT id, program_id, name, payload, expected_premium, created_at
		FROM rating_test_cases
		WHERE id = $1`

	var schema testCaseSchema
	if err := r.db.GetContext(ctx, &schema, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewError(errcodes.TestCaseNotFound, "test case not found")
		}
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to get test case")
	}

	return schema.toDomain(), nil
}

func (r *TestCaseRepository) ListByProgram(ctx context.Context, programID string) ([]entity.RatingTestCase, error) {
	query := `
		SELECT id, program_id, name, payload, expected_premium, created_at
		FROM rating_test_cases
		WHERE program_id = $1
		ORDER BY created_at`

	var schemas []testCaseSchema
	if err := r.db.SelectContext(ctx, &schemas, query, programID); err != nil {
		return nil, domain.WrapError(err, errcodes.InternalServerError, "failed to list test cases")
	}

	testCases := make([]entity.RatingTestCase, 0, len(schemas))
	for i := range schemas {
		testCases = append(testCases, *schemas[i].toDomain())
	}

	return testCases, nil
}

func (r *TestCaseRepository) Delete(ctx context.Context, id string) error {
	return runInTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `DELETE FROM rating_test_cases WHERE id = $1`

		return execUpdateTx(ctx, tx, errcodes.TestCaseNotFound, "test case not found", query, id)
	})
}
