package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"git.appkode.ru/pub/go/failure"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/validation"
	"rating_engine/pkg/errcodes"
	"rating_engine/pkg/httpx/reply"
	"rating_engine/pkg/httpx/req"
	"rating_engine/pkg/lox"
	"rating_engine/pkg/rest"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals // skip

type programRepository interface {
	Create(ctx context.Context, program *entity.RateProgram) error
	GetByID(ctx context.Context, id string) (*entity.RateProgram, error)
	ListByOrg(ctx context.Context, orgID string, status entity.ProgramStatus) ([]entity.RateProgram, error)
	Update(ctx context.Context, program *entity.RateProgram) error
	Delete(ctx context.Context, id string) error
}

type testCaseWriter interface {
	Create(ctx context.Context, testCase *entity.RatingTestCase) error
}

type versionManager interface {
	CreateVersion(ctx context.Context, programID string) (*entity.RateProgramVersion, error)
	GetVersion(ctx context.Context, versionID string) (*entity.RateProgramVersion, error)
	ListVersions(ctx context.Context, programID string) ([]entity.RateProgramVersion, error)
	GetPublishedVersion(ctx context.Context, programID string, effectiveDate *time.Time) (*entity.RateProgramVersion, error)
	AddStep(ctx context.Context, versionID string, step entity.RatingStep) (*entity.RatingStep, error)
	UpdateStep(ctx context.Context, stepID string, updated entity.RatingStep) (*entity.RatingStep, error)
	DeleteStep(ctx context.Context, stepID string) error
	ListSteps(ctx context.Context, versionID string) ([]entity.RatingStep, error)
	ValidateVersion(ctx context.Context, versionID string, fieldCodes []validation.FieldCode) (entity.ValidationResult, error)
	PublishVersion(ctx context.Context, versionID string, effectiveStart time.Time, effectiveEnd *time.Time,
		publishedBy string, fieldCodes []validation.FieldCode) (*entity.RateProgramVersion, error)
	CloneVersion(ctx context.Context, sourceVersionID string) (*entity.RateProgramVersion, error)
	RunTestCases(ctx context.Context, versionID string) ([]entity.TestCaseResult, error)
}

type ProgramServer struct {
	programs  programRepository
	testCases testCaseWriter
	versions  versionManager
}

func NewProgramServer(
	programs programRepository,
	testCases testCaseWriter,
	versions versionManager,
) ProgramServer {
	return ProgramServer{
		programs:  programs,
		testCases: testCases,
		versions:  versions,
	}
}

func (s ProgramServer) postV1Program(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateProgramRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	now := time.Now().UTC()
	program := entity.RateProgram{
		ID:        uuid.NewString(),
		OrgID:     request.OrgID,
		Name:      request.Name,
		Status:    entity.ProgramActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.programs.Create(ctx, &program); err != nil {
		return fmt.Errorf("programs.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTProgram(program))

	return nil
}

func (s ProgramServer) getV1Programs(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	orgID := r.URL.Query().Get("orgId")
	if orgID == "" {
		return failure.NewInvalidArgumentError("orgId query parameter is required",
			failure.WithCode(errcodes.ValidationError))
	}

	programs, err := s.programs.ListByOrg(ctx, orgID, entity.ProgramStatus(r.URL.Query().Get("status")))
	if err != nil {
		return fmt.Errorf("programs.ListByOrg: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(programs, newRESTProgram))

	return nil
}

func (s ProgramServer) getV1Program(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	program, err := s.programs.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("programs.GetByID: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProgram(*program))

	return nil
}

func (s ProgramServer) putV1Program(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.UpdateProgramRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	program, err := s.programs.GetByID(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("programs.GetByID: %w", err)
	}

	program.Name = request.Name
	program.Status = entity.ProgramStatus(request.Status)
	program.UpdatedAt = time.Now().UTC()

	if err := s.programs.Update(ctx, program); err != nil {
		return fmt.Errorf("programs.Update: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTProgram(*program))

	return nil
}

func (s ProgramServer) deleteV1Program(w http.ResponseWriter, r *http.Request) error {
	if err := s.programs.Delete(r.Context(), r.PathValue("id")); err != nil {
		return fmt.Errorf("programs.Delete: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s ProgramServer) postV1ProgramVersion(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	version, err := s.versions.CreateVersion(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.CreateVersion: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTVersion(*version))

	return nil
}

func (s ProgramServer) getV1ProgramVersions(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	versions, err := s.versions.ListVersions(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.ListVersions: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(versions, newRESTVersion))

	return nil
}

// getV1ProgramPublished resolves the version in effect on the requested date.
// A 200 with a null version means no published version covers the date; the
// caller decides whether that is an error.
func (s ProgramServer) getV1ProgramPublished(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	effectiveDate, err := parseEffectiveDate(r.URL.Query().Get("date"))
	if err != nil {
		return err
	}

	version, err := s.versions.GetPublishedVersion(ctx, r.PathValue("id"), effectiveDate)
	if err != nil {
		return fmt.Errorf("versions.GetPublishedVersion: %w", err)
	}

	var resolved rest.ResolvedVersion
	if version != nil {
		restVersion := newRESTVersion(*version)
		resolved.Version = &restVersion
	}

	reply.JSON(ctx, w, http.StatusOK, resolved)

	return nil
}

func (s ProgramServer) postV1ProgramTestCase(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateTestCaseRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	payload, err := json.Marshal(request.Payload)
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("json.Marshal: %w", err),
			failure.WithCode(errcodes.ValidationError),
		)
	}

	testCase := entity.RatingTestCase{
		ID:              uuid.NewString(),
		ProgramID:       r.PathValue("id"),
		Name:            request.Name,
		Payload:         payload,
		ExpectedPremium: request.ExpectedPremium,
		CreatedAt:       time.Now().UTC(),
	}

	if err := s.testCases.Create(ctx, &testCase); err != nil {
		return fmt.Errorf("testCases.Create: %w", err)
	}

	reply.Created(w)

	return nil
}

func (s ProgramServer) getV1Version(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	version, err := s.versions.GetVersion(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.GetVersion: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTVersion(*version))

	return nil
}

func (s ProgramServer) postV1VersionStep(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateStepRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	step, err := s.versions.AddStep(ctx, r.PathValue("id"), entity.RatingStep{
		Type:   entity.StepType(request.Type),
		Config: newDomainStepConfig(request.Config),
		Order:  request.Order,
	})
	if err != nil {
		return fmt.Errorf("versions.AddStep: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTStep(*step))

	return nil
}

func (s ProgramServer) getV1VersionSteps(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	steps, err := s.versions.ListSteps(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.ListSteps: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(steps, newRESTStep))

	return nil
}

func (s ProgramServer) putV1Step(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateStepRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	step, err := s.versions.UpdateStep(ctx, r.PathValue("id"), entity.RatingStep{
		Type:   entity.StepType(request.Type),
		Config: newDomainStepConfig(request.Config),
		Order:  request.Order,
	})
	if err != nil {
		return fmt.Errorf("versions.UpdateStep: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTStep(*step))

	return nil
}

func (s ProgramServer) deleteV1Step(w http.ResponseWriter, r *http.Request) error {
	if err := s.versions.DeleteStep(r.Context(), r.PathValue("id")); err != nil {
		return fmt.Errorf("versions.DeleteStep: %w", err)
	}

	reply.OK(w)

	return nil
}

func (s ProgramServer) postV1VersionValidate(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.ValidateRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	result, err := s.versions.ValidateVersion(ctx, r.PathValue("id"), newDomainFieldCodes(request.FieldCodes))
	if err != nil {
		return fmt.Errorf("versions.ValidateVersion: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTValidationResult(result))

	return nil
}

func (s ProgramServer) postV1VersionPublish(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.PublishRequest
	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	version, err := s.versions.PublishVersion(ctx, r.PathValue("id"),
		request.EffectiveStart, request.EffectiveEnd, request.PublishedBy,
		newDomainFieldCodes(request.FieldCodes))
	if err != nil {
		return fmt.Errorf("versions.PublishVersion: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTVersion(*version))

	return nil
}

func (s ProgramServer) postV1VersionClone(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	version, err := s.versions.CloneVersion(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.CloneVersion: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTVersion(*version))

	return nil
}

func (s ProgramServer) postV1VersionRunTestCases(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	results, err := s.versions.RunTestCases(ctx, r.PathValue("id"))
	if err != nil {
		return fmt.Errorf("versions.RunTestCases: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, lox.Map(results, newRESTTestCaseResult))

	return nil
}

func parseEffectiveDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil //nolint:nilnil // absent date resolves the latest published version
	}

	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if date, err := time.Parse(layout, raw); err == nil {
			return &date, nil
		}
	}

	return nil, failure.NewInvalidArgumentError(
		fmt.Sprintf("unparsable date %q", raw),
		failure.WithCode(errcodes.ValidationError),
	)
}
