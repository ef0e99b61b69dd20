package lifecycle_test

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/require"

	"rating_engine/internal/domain"
	"rating_engine/internal/domain/entity"
	"rating_engine/internal/domain/service/lifecycle"
	"rating_engine/internal/domain/service/validation"
	"rating_engine/pkg/errcodes"
)

type versionRepoFake struct {
	mu   sync.Mutex
	byID map[string]entity.RateProgramVersion
}

func newVersionRepoFake() *versionRepoFake {
	return &versionRepoFake{byID: map[string]entity.RateProgramVersion{}}
}

func (r *versionRepoFake) CreateDraft(_ context.Context, version *entity.RateProgramVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	max := 0
	for _, v := range r.byID {
		if v.ProgramID == version.ProgramID && v.VersionNumber > max {
			max = v.VersionNumber
		}
	}

	version.VersionNumber = max + 1
	r.byID[version.ID] = *version

	return nil
}

func (r *versionRepoFake) GetByID(_ context.Context, id string) (*entity.RateProgramVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	version, ok := r.byID[id]
	if !ok {
		return nil, domain.NewError(errcodes.VersionNotFound, "version not found")
	}

	return &version, nil
}

func (r *versionRepoFake) Update(_ context.Context, version *entity.RateProgramVersion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[version.ID] = *version

	return nil
}

func (r *versionRepoFake) ListByProgram(_ context.Context, programID string) ([]entity.RateProgramVersion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var versions []entity.RateProgramVersion
	for _, v := range r.byID {
		if v.ProgramID == programID {
			versions = append(versions, v)
		}
	}

	sort.Slice(versions, func(i, j int) bool {
		return versions[i].VersionNumber > versions[j].VersionNumber
	})

	return versions, nil
}

func (r *versionRepoFake) ListPublished(ctx context.Context, programID string) ([]entity.RateProgramVersion, error) {
	all, _ := r.ListByProgram(ctx, programID)

	var published []entity.RateProgramVersion
	for _, v := range all {
		if v.Status == entity.VersionPublished {
			published = append(published, v)
		}
	}

	return published, nil
}

func (r *versionRepoFake) tamperStatus(id string, status entity.VersionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v := r.byID[id]
	v.Status = status
	r.byID[id] = v
}

type stepRepoFake struct {
	mu    sync.Mutex
	byID  map[string]entity.RatingStep
	order []string
}

func newStepRepoFake() *stepRepoFake {
	return &stepRepoFake{byID: map[string]entity.RatingStep{}}
}

func (r *stepRepoFake) Create(_ context.Context, step *entity.RatingStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[step.ID] = *step
	r.order = append(r.order, step.ID)

	return nil
}

func (r *stepRepoFake) CreateBatch(ctx context.Context, steps []entity.RatingStep) error {
	for i := range steps {
		if err := r.Create(ctx, &steps[i]); err != nil {
			return err
		}
	}

	return nil
}

func (r *stepRepoFake) GetByID(_ context.Context, id string) (*entity.RatingStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step, ok := r.byID[id]
	if !ok {
		return nil, domain.NewError(errcodes.NotFound, "step not found")
	}

	return &step, nil
}

func (r *stepRepoFake) ListByVersion(_ context.Context, versionID string) ([]entity.RatingStep, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var steps []entity.RatingStep
	for _, id := range r.order {
		step, ok := r.byID[id]
		if ok && step.VersionID == versionID {
			steps = append(steps, step)
		}
	}

	sort.SliceStable(steps, func(i, j int) bool {
		return steps[i].Order < steps[j].Order
	})

	return steps, nil
}

func (r *stepRepoFake) Update(_ context.Context, step *entity.RatingStep) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[step.ID] = *step

	return nil
}

func (r *stepRepoFake) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byID, id)

	return nil
}

func (r *stepRepoFake) tamperValue(id string, v float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	step := r.byID[id]
	step.Config.Value = v
	r.byID[id] = step
}

type testCaseRepoFake struct {
	cases []entity.RatingTestCase
}

func (r *testCaseRepoFake) ListByProgram(_ context.Context, programID string) ([]entity.RatingTestCase, error) {
	var cases []entity.RatingTestCase
	for _, tc := range r.cases {
		if tc.ProgramID == programID {
			cases = append(cases, tc)
		}
	}

	return cases, nil
}

type fixture struct {
	versions  *versionRepoFake
	steps     *stepRepoFake
	testCases *testCaseRepoFake
	manager   *lifecycle.Manager
}

func newFixture() fixture {
	versions := newVersionRepoFake()
	steps := newStepRepoFake()
	testCases := &testCaseRepoFake{}

	return fixture{
		versions:  versions,
		steps:     steps,
		testCases: testCases,
		manager: lifecycle.NewManager(versions, steps, testCases,
			cache.New(time.Minute, time.Minute)),
	}
}

var fieldCodes = []validation.FieldCode{ //nolint:gochecknoglobals // test fixture
	{Code: "territory_factor"},
	{Code: "old_class_code", Deprecated: true},
}

func TestCreateVersionNumbering(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	first, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)
	rq.Equal(1, first.VersionNumber)
	rq.Equal(entity.VersionDraft, first.Status)

	second, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)
	rq.Equal(2, second.VersionNumber)

	other, err := fx.manager.CreateVersion(ctx, "program-2")
	rq.NoError(err)
	rq.Equal(1, other.VersionNumber)
}

func TestPublishVersion(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type:   entity.StepMultiply,
		Config: entity.StepConfig{FactorKey: "territory_factor"},
		Order:  1,
	})
	rq.NoError(err)

	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

	published, err := fx.manager.PublishVersion(ctx, draft.ID, start, nil, "actuary@example.com", fieldCodes)
	rq.NoError(err)

	rq.Equal(entity.VersionPublished, published.Status)
	rq.NotEmpty(published.StepsHash)
	rq.Equal("actuary@example.com", published.PublishedBy)
	rq.NotNil(published.PublishedAt)
	rq.Equal(&start, published.EffectiveStart)
	rq.Nil(published.EffectiveEnd)
	rq.Zero(published.ValidationWarnings)

	steps, err := fx.manager.ListSteps(ctx, draft.ID)
	rq.NoError(err)
	rq.Equal(lifecycle.StepsHash(steps), published.StepsHash)

	// Publishing twice is rejected.
	_, err = fx.manager.PublishVersion(ctx, draft.ID, start, nil, "actuary@example.com", fieldCodes)
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.VersionAlreadyPublished, code)
}

func TestPublishVersionBlockedByErrors(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type:   entity.StepMultiply,
		Config: entity.StepConfig{FactorKey: "not_in_dictionary"},
		Order:  1,
	})
	rq.NoError(err)

	_, err = fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", fieldCodes)
	rq.Error(err)
	rq.ErrorContains(err, "not_in_dictionary")

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.PublishBlocked, code)

	// The version is left untouched.
	version, err := fx.manager.GetVersion(ctx, draft.ID)
	rq.NoError(err)
	rq.Equal(entity.VersionDraft, version.Status)
	rq.Empty(version.StepsHash)
}

func TestPublishVersionWithWarnings(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type:   entity.StepMultiply,
		Config: entity.StepConfig{FactorKey: "old_class_code"},
		Order:  1,
	})
	rq.NoError(err)

	published, err := fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", fieldCodes)
	rq.NoError(err)

	// Deprecated references warn but never block.
	rq.Equal(entity.VersionPublished, published.Status)
	rq.Equal(1, published.ValidationWarnings)
}

func TestValidateVersionStampsAudit(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type:   entity.StepMultiply,
		Config: entity.StepConfig{FactorKey: "old_class_code"},
		Order:  1,
	})
	rq.NoError(err)

	result, err := fx.manager.ValidateVersion(ctx, draft.ID, fieldCodes)
	rq.NoError(err)
	rq.True(result.IsValid)
	rq.Len(result.Warnings, 1)

	version, err := fx.manager.GetVersion(ctx, draft.ID)
	rq.NoError(err)
	rq.NotNil(version.LastValidatedAt)
	rq.Equal(1, version.ValidationWarnings)
	// Validation never changes status.
	rq.Equal(entity.VersionDraft, version.Status)
}

func TestStepsFrozenAfterPublish(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	step, err := fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type:   entity.StepAdd,
		Config: entity.StepConfig{Value: 10},
		Order:  1,
	})
	rq.NoError(err)

	_, err = fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", fieldCodes)
	rq.NoError(err)

	assertFrozen := func(err error) {
		rq.Error(err)

		code, ok := domain.GetCode(err)
		rq.True(ok)
		rq.Equal(errcodes.InvalidVersionStatus, code)
	}

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{Type: entity.StepAdd, Order: 2})
	assertFrozen(err)

	_, err = fx.manager.UpdateStep(ctx, step.ID, entity.RatingStep{Type: entity.StepAdd, Order: 1})
	assertFrozen(err)

	assertFrozen(fx.manager.DeleteStep(ctx, step.ID))
}

func TestAddStepRejectsUnknownType(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{Type: entity.StepType("Surcharge"), Order: 1})
	rq.Error(err)

	code, ok := domain.GetCode(err)
	rq.True(ok)
	rq.Equal(errcodes.InvalidStepType, code)
}

func TestGetPublishedVersion(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	publish := func(start, end time.Time) *entity.RateProgramVersion {
		draft, err := fx.manager.CreateVersion(ctx, "program-1")
		rq.NoError(err)

		var endPtr *time.Time
		if !end.IsZero() {
			endPtr = &end
		}

		published, err := fx.manager.PublishVersion(ctx, draft.ID, start, endPtr, "actuary", nil)
		rq.NoError(err)

		return published
	}

	jan := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2026, time.June, 30, 0, 0, 0, 0, time.UTC)
	apr := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	v1 := publish(jan, jun)
	v2 := publish(apr, time.Time{})

	// An extra draft never resolves.
	_, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	testCases := []struct {
		name string
		date time.Time
		want *entity.RateProgramVersion
	}{
		{
			name: "date inside the first window only",
			date: time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC),
			want: v1,
		},
		{
			name: "overlap resolved to the higher version number",
			date: time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
			want: v2,
		},
		{
			name: "date after the first window's end",
			date: time.Date(2026, time.December, 1, 0, 0, 0, 0, time.UTC),
			want: v2,
		},
		{
			name: "date before any window",
			date: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			want: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(*testing.T) {
			got, err := fx.manager.GetPublishedVersion(ctx, "program-1", &tc.date)
			rq.NoError(err)

			if tc.want == nil {
				rq.Nil(got)
				return
			}

			rq.NotNil(got)
			rq.Equal(tc.want.ID, got.ID)
		})
	}

	// Without a date the highest published number wins.
	latest, err := fx.manager.GetPublishedVersion(ctx, "program-1", nil)
	rq.NoError(err)
	rq.NotNil(latest)
	rq.Equal(v2.ID, latest.ID)

	// A program with no published versions is a first-class "no rate" outcome.
	none, err := fx.manager.GetPublishedVersion(ctx, "program-without-versions", nil)
	rq.NoError(err)
	rq.Nil(none)
}

func TestGetPublishedVersionCacheInvalidation(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	v1, err := fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", nil)
	rq.NoError(err)

	got, err := fx.manager.GetPublishedVersion(ctx, "program-1", nil)
	rq.NoError(err)
	rq.Equal(v1.ID, got.ID)

	// Publishing a newer version must evict the cached resolution.
	secondDraft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	v2, err := fx.manager.PublishVersion(ctx, secondDraft.ID, time.Now().UTC(), nil, "actuary", nil)
	rq.NoError(err)

	got, err = fx.manager.GetPublishedVersion(ctx, "program-1", nil)
	rq.NoError(err)
	rq.Equal(v2.ID, got.ID)
}

func TestCloneVersion(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "territory_factor"}, Order: 2,
	})
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type: entity.StepAdd, Config: entity.StepConfig{Value: 25}, Order: 1,
	})
	rq.NoError(err)

	_, err = fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", fieldCodes)
	rq.NoError(err)

	clone, err := fx.manager.CloneVersion(ctx, draft.ID)
	rq.NoError(err)

	rq.Equal(entity.VersionDraft, clone.Status)
	rq.Equal(2, clone.VersionNumber)
	rq.Empty(clone.StepsHash)

	sourceSteps, err := fx.manager.ListSteps(ctx, draft.ID)
	rq.NoError(err)

	clonedSteps, err := fx.manager.ListSteps(ctx, clone.ID)
	rq.NoError(err)
	rq.Len(clonedSteps, 2)

	for i := range clonedSteps {
		rq.NotEqual(sourceSteps[i].ID, clonedSteps[i].ID)
		rq.Equal(clone.ID, clonedSteps[i].VersionID)
		rq.Equal(sourceSteps[i].Type, clonedSteps[i].Type)
		rq.Equal(sourceSteps[i].Config, clonedSteps[i].Config)
		rq.Equal(sourceSteps[i].Order, clonedSteps[i].Order)
	}

	// Identical content hashes identically despite new row identities.
	rq.Equal(lifecycle.StepsHash(sourceSteps), lifecycle.StepsHash(clonedSteps))
}

func TestRunTestCases(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	_, err = fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type: entity.StepMultiply, Config: entity.StepConfig{FactorKey: "territory_factor"}, Order: 1,
	})
	rq.NoError(err)

	payload := []byte(`{
		"coverages": [{"coverage_id": "gl", "selected": true}],
		"base_rates": [{"coverage_id": "gl", "rate": 100, "basis": "flat"}],
		"risk_factors": {"territory_factor": 1.5}
	}`)

	fx.testCases.cases = []entity.RatingTestCase{
		{ID: "tc-1", ProgramID: "program-1", Name: "passes", Payload: payload, ExpectedPremium: 150},
		{ID: "tc-2", ProgramID: "program-1", Name: "fails", Payload: payload, ExpectedPremium: 100},
		{ID: "tc-3", ProgramID: "program-1", Name: "malformed", Payload: []byte(`{`), ExpectedPremium: 0},
	}

	results, err := fx.manager.RunTestCases(ctx, draft.ID)
	rq.NoError(err)
	rq.Len(results, 3)

	rq.True(results[0].Passed)
	rq.InDelta(150, results[0].Actual, 1e-9)

	rq.False(results[1].Passed)
	rq.InDelta(150, results[1].Actual, 1e-9)

	rq.False(results[2].Passed)
	rq.NotEmpty(results[2].Error)
}

func TestVerifyStepsHash(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	fx := newFixture()

	draft, err := fx.manager.CreateVersion(ctx, "program-1")
	rq.NoError(err)

	step, err := fx.manager.AddStep(ctx, draft.ID, entity.RatingStep{
		Type: entity.StepAdd, Config: entity.StepConfig{Value: 10}, Order: 1,
	})
	rq.NoError(err)

	// Only published versions carry a frozen hash.
	_, err = fx.manager.VerifyStepsHash(ctx, draft.ID)
	rq.Error(err)

	_, err = fx.manager.PublishVersion(ctx, draft.ID, time.Now().UTC(), nil, "actuary", fieldCodes)
	rq.NoError(err)

	ok, err := fx.manager.VerifyStepsHash(ctx, draft.ID)
	rq.NoError(err)
	rq.True(ok)

	// Out-of-band editing bypasses the manager's draft gate.
	fx.steps.tamperValue(step.ID, 9999)

	ok, err = fx.manager.VerifyStepsHash(ctx, draft.ID)
	rq.NoError(err)
	rq.False(ok)
}
