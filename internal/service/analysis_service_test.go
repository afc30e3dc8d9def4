package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-workflow-be/internal/config"
	"research-workflow-be/internal/repository/contract"
	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/repository/memory"
	"research-workflow-be/internal/repository/specification"
	"research-workflow-be/internal/repository/unitofwork"
	"research-workflow-be/pkg/analysisspec"
	"research-workflow-be/pkg/events"
	"research-workflow-be/pkg/resolve"
	"research-workflow-be/pkg/specgen"
	"research-workflow-be/pkg/store"
)

// --- fakes ---

type fakeAnalysisRepo struct {
	analysis  *entity.Analysis
	updates   int
	updateErr error
}

func (r *fakeAnalysisRepo) Create(ctx context.Context, a *entity.Analysis) error {
	r.analysis = a
	return nil
}

func (r *fakeAnalysisRepo) Update(ctx context.Context, a *entity.Analysis) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.updates++
	r.analysis = a
	return nil
}

func (r *fakeAnalysisRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.analysis = nil
	return nil
}

func (r *fakeAnalysisRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error) {
	return r.analysis, nil
}

func (r *fakeAnalysisRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error) {
	if r.analysis == nil {
		return nil, nil
	}
	return []*entity.Analysis{r.analysis}, nil
}

func (r *fakeAnalysisRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

type fakeUow struct {
	analyses *fakeAnalysisRepo
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) ProjectRepository() contract.ProjectRepository   { return nil }
func (u *fakeUow) StudyRepository() contract.StudyRepository       { return nil }
func (u *fakeUow) AnalysisRepository() contract.AnalysisRepository { return u.analyses }

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

type fakeStudyService struct {
	projectId uuid.UUID
	root      string
	rootErr   error
}

func (s *fakeStudyService) GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.StudyResponse, error) {
	return nil, nil
}

func (s *fakeStudyService) Create(ctx context.Context, req *dto.CreateStudyRequest) (*dto.CreateStudyResponse, error) {
	return nil, nil
}

func (s *fakeStudyService) Show(ctx context.Context, id uuid.UUID) (*dto.StudyResponse, error) {
	return &dto.StudyResponse{Id: id, ProjectId: s.projectId}, nil
}

func (s *fakeStudyService) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *fakeStudyService) StudyRoot(ctx context.Context, id uuid.UUID) (string, error) {
	return s.root, s.rootErr
}

type fakePublisher struct {
	published []events.Event
}

func (p *fakePublisher) Publish(ctx context.Context, event events.Event) error {
	p.published = append(p.published, event)
	return nil
}

func (p *fakePublisher) eventTypes() []string {
	types := make([]string, 0, len(p.published))
	for _, e := range p.published {
		types = append(types, e.EventType())
	}
	return types
}

type fakeProducer struct {
	spec  *analysisspec.AnalysisSpec
	err   error
	args  specgen.GenerateArgs
	calls int
}

func (p *fakeProducer) GenerateSpec(ctx context.Context, args specgen.GenerateArgs) (*analysisspec.AnalysisSpec, error) {
	p.calls++
	p.args = args
	if p.err != nil {
		return nil, p.err
	}
	return p.spec.Clone(), nil
}

type noopLogger struct{}

func (noopLogger) Debug(module, message string, details map[string]interface{}) {}
func (noopLogger) Info(module, message string, details map[string]interface{})  {}
func (noopLogger) Warn(module, message string, details map[string]interface{})  {}
func (noopLogger) Error(module, message string, details map[string]interface{}) {}
func (noopLogger) Sync() error                                                  { return nil }

// --- harness ---

type fixture struct {
	service  IAnalysisService
	repo     *fakeAnalysisRepo
	producer *fakeProducer
	pub      *fakePublisher
	study    *fakeStudyService
	analysis *entity.Analysis
}

func producedSpec(analysisID string) *analysisspec.AnalysisSpec {
	return &analysisspec.AnalysisSpec{
		AnalysisID: analysisID,
		DataContract: analysisspec.DataContractSpec{
			ExpectedColumns: []string{"ResponseId", "wellbeing", "condition", "attention_1"},
		},
		VariableMappings: []analysisspec.VariableMapping{
			{PreregVar: "wellbeing", Candidates: []analysisspec.MappingCandidate{{Key: "wellbeing", Score: 0.97}}},
			{PreregVar: "attn", Candidates: []analysisspec.MappingCandidate{{Key: "attention_1", Score: 0.40}}},
		},
		Models: analysisspec.ModelsSpec{
			Main: []analysisspec.ModelSpec{{ID: "main_1", DV: "wellbeing", IV: []string{"condition"}}},
		},
		Warnings: []analysisspec.Warning{
			{
				Code:    analysisspec.WarnUnresolvedVariable,
				Message: "Variable \"attn\" could not be confidently mapped to a survey column.",
				Details: map[string]interface{}{"preregVar": "attn"},
			},
		},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	analysis := &entity.Analysis{
		Id:      uuid.New(),
		StudyId: uuid.New(),
		Name:    "main-models",
		Status:  string(resolve.StateIdle),
	}
	repo := &fakeAnalysisRepo{analysis: analysis}
	producer := &fakeProducer{spec: producedSpec(analysis.Id.String())}
	pub := &fakePublisher{}
	study := &fakeStudyService{projectId: uuid.New(), root: t.TempDir()}

	cfg := &config.Config{}
	cfg.Workspace.TemplateSet = "r_markdown_v1"
	cfg.Workspace.StyleProfile = "apa7"

	svc := NewAnalysisService(
		&fakeUowFactory{uow: &fakeUow{analyses: repo}},
		producer,
		memory.NewSessionRepository(),
		store.NewCurrentSpecs(),
		pub,
		study,
		cfg,
		noopLogger{},
	)

	return &fixture{
		service:  svc,
		repo:     repo,
		producer: producer,
		pub:      pub,
		study:    study,
		analysis: analysis,
	}
}

// --- tests ---

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	assert.Equal(t, string(resolve.StateReady), status.State)
	assert.Equal(t, []string{"attn"}, status.Unresolved)
	assert.Equal(t, 1, status.Warnings)

	// The producer receives the analysis identity and workspace settings.
	assert.Equal(t, f.analysis.Id.String(), f.producer.args.AnalysisID)
	assert.Equal(t, "r_markdown_v1", f.producer.args.TemplateSet)

	// Status is persisted and the pipeline hears about it.
	assert.Equal(t, string(resolve.StateReady), f.repo.analysis.Status)
	assert.Contains(t, f.pub.eventTypes(), events.TypeSpecGenerated)
	assert.Contains(t, f.pub.eventTypes(), events.TypeSessionStatusChanged)
}

func TestGenerateProducerFailure(t *testing.T) {
	f := newFixture(t)
	f.producer.err = errors.New("ollama: connection refused")
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.Error(t, err)

	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, 502, appErr.Status)
	assert.Equal(t, "PRODUCER_FAILURE", appErr.Code)
	assert.Contains(t, appErr.Message, "connection refused")

	// The session falls back to its prior state and nothing is persisted.
	status, err := f.service.Status(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, string(resolve.StateIdle), status.State)
	assert.NotEmpty(t, status.StatusMessage)
	assert.Zero(t, f.repo.updates)
}

func TestGenerateKeepsSavedResolutions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	saved := producedSpec(f.analysis.Id.String())
	resolvedTo := "attention_1"
	saved.VariableMappings[1].ResolvedTo = &resolvedTo
	f.analysis.Spec = saved

	status, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	// The saved resolution carries into the fresh spec, so nothing is
	// unresolved and its warning is gone.
	assert.Empty(t, status.Unresolved)
	assert.Zero(t, status.Warnings)
}

func TestOverrideAndRows(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	rows, err := f.service.Rows(ctx, f.analysis.Id)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "wellbeing", rows[0].Selected) // high confidence auto-seeded
	assert.Empty(t, rows[1].Selected)
	assert.Equal(t, resolve.ConfidenceLow, rows[1].Confidence)

	status, err := f.service.Override(ctx, f.analysis.Id, &dto.OverrideMappingRequest{
		PreregVar: "attn", Key: "attention_1",
	})
	require.NoError(t, err)
	assert.Equal(t, string(resolve.StateResolved), status.State)
	assert.Empty(t, status.Unresolved)

	// Clearing the pick reopens the resolution step.
	status, err = f.service.Override(ctx, f.analysis.Id, &dto.OverrideMappingRequest{PreregVar: "attn"})
	require.NoError(t, err)
	assert.Equal(t, string(resolve.StateResolving), status.State)
	assert.Equal(t, []string{"attn"}, status.Unresolved)
}

func TestEligibleColumns(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.EligibleColumns(ctx, f.analysis.Id)
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NO_SESSION", appErr.Code)

	_, err = f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	cols, err := f.service.EligibleColumns(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, []string{"attention_1", "condition", "wellbeing"}, cols.Columns)
}

func TestSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)
	_, err = f.service.Override(ctx, f.analysis.Id, &dto.OverrideMappingRequest{
		PreregVar: "attn", Key: "attention_1",
	})
	require.NoError(t, err)

	resp, err := f.service.Save(ctx, f.analysis.Id)
	require.NoError(t, err)

	wantPath := filepath.Join(f.study.root, "06_analysis", f.analysis.Id.String(), "spec.json")
	assert.Equal(t, wantPath, resp.SpecPath)
	if _, statErr := os.Stat(wantPath); statErr != nil {
		t.Errorf("spec.json not written: %v", statErr)
	}
	assert.Zero(t, resp.Warnings)

	assert.Equal(t, string(resolve.StateSaved), f.repo.analysis.Status)
	require.NotNil(t, f.repo.analysis.Spec)
	saved := f.repo.analysis.Spec.VariableMappings[1]
	require.NotNil(t, saved.ResolvedTo)
	assert.Equal(t, "attention_1", *saved.ResolvedTo)
	assert.Empty(t, f.repo.analysis.Spec.Warnings)

	assert.Contains(t, f.pub.eventTypes(), events.TypeSpecSaved)
}

func TestSaveBlockedWritesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)
	updatesAfterGenerate := f.repo.updates

	_, err = f.service.Save(ctx, f.analysis.Id)
	var blocked *resolve.ValidationBlockedError
	require.ErrorAs(t, err, &blocked)
	assert.Equal(t, []string{"attn"}, blocked.Vars)

	// The gate fires before any persistence.
	assert.Equal(t, updatesAfterGenerate, f.repo.updates)
	specDir := filepath.Join(f.study.root, "06_analysis", f.analysis.Id.String())
	if _, statErr := os.Stat(specDir); !os.IsNotExist(statErr) {
		t.Errorf("blocked save must not create %s", specDir)
	}

	status, err := f.service.Status(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, string(resolve.StateBlocked), status.State)
}

func TestSaveFailureKeepsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)
	_, err = f.service.Override(ctx, f.analysis.Id, &dto.OverrideMappingRequest{
		PreregVar: "attn", Key: "attention_1",
	})
	require.NoError(t, err)

	f.study.rootErr = errors.New("workspace unavailable")

	_, err = f.service.Save(ctx, f.analysis.Id)
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "SAVE_FAILURE", appErr.Code)
	assert.Equal(t, 500, appErr.Status)

	// Selections survive so the save can be retried.
	status, err := f.service.Status(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, string(resolve.StateResolved), status.State)
	assert.Empty(t, status.Unresolved)

	f.study.rootErr = nil
	_, err = f.service.Save(ctx, f.analysis.Id)
	require.NoError(t, err)
}

func TestSaveWithoutSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Save(context.Background(), f.analysis.Id)
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NO_SESSION", appErr.Code)
	assert.Equal(t, 409, appErr.Status)
}

func TestCurrentSpec(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.CurrentSpec(ctx, f.analysis.Id)
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NO_SAVED_SPEC", appErr.Code)

	_, err = f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)
	_, err = f.service.Override(ctx, f.analysis.Id, &dto.OverrideMappingRequest{
		PreregVar: "attn", Key: "attention_1",
	})
	require.NoError(t, err)
	_, err = f.service.Save(ctx, f.analysis.Id)
	require.NoError(t, err)

	spec, err := f.service.CurrentSpec(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, f.analysis.Id.String(), spec.AnalysisID)
}

func TestLayoutsAndOptions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	layouts, err := f.service.Layouts(ctx, f.analysis.Id)
	require.NoError(t, err)
	require.Len(t, layouts.Layouts, 1)
	assert.Equal(t, "main_1", layouts.Layouts[0].Name)
	// The DV selection remaps the outcome reference.
	assert.Equal(t, "wellbeing", layouts.Layouts[0].OutcomeVar)

	opts, err := f.service.Options(ctx, f.analysis.Id)
	require.NoError(t, err)
	assert.Equal(t, f.analysis.Id.String(), opts.Options.FileName)
	assert.Equal(t, "wellbeing", opts.Options.OutcomeVar)

	// Switching the template changes the derivation path.
	_, err = f.service.SetTemplateChoice(ctx, f.analysis.Id, &dto.TemplateChoiceRequest{Choice: "simple_ols"})
	require.NoError(t, err)
	_, err = f.service.SetManualVars(ctx, f.analysis.Id, &dto.ManualVarsRequest{
		DV: []string{"wellbeing"}, IV: []string{"condition"},
	})
	require.NoError(t, err)

	layouts, err = f.service.Layouts(ctx, f.analysis.Id)
	require.NoError(t, err)
	require.Len(t, layouts.Layouts, 1)
	assert.Equal(t, "model_1", layouts.Layouts[0].Name)
}

func TestDeleteDropsSessionState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.Generate(ctx, f.analysis.Id)
	require.NoError(t, err)

	require.NoError(t, f.service.Delete(ctx, f.analysis.Id))

	_, err = f.service.Status(ctx, f.analysis.Id)
	var appErr *serverutils.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
