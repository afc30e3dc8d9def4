package service

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/config"
	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/pkg/logger"
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

type IAnalysisService interface {
	Create(ctx context.Context, req *dto.CreateAnalysisRequest) (*dto.CreateAnalysisResponse, error)
	GetAll(ctx context.Context, studyId uuid.UUID) ([]*dto.AnalysisResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	Generate(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error)
	Status(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error)
	Rows(ctx context.Context, id uuid.UUID) ([]*dto.MappingRowResponse, error)
	EligibleColumns(ctx context.Context, id uuid.UUID) (*dto.EligibleColumnsResponse, error)
	Override(ctx context.Context, id uuid.UUID, req *dto.OverrideMappingRequest) (*dto.SessionStatusResponse, error)
	SetManualVars(ctx context.Context, id uuid.UUID, req *dto.ManualVarsRequest) (*dto.SessionStatusResponse, error)
	SetTemplateChoice(ctx context.Context, id uuid.UUID, req *dto.TemplateChoiceRequest) (*dto.SessionStatusResponse, error)
	Layouts(ctx context.Context, id uuid.UUID) (*dto.LayoutsResponse, error)
	Options(ctx context.Context, id uuid.UUID) (*dto.OptionsResponse, error)
	Save(ctx context.Context, id uuid.UUID) (*dto.SaveSpecResponse, error)
	CurrentSpec(ctx context.Context, id uuid.UUID) (*analysisspec.AnalysisSpec, error)
}

// analysisService orchestrates the resolution wizard: it owns the sessions,
// calls the spec producer, gates the save, and persists the final document.
// Sessions are mutated under a per-analysis lock; everything inside the
// session itself is lock-free.
type analysisService struct {
	uowFactory   unitofwork.RepositoryFactory
	producer     specgen.Producer
	sessions     *memory.SessionRepository
	currentSpecs *store.CurrentSpecs
	publisher    IPublisherService
	studyService IStudyService
	cfg          *config.Config
	log          logger.ILogger

	locks sync.Map // analysis id -> *sync.Mutex
}

func NewAnalysisService(
	uowFactory unitofwork.RepositoryFactory,
	producer specgen.Producer,
	sessions *memory.SessionRepository,
	currentSpecs *store.CurrentSpecs,
	publisher IPublisherService,
	studyService IStudyService,
	cfg *config.Config,
	log logger.ILogger,
) IAnalysisService {
	return &analysisService{
		uowFactory:   uowFactory,
		producer:     producer,
		sessions:     sessions,
		currentSpecs: currentSpecs,
		publisher:    publisher,
		studyService: studyService,
		cfg:          cfg,
		log:          log,
	}
}

func (s *analysisService) lock(id uuid.UUID) func() {
	mu, _ := s.locks.LoadOrStore(id.String(), &sync.Mutex{})
	m := mu.(*sync.Mutex)
	m.Lock()
	return m.Unlock
}

// --- CRUD ---

func (s *analysisService) Create(ctx context.Context, req *dto.CreateAnalysisRequest) (*dto.CreateAnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	study, err := uow.StudyRepository().FindOne(ctx, specification.ByID{ID: req.StudyId})
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Study not found", nil)
	}

	analysis := entity.Analysis{
		Id:         uuid.New(),
		StudyId:    req.StudyId,
		Name:       req.Name,
		Status:     string(resolve.StateIdle),
		QSFPath:    req.QSFPath,
		PreregPath: req.PreregPath,
		CreatedAt:  time.Now(),
	}
	if err := uow.AnalysisRepository().Create(ctx, &analysis); err != nil {
		return nil, err
	}

	return &dto.CreateAnalysisResponse{Id: analysis.Id}, nil
}

func (s *analysisService) GetAll(ctx context.Context, studyId uuid.UUID) ([]*dto.AnalysisResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	analyses, err := uow.AnalysisRepository().FindAll(ctx,
		specification.ByStudyID{StudyID: studyId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.AnalysisResponse, 0, len(analyses))
	for _, a := range analyses {
		result = append(result, toAnalysisResponse(a))
	}
	return result, nil
}

func (s *analysisService) Show(ctx context.Context, id uuid.UUID) (*dto.AnalysisResponse, error) {
	analysis, err := s.findAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	return toAnalysisResponse(analysis), nil
}

func (s *analysisService) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.lock(id)
	defer unlock()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnalysisRepository().Delete(ctx, id); err != nil {
		return err
	}
	s.sessions.Delete(id.String())
	s.currentSpecs.Delete(id.String())
	return nil
}

func toAnalysisResponse(a *entity.Analysis) *dto.AnalysisResponse {
	return &dto.AnalysisResponse{
		Id:         a.Id,
		StudyId:    a.StudyId,
		Name:       a.Name,
		Status:     a.Status,
		SpecPath:   a.SpecPath,
		QSFPath:    a.QSFPath,
		PreregPath: a.PreregPath,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

// --- Wizard ---

// Generate runs the producer and installs the result into the session. A
// spec saved earlier keeps its accepted resolutions across regeneration.
// The one-shot call either succeeds or surfaces its error verbatim with the
// session back in its prior state.
func (s *analysisService) Generate(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	analysis, err := s.findAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	study, err := s.studyService.Show(ctx, analysis.StudyId)
	if err != nil {
		return nil, err
	}

	session := s.session(analysis, study.ProjectId)
	if err := session.BeginGenerate(); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	s.broadcastStatus(ctx, session)

	spec, err := s.producer.GenerateSpec(ctx, specgen.GenerateArgs{
		ProjectID:    study.ProjectId.String(),
		StudyID:      analysis.StudyId.String(),
		AnalysisID:   analysis.Id.String(),
		QSFPath:      analysis.QSFPath,
		PreregPath:   analysis.PreregPath,
		TemplateSet:  s.cfg.Workspace.TemplateSet,
		StyleProfile: s.cfg.Workspace.StyleProfile,
	})
	if err != nil {
		session.FailGenerate(err.Error())
		s.sessions.Save(session)
		s.broadcastStatus(ctx, session)
		s.log.Error("Analysis", "Spec generation failed", map[string]interface{}{
			"analysis_id": id.String(), "error": err.Error(),
		})
		return nil, serverutils.NewAppError(fiber.StatusBadGateway, "PRODUCER_FAILURE",
			"Spec generation failed: "+err.Error(), err)
	}

	if analysis.Spec != nil {
		spec = resolve.MergeSavedResolutions(spec, analysis.Spec)
	}
	if err := session.CompleteGenerate(spec); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	s.persistStatus(ctx, analysis, session)

	if err := s.publisher.Publish(ctx, events.NewSpecGenerated(id.String(), len(spec.Warnings))); err != nil {
		s.log.Warn("Analysis", "Failed to publish SPEC_GENERATED", map[string]interface{}{"error": err.Error()})
	}
	s.broadcastStatus(ctx, session)

	return statusResponse(session), nil
}

func (s *analysisService) Status(ctx context.Context, id uuid.UUID) (*dto.SessionStatusResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return statusResponse(session), nil
}

func (s *analysisService) Rows(ctx context.Context, id uuid.UUID) ([]*dto.MappingRowResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}

	rows := session.Rows()
	result := make([]*dto.MappingRowResponse, 0, len(rows))
	for _, row := range rows {
		resp := &dto.MappingRowResponse{
			PreregVar:  row.PreregVar,
			ResolvedTo: row.ResolvedTo,
			TopScore:   row.TopScore,
			Confidence: row.Confidence,
			Candidates: row.Candidates,
		}
		if key, ok := session.Selections.Resolved(row.PreregVar); ok {
			resp.Selected = key
		}
		result = append(result, resp)
	}
	return result, nil
}

func (s *analysisService) EligibleColumns(ctx context.Context, id uuid.UUID) (*dto.EligibleColumnsResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if session.Spec == nil {
		return nil, serverutils.NewAppError(fiber.StatusConflict, "NO_SPEC",
			"No spec generated for this analysis yet", nil)
	}
	return &dto.EligibleColumnsResponse{
		Columns: resolve.EligibleColumns(session.Spec.DataContract.ExpectedColumns),
	}, nil
}

func (s *analysisService) Override(ctx context.Context, id uuid.UUID, req *dto.OverrideMappingRequest) (*dto.SessionStatusResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.Override(req.PreregVar, req.Key); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	s.broadcastStatus(ctx, session)
	return statusResponse(session), nil
}

func (s *analysisService) SetManualVars(ctx context.Context, id uuid.UUID, req *dto.ManualVarsRequest) (*dto.SessionStatusResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.SetManualVars(req.DV, req.IV, req.Controls); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return statusResponse(session), nil
}

func (s *analysisService) SetTemplateChoice(ctx context.Context, id uuid.UUID, req *dto.TemplateChoiceRequest) (*dto.SessionStatusResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := session.SetTemplateChoice(resolve.TemplateChoice(req.Choice)); err != nil {
		return nil, err
	}
	s.sessions.Save(session)
	return statusResponse(session), nil
}

func (s *analysisService) Layouts(ctx context.Context, id uuid.UUID) (*dto.LayoutsResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.LayoutsResponse{
		Layouts: resolve.DeriveLayouts(session.Spec, session.Selections, session.TemplateChoice),
	}, nil
}

func (s *analysisService) Options(ctx context.Context, id uuid.UUID) (*dto.OptionsResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	session, err := s.loadSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.OptionsResponse{
		Options: resolve.ToOptions(session.Spec, id.String(), session.Selections, session.TemplateChoice),
	}, nil
}

// Save merges the selections into the spec, writes it to the analysis folder
// and the database, and announces the new current document. The unresolved
// gate fires before any of that: a blocked session causes no writes at all.
func (s *analysisService) Save(ctx context.Context, id uuid.UUID) (*dto.SaveSpecResponse, error) {
	unlock := s.lock(id)
	defer unlock()

	analysis, err := s.findAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	session, err := s.loadSessionFor(ctx, analysis)
	if err != nil {
		return nil, err
	}

	if err := session.BeginSave(); err != nil {
		s.sessions.Save(session)
		return nil, err
	}
	s.sessions.Save(session)

	applied := resolve.ApplyMappings(session.Spec, session.Selections)

	specPath, err := s.writeSpecFile(ctx, analysis, applied)
	if err == nil {
		analysis.Spec = applied
		analysis.SpecPath = specPath
		analysis.Status = string(resolve.StateSaved)
		uow := s.uowFactory.NewUnitOfWork(ctx)
		err = uow.AnalysisRepository().Update(ctx, analysis)
	}
	if err != nil {
		session.FailSave(err.Error())
		s.sessions.Save(session)
		s.broadcastStatus(ctx, session)
		s.log.Error("Analysis", "Spec save failed", map[string]interface{}{
			"analysis_id": id.String(), "error": err.Error(),
		})
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, "SAVE_FAILURE",
			"Spec save failed: "+err.Error(), err)
	}

	if err := session.CompleteSave(applied); err != nil {
		return nil, err
	}
	s.sessions.Save(session)

	if err := s.publisher.Publish(ctx, events.NewSpecSaved(id.String(), specPath)); err != nil {
		s.log.Warn("Analysis", "Failed to publish SPEC_SAVED", map[string]interface{}{"error": err.Error()})
	}
	s.broadcastStatus(ctx, session)

	return &dto.SaveSpecResponse{
		SpecPath: specPath,
		Warnings: len(applied.Warnings),
	}, nil
}

// CurrentSpec serves the last saved document, preferring the in-memory
// holder the consumer maintains and falling back to the database.
func (s *analysisService) CurrentSpec(ctx context.Context, id uuid.UUID) (*analysisspec.AnalysisSpec, error) {
	if spec := s.currentSpecs.Get(id.String()); spec != nil {
		return spec, nil
	}

	analysis, err := s.findAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	if analysis.Spec == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NO_SAVED_SPEC",
			"No spec has been saved for this analysis", nil)
	}
	s.currentSpecs.Set(analysis.Spec)
	return analysis.Spec, nil
}

// --- helpers ---

func (s *analysisService) findAnalysis(ctx context.Context, id uuid.UUID) (*entity.Analysis, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	analysis, err := uow.AnalysisRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Analysis not found", nil)
	}
	return analysis, nil
}

// session returns the live session for an analysis, creating an idle one
// seeded from the saved spec when none exists yet.
func (s *analysisService) session(analysis *entity.Analysis, projectId uuid.UUID) *resolve.Session {
	if session, ok := s.sessions.Get(analysis.Id.String()); ok {
		return session
	}
	session := resolve.NewSession(
		uuid.NewString(),
		projectId.String(),
		analysis.StudyId.String(),
		analysis.Id.String(),
	)
	s.sessions.Save(session)
	return session
}

func (s *analysisService) loadSession(ctx context.Context, id uuid.UUID) (*resolve.Session, error) {
	analysis, err := s.findAnalysis(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.loadSessionFor(ctx, analysis)
}

func (s *analysisService) loadSessionFor(ctx context.Context, analysis *entity.Analysis) (*resolve.Session, error) {
	if session, ok := s.sessions.Get(analysis.Id.String()); ok {
		return session, nil
	}
	return nil, serverutils.NewAppError(fiber.StatusConflict, "NO_SESSION",
		"No active session; generate a spec first", nil)
}

func (s *analysisService) writeSpecFile(ctx context.Context, analysis *entity.Analysis, spec *analysisspec.AnalysisSpec) (string, error) {
	root, err := s.studyService.StudyRoot(ctx, analysis.StudyId)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(root, "06_analysis", analysis.Id.String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	raw, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", err
	}

	specPath := filepath.Join(dir, "spec.json")
	if err := os.WriteFile(specPath, raw, 0o644); err != nil {
		return "", err
	}
	return specPath, nil
}

func (s *analysisService) persistStatus(ctx context.Context, analysis *entity.Analysis, session *resolve.Session) {
	analysis.Status = string(session.State)
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AnalysisRepository().Update(ctx, analysis); err != nil {
		s.log.Warn("Analysis", "Failed to persist status", map[string]interface{}{
			"analysis_id": analysis.Id.String(), "error": err.Error(),
		})
	}
}

func (s *analysisService) broadcastStatus(ctx context.Context, session *resolve.Session) {
	event := events.NewSessionStatusChanged(session.AnalysisID, string(session.State), session.Unresolved())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.log.Warn("Analysis", "Failed to publish session status", map[string]interface{}{"error": err.Error()})
	}
}

func statusResponse(session *resolve.Session) *dto.SessionStatusResponse {
	unresolved := session.Unresolved()
	if unresolved == nil {
		unresolved = []string{}
	}
	warnings := 0
	if session.Spec != nil {
		warnings = len(session.Spec.Warnings)
	}
	return &dto.SessionStatusResponse{
		AnalysisId:    session.AnalysisID,
		State:         string(session.State),
		StatusMessage: session.StatusMessage,
		Unresolved:    unresolved,
		Warnings:      warnings,
	}
}
