package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/repository/specification"
	"research-workflow-be/internal/repository/unitofwork"
)

type IStudyService interface {
	GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.StudyResponse, error)
	Create(ctx context.Context, req *dto.CreateStudyRequest) (*dto.CreateStudyResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.StudyResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// StudyRoot resolves the on-disk folder for a study: an explicit folder
	// path when set, otherwise <project root>/studies/<study id>.
	StudyRoot(ctx context.Context, id uuid.UUID) (string, error)
}

var studyInputFolders = []string{
	"inputs/build",
	"inputs/prereg",
	"06_analysis",
}

type studyService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewStudyService(uowFactory unitofwork.RepositoryFactory) IStudyService {
	return &studyService{uowFactory: uowFactory}
}

func (s *studyService) GetAll(ctx context.Context, projectId uuid.UUID) ([]*dto.StudyResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	studies, err := uow.StudyRepository().FindAll(ctx,
		specification.ByProjectID{ProjectID: projectId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*dto.StudyResponse, 0, len(studies))
	for _, st := range studies {
		result = append(result, &dto.StudyResponse{
			Id:         st.Id,
			ProjectId:  st.ProjectId,
			Name:       st.Name,
			FolderPath: st.FolderPath,
			CreatedAt:  st.CreatedAt,
			UpdatedAt:  st.UpdatedAt,
		})
	}
	return result, nil
}

func (s *studyService) Create(ctx context.Context, req *dto.CreateStudyRequest) (*dto.CreateStudyResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: req.ProjectId})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Project not found", nil)
	}

	study := entity.Study{
		Id:         uuid.New(),
		ProjectId:  req.ProjectId,
		Name:       req.Name,
		FolderPath: req.FolderPath,
		CreatedAt:  time.Now(),
	}

	root := study.FolderPath
	if root == "" {
		root = filepath.Join(project.RootPath, "studies", study.Id.String())
	}
	for _, folder := range studyInputFolders {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return nil, serverutils.NewAppError(fiber.StatusInternalServerError, "SCAFFOLD_FAILED",
				"Failed to create study folders", err)
		}
	}

	if err := uow.StudyRepository().Create(ctx, &study); err != nil {
		return nil, err
	}

	return &dto.CreateStudyResponse{
		Id:         study.Id,
		FolderPath: root,
	}, nil
}

func (s *studyService) Show(ctx context.Context, id uuid.UUID) (*dto.StudyResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	study, err := uow.StudyRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if study == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Study not found", nil)
	}

	return &dto.StudyResponse{
		Id:         study.Id,
		ProjectId:  study.ProjectId,
		Name:       study.Name,
		FolderPath: study.FolderPath,
		CreatedAt:  study.CreatedAt,
		UpdatedAt:  study.UpdatedAt,
	}, nil
}

func (s *studyService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.StudyRepository().Delete(ctx, id)
}

func (s *studyService) StudyRoot(ctx context.Context, id uuid.UUID) (string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	study, err := uow.StudyRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return "", err
	}
	if study == nil {
		return "", serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Study not found", nil)
	}
	if study.FolderPath != "" {
		return study.FolderPath, nil
	}

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: study.ProjectId})
	if err != nil {
		return "", err
	}
	if project == nil {
		return "", serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Project not found", nil)
	}
	return filepath.Join(project.RootPath, "studies", study.Id.String()), nil
}
