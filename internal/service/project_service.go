package service

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"research-workflow-be/internal/config"
	"research-workflow-be/internal/dto"
	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/pkg/serverutils"
	"research-workflow-be/internal/repository/specification"
	"research-workflow-be/internal/repository/unitofwork"
)

type IProjectService interface {
	GetAll(ctx context.Context) ([]*dto.ProjectResponse, error)
	Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error)
	Update(ctx context.Context, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Stage folders scaffolded under each new project root.
var projectStageFolders = []string{
	"01_literature",
	"02_build",
	"03_ethics",
	"04_prereg",
	"05_data/raw",
	"05_data/clean",
	"06_analysis",
	"07_outputs/tables",
	"07_outputs/figures",
	"studies",
}

type projectService struct {
	uowFactory unitofwork.RepositoryFactory
	cfg        *config.Config
}

func NewProjectService(uowFactory unitofwork.RepositoryFactory, cfg *config.Config) IProjectService {
	return &projectService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

func (s *projectService) GetAll(ctx context.Context) ([]*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	projects, err := uow.ProjectRepository().FindAll(ctx, specification.OrderBy{Field: "created_at", Desc: true})
	if err != nil {
		return nil, err
	}

	result := make([]*dto.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		result = append(result, &dto.ProjectResponse{
			Id:        p.Id,
			Name:      p.Name,
			RootPath:  p.RootPath,
			CreatedAt: p.CreatedAt,
			UpdatedAt: p.UpdatedAt,
		})
	}
	return result, nil
}

func (s *projectService) Create(ctx context.Context, req *dto.CreateProjectRequest) (*dto.CreateProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project := entity.Project{
		Id:        uuid.New(),
		Name:      req.Name,
		RootPath:  req.RootPath,
		CreatedAt: time.Now(),
	}
	if project.RootPath == "" {
		project.RootPath = filepath.Join(s.cfg.Workspace.Root, project.Id.String())
	}

	if err := scaffoldProject(project.RootPath); err != nil {
		return nil, serverutils.NewAppError(fiber.StatusInternalServerError, "SCAFFOLD_FAILED",
			"Failed to create project folders", err)
	}

	if err := uow.ProjectRepository().Create(ctx, &project); err != nil {
		return nil, err
	}

	return &dto.CreateProjectResponse{
		Id:       project.Id,
		RootPath: project.RootPath,
	}, nil
}

func scaffoldProject(root string) error {
	for _, folder := range projectStageFolders {
		if err := os.MkdirAll(filepath.Join(root, folder), 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (s *projectService) Show(ctx context.Context, id uuid.UUID) (*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Project not found", nil)
	}

	return &dto.ProjectResponse{
		Id:        project.Id,
		Name:      project.Name,
		RootPath:  project.RootPath,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}, nil
}

func (s *projectService) Update(ctx context.Context, req *dto.UpdateProjectRequest) (*dto.ProjectResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	project, err := uow.ProjectRepository().FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, serverutils.NewAppError(fiber.StatusNotFound, "NOT_FOUND", "Project not found", nil)
	}

	project.Name = req.Name
	if err := uow.ProjectRepository().Update(ctx, project); err != nil {
		return nil, err
	}

	return &dto.ProjectResponse{
		Id:        project.Id,
		Name:      project.Name,
		RootPath:  project.RootPath,
		CreatedAt: project.CreatedAt,
		UpdatedAt: project.UpdatedAt,
	}, nil
}

func (s *projectService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	// Soft delete only; the workspace folder stays on disk.
	return uow.ProjectRepository().Delete(ctx, id)
}
