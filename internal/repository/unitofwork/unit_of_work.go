package unitofwork

import (
	"context"

	"research-workflow-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ProjectRepository() contract.ProjectRepository
	StudyRepository() contract.StudyRepository
	AnalysisRepository() contract.AnalysisRepository
}
