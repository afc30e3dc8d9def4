package contract

import (
	"context"

	"github.com/google/uuid"

	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/repository/specification"
)

type StudyRepository interface {
	Create(ctx context.Context, study *entity.Study) error
	Update(ctx context.Context, study *entity.Study) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Study, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Study, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
