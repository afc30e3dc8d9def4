package contract

import (
	"context"

	"github.com/google/uuid"

	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/repository/specification"
)

type AnalysisRepository interface {
	Create(ctx context.Context, analysis *entity.Analysis) error
	Update(ctx context.Context, analysis *entity.Analysis) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Analysis, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Analysis, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
}
