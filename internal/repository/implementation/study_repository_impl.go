package implementation

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/mapper"
	"research-workflow-be/internal/model"
	"research-workflow-be/internal/repository/contract"
	"research-workflow-be/internal/repository/specification"
)

type StudyRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.StudyMapper
}

func NewStudyRepository(db *gorm.DB) contract.StudyRepository {
	return &StudyRepositoryImpl{
		db:     db,
		mapper: mapper.NewStudyMapper(),
	}
}

func (r *StudyRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *StudyRepositoryImpl) Create(ctx context.Context, study *entity.Study) error {
	m := r.mapper.ToModel(study)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*study = *r.mapper.ToEntity(m)
	return nil
}

func (r *StudyRepositoryImpl) Update(ctx context.Context, study *entity.Study) error {
	m := r.mapper.ToModel(study)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*study = *r.mapper.ToEntity(m)
	return nil
}

func (r *StudyRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Study{}, id).Error
}

func (r *StudyRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Study, error) {
	var m model.Study
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *StudyRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Study, error) {
	var models []*model.Study
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *StudyRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Study{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
