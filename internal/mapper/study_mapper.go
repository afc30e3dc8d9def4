package mapper

import (
	"time"

	"gorm.io/gorm"

	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/model"
)

type StudyMapper struct{}

func NewStudyMapper() *StudyMapper {
	return &StudyMapper{}
}

func (m *StudyMapper) ToEntity(s *model.Study) *entity.Study {
	if s == nil {
		return nil
	}
	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.Study{
		Id:         s.Id,
		ProjectId:  s.ProjectId,
		Name:       s.Name,
		FolderPath: s.FolderPath,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *StudyMapper) ToModel(s *entity.Study) *model.Study {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	} else if s.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.Study{
		Id:         s.Id,
		ProjectId:  s.ProjectId,
		Name:       s.Name,
		FolderPath: s.FolderPath,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *StudyMapper) ToEntities(studies []*model.Study) []*entity.Study {
	entities := make([]*entity.Study, len(studies))
	for i, s := range studies {
		entities[i] = m.ToEntity(s)
	}
	return entities
}
