package mapper

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"research-workflow-be/internal/entity"
	"research-workflow-be/internal/model"
	"research-workflow-be/pkg/analysisspec"
)

type AnalysisMapper struct{}

func NewAnalysisMapper() *AnalysisMapper {
	return &AnalysisMapper{}
}

func (m *AnalysisMapper) ToEntity(a *model.Analysis) *entity.Analysis {
	if a == nil {
		return nil
	}
	var deletedAt *time.Time
	if a.DeletedAt.Valid {
		t := a.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !a.UpdatedAt.IsZero() {
		t := a.UpdatedAt
		updatedAt = &t
	}

	// A row written before any save carries a null spec column.
	var spec *analysisspec.AnalysisSpec
	if len(a.Spec) > 0 && string(a.Spec) != "null" {
		var decoded analysisspec.AnalysisSpec
		if err := json.Unmarshal(a.Spec, &decoded); err == nil {
			spec = &decoded
		}
	}

	return &entity.Analysis{
		Id:         a.Id,
		StudyId:    a.StudyId,
		Name:       a.Name,
		Status:     a.Status,
		Spec:       spec,
		SpecPath:   a.SpecPath,
		QSFPath:    a.QSFPath,
		PreregPath: a.PreregPath,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  a.DeletedAt.Valid,
	}
}

func (m *AnalysisMapper) ToModel(a *entity.Analysis) *model.Analysis {
	if a == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if a.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *a.DeletedAt, Valid: true}
	} else if a.IsDeleted {
		deletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	}

	var updatedAt time.Time
	if a.UpdatedAt != nil {
		updatedAt = *a.UpdatedAt
	}

	var spec datatypes.JSON
	if a.Spec != nil {
		if raw, err := json.Marshal(a.Spec); err == nil {
			spec = datatypes.JSON(raw)
		}
	}

	return &model.Analysis{
		Id:         a.Id,
		StudyId:    a.StudyId,
		Name:       a.Name,
		Status:     a.Status,
		Spec:       spec,
		SpecPath:   a.SpecPath,
		QSFPath:    a.QSFPath,
		PreregPath: a.PreregPath,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *AnalysisMapper) ToEntities(analyses []*model.Analysis) []*entity.Analysis {
	entities := make([]*entity.Analysis, len(analyses))
	for i, a := range analyses {
		entities[i] = m.ToEntity(a)
	}
	return entities
}
