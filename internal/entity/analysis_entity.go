package entity

import (
	"time"

	"github.com/google/uuid"

	"research-workflow-be/pkg/analysisspec"
)

// Analysis is one scripted analysis inside a study. Spec holds the saved
// document; a nil Spec means nothing has been saved yet.
type Analysis struct {
	Id         uuid.UUID
	StudyId    uuid.UUID
	Name       string
	Status     string
	Spec       *analysisspec.AnalysisSpec
	SpecPath   string
	QSFPath    string
	PreregPath string
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
