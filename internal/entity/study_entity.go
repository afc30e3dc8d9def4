package entity

import (
	"time"

	"github.com/google/uuid"
)

type Study struct {
	Id         uuid.UUID
	ProjectId  uuid.UUID
	Name       string
	FolderPath string // empty means <project root>/studies/<id>
	CreatedAt  time.Time
	UpdatedAt  *time.Time
	DeletedAt  *time.Time
	IsDeleted  bool
}
