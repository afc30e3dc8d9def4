package entity

import (
	"time"

	"github.com/google/uuid"
)

type Project struct {
	Id        uuid.UUID
	Name      string
	RootPath  string
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
