package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateStudyRequest struct {
	ProjectId  uuid.UUID `json:"project_id" validate:"required"`
	Name       string    `json:"name" validate:"required"`
	FolderPath string    `json:"folder_path"`
}

type CreateStudyResponse struct {
	Id         uuid.UUID `json:"id"`
	FolderPath string    `json:"folder_path"`
}

type StudyResponse struct {
	Id         uuid.UUID  `json:"id"`
	ProjectId  uuid.UUID  `json:"project_id"`
	Name       string     `json:"name"`
	FolderPath string     `json:"folder_path"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  *time.Time `json:"updated_at"`
}
