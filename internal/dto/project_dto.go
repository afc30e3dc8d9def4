package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateProjectRequest struct {
	Name     string `json:"name" validate:"required"`
	RootPath string `json:"root_path"`
}

type CreateProjectResponse struct {
	Id       uuid.UUID `json:"id"`
	RootPath string    `json:"root_path"`
}

type ProjectResponse struct {
	Id        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	RootPath  string     `json:"root_path"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
}

type UpdateProjectRequest struct {
	Id   uuid.UUID
	Name string `json:"name" validate:"required"`
}
