package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Analysis struct {
	Id         uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StudyId    uuid.UUID      `gorm:"type:uuid;not null;index"`
	Name       string         `gorm:"type:varchar(255);not null"`
	Status     string         `gorm:"type:varchar(32);not null;default:'IDLE'"`
	Spec       datatypes.JSON `gorm:"type:jsonb"`
	SpecPath   string         `gorm:"type:text"`
	QSFPath    string         `gorm:"type:text"`
	PreregPath string         `gorm:"type:text"`
	CreatedAt  time.Time      `gorm:"autoCreateTime"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime"`
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (Analysis) TableName() string {
	return "analyses"
}
