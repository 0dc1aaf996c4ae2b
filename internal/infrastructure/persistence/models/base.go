package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BaseModel carries the UUID key and sync timestamps of a commerce row.
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID to rows inserted without one (fixtures, backfills).
func (m *BaseModel) BeforeCreate(*gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// OrganizationScopedModel is a commerce row owned by one organization.
type OrganizationScopedModel struct {
	BaseModel
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index"`
}
