package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PageView struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Path       string    `gorm:"column:path;not null"`
	SessionID  *string   `gorm:"column:session_id"`
	EntityType *string   `gorm:"column:entity_type"`
	EntityID   *string   `gorm:"column:entity_id"`
	Referrer   *string   `gorm:"column:referrer"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (v *PageView) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
