package models

import "time"

// CartSnapshot holds the serialized item list for one cart storage key.
type CartSnapshot struct {
	StorageKey string    `gorm:"column:storage_key;primaryKey"`
	Payload    string    `gorm:"column:payload;type:text;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
