package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentMethod is a manual payment option offered at checkout (cash,
// bank transfer, deposit). Bank fields are shown to the shopper verbatim.
type PaymentMethod struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name          string    `gorm:"column:name;not null"`
	BankName      *string   `gorm:"column:bank_name"`
	AccountHolder *string   `gorm:"column:account_holder"`
	AccountNumber *string   `gorm:"column:account_number"`
	DocumentID    *string   `gorm:"column:document_id"`
	HasQR         bool      `gorm:"column:has_qr;not null;default:false"`
	QRImageURL    *string   `gorm:"column:qr_image_url"`
	Active        bool      `gorm:"column:active;not null;default:true"`
	SortOrder     int       `gorm:"column:sort_order;not null;default:0"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (m *PaymentMethod) BeforeCreate(*gorm.DB) error {
	ensureID(&m.ID)
	return nil
}
