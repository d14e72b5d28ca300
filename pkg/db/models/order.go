package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/enums"
)

// Order is the record written when a shopper hands their cart off to WhatsApp.
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber     int64             `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	SessionID       string            `gorm:"column:session_id;not null;index"`
	PaymentMethodID *uuid.UUID        `gorm:"column:payment_method_id;type:uuid"`
	PaymentMethod   *string           `gorm:"column:payment_method_name"`
	TransferConfirm bool              `gorm:"column:transfer_confirmed;not null;default:false"`
	Status          enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Total           decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}
