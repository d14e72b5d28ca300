package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a sellable catalog entry. TypeLabel is the format shown to
// shoppers (splash, crema, perfume) and doubles as the cart variant.
type Product struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BrandID     *uuid.UUID      `gorm:"column:brand_id;type:uuid;index"`
	Brand       *Brand          `gorm:"foreignKey:BrandID"`
	Name        string          `gorm:"column:name;not null"`
	TypeLabel   string          `gorm:"column:type_label;not null;default:''"`
	Description *string         `gorm:"column:description"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	ImageURL    *string         `gorm:"column:image_url"`
	IsActive    bool            `gorm:"column:is_active;not null;default:true"`
	InStock     bool            `gorm:"column:in_stock;not null;default:true"`
	SortOrder   int             `gorm:"column:sort_order;not null;default:0"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}
