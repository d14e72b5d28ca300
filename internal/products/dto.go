package products

import (
	"time"

	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

// ProductDTO is the storefront product payload.
type ProductDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Description *string   `json:"description,omitempty"`
	Price       float64   `json:"price"`
	ImageURL    *string   `json:"image_url,omitempty"`
	InStock     bool      `json:"in_stock"`
	Brand       *BrandDTO `json:"brand,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BrandDTO is the brand summary embedded in product payloads.
type BrandDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Slug    string    `json:"slug"`
	LogoURL *string   `json:"logo_url,omitempty"`
}

// ToDTO maps a product row to its storefront payload.
func ToDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.TypeLabel,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		ImageURL:    p.ImageURL,
		InStock:     p.InStock,
		CreatedAt:   p.CreatedAt,
	}
	if p.Brand != nil {
		dto.Brand = &BrandDTO{
			ID:      p.Brand.ID,
			Name:    p.Brand.Name,
			Slug:    p.Brand.Slug,
			LogoURL: p.Brand.LogoURL,
		}
	}
	return dto
}
