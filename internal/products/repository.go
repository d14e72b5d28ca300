package products

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/pagination"
)

// ListFilter narrows the storefront catalog listing.
type ListFilter struct {
	BrandID   *uuid.UUID
	BrandSlug string
	TypeLabel string
	Query     string
}

// Repository reads catalog rows.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads the product with its brand.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Brand").First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// ListActive returns active products ordered by (sort_order, id), starting
// after the cursor. It fetches limit rows as given; callers pass a buffered
// limit to detect a following page.
func (r *Repository) ListActive(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Brand").
		Where("is_active = ?", true)

	if filter.BrandID != nil {
		query = query.Where("brand_id = ?", *filter.BrandID)
	}
	if slug := strings.TrimSpace(filter.BrandSlug); slug != "" {
		query = query.Where("brand_id IN (?)", r.db.Model(&models.Brand{}).Select("id").Where("slug = ?", strings.ToLower(slug)))
	}
	if label := strings.TrimSpace(filter.TypeLabel); label != "" {
		query = query.Where("LOWER(type_label) = ?", strings.ToLower(label))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + escapeLike(strings.ToLower(q)) + "%"
		query = query.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(type_label) LIKE ? ESCAPE '\\')", like, like)
	}
	if cursor != nil {
		query = query.Where("((sort_order > ?) OR (sort_order = ? AND id > ?))", cursor.Position, cursor.Position, cursor.ID)
	}

	var rows []models.Product
	if err := query.Order("sort_order ASC").Order("id ASC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
