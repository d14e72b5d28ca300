package analytics

import (
	"context"

	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

// Repository appends page view rows. One row is one view.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Insert(ctx context.Context, view *models.PageView) error {
	return r.db.WithContext(ctx).Create(view).Error
}
