package orders

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db"
	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
)

// firstOrderNumber matches the start of order_number_seq.
const firstOrderNumber = 1001

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber reserves the shopper-facing order number. Postgres draws
// from order_number_seq; sqlite dev databases take max+1, which is only safe
// inside the writing transaction.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	conn := r.db.WithContext(ctx)
	if conn.Dialector.Name() == db.DriverSQLite {
		err := conn.Model(&models.Order{}).
			Select("COALESCE(MAX(order_number), ?) + 1", firstOrderNumber-1).
			Scan(&next).Error
		if err != nil {
			return 0, err
		}
		return next, nil
	}
	if err := conn.Raw("SELECT nextval('order_number_seq')").Scan(&next).Error; err != nil {
		return 0, fmt.Errorf("next order number: %w", err)
	}
	return next, nil
}

// Create inserts the order header and its items.
func (r *repository) Create(ctx context.Context, order *models.Order, items []models.OrderItem) (*models.Order, error) {
	conn := r.db.WithContext(ctx)
	if err := conn.Omit("Items").Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "order_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order number already taken, please retry checkout")
		}
		return nil, err
	}
	for i := range items {
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := conn.Create(&items).Error; err != nil {
			return nil, err
		}
	}
	order.Items = items
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("created_at ASC").Order("id ASC")
		}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
