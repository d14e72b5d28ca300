package cart

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
)

// DBPersister stores snapshots in the cart_snapshots table, one row per key.
type DBPersister struct {
	db *gorm.DB
}

func NewDBPersister(db *gorm.DB) (*DBPersister, error) {
	if db == nil {
		return nil, errors.New("database handle required")
	}
	return &DBPersister{db: db}, nil
}

func (p *DBPersister) Load(ctx context.Context, key string) (string, bool, error) {
	var row models.CartSnapshot
	err := p.db.WithContext(ctx).Where("storage_key = ?", key).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return row.Payload, true, nil
}

func (p *DBPersister) Save(ctx context.Context, key string, payload string) error {
	row := models.CartSnapshot{
		StorageKey: key,
		Payload:    payload,
		UpdatedAt:  time.Now().UTC(),
	}
	return p.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "storage_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"payload", "updated_at"}),
		}).
		Create(&row).Error
}

func (p *DBPersister) Delete(ctx context.Context, key string) error {
	return p.db.WithContext(ctx).
		Where("storage_key = ?", key).
		Delete(&models.CartSnapshot{}).Error
}
