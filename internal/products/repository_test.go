package products

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/pagination"
)

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Brand{}, &models.Product{}))
	return conn
}

func seedProduct(t *testing.T, conn *gorm.DB, p models.Product) models.Product {
	t.Helper()
	active, inStock := p.IsActive, p.InStock
	require.NoError(t, conn.Create(&p).Error)
	// gorm skips zero-valued fields that carry a column default on insert.
	require.NoError(t, conn.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"is_active": active, "in_stock": inStock}).Error)
	p.IsActive, p.InStock = active, inStock
	return p
}

func TestRepositoryFindByIDPreloadsBrand(t *testing.T) {
	conn := newCatalogDB(t)
	repo := NewRepository(conn)
	brand := models.Brand{Name: "Maison Rosa", Slug: "maison-rosa"}
	require.NoError(t, conn.Create(&brand).Error)

	created := seedProduct(t, conn, models.Product{
		BrandID:   &brand.ID,
		Name:      "Rose Mist",
		TypeLabel: "splash",
		Price:     decimal.NewFromInt(690),
		IsActive:  true,
		InStock:   true,
	})

	got, err := repo.FindByID(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rose Mist", got.Name)
	require.NotNil(t, got.Brand)
	assert.Equal(t, "maison-rosa", got.Brand.Slug)
	assert.True(t, got.Price.Equal(decimal.NewFromInt(690)))

	_, err = repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryListActiveFiltersAndPages(t *testing.T) {
	conn := newCatalogDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	rosa := models.Brand{Name: "Maison Rosa", Slug: "maison-rosa"}
	noir := models.Brand{Name: "Noir", Slug: "noir"}
	require.NoError(t, conn.Create(&rosa).Error)
	require.NoError(t, conn.Create(&noir).Error)

	seedProduct(t, conn, models.Product{BrandID: &rosa.ID, Name: "Rose Mist", TypeLabel: "Splash", Price: decimal.NewFromInt(690), IsActive: true, InStock: true, SortOrder: 1})
	seedProduct(t, conn, models.Product{BrandID: &rosa.ID, Name: "Rose Cream", TypeLabel: "Crema", Price: decimal.NewFromInt(750), IsActive: true, InStock: true, SortOrder: 2})
	seedProduct(t, conn, models.Product{BrandID: &noir.ID, Name: "Noir 100%", TypeLabel: "Perfume", Price: decimal.NewFromInt(2500), IsActive: true, InStock: false, SortOrder: 3})
	seedProduct(t, conn, models.Product{BrandID: &noir.ID, Name: "Retired", TypeLabel: "Splash", Price: decimal.NewFromInt(100), IsActive: false, InStock: true, SortOrder: 0})

	all, err := repo.ListActive(ctx, ListFilter{}, nil, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Rose Mist", all[0].Name)
	assert.Equal(t, "Noir 100%", all[2].Name)

	bySlug, err := repo.ListActive(ctx, ListFilter{BrandSlug: "NOIR"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, bySlug, 1)
	assert.Equal(t, "Noir 100%", bySlug[0].Name)

	byType, err := repo.ListActive(ctx, ListFilter{TypeLabel: "splash"}, nil, 10)
	require.NoError(t, err)
	require.Len(t, byType, 1)
	assert.Equal(t, "Rose Mist", byType[0].Name)

	byQuery, err := repo.ListActive(ctx, ListFilter{Query: "rose"}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, byQuery, 2)

	literalPercent, err := repo.ListActive(ctx, ListFilter{Query: "100%"}, nil, 10)
	require.NoError(t, err)
	assert.Len(t, literalPercent, 1)

	page, err := repo.ListActive(ctx, ListFilter{}, &pagination.Cursor{Position: all[0].SortOrder, ID: all[0].ID}, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "Rose Cream", page[0].Name)
}
