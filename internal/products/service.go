package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/pagination"
	"github.com/mcbeauty/storefront-backend/pkg/types"
)

// Service exposes the storefront catalog.
type Service interface {
	GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	List(ctx context.Context, input ListInput) (*types.PageResult[ProductDTO], error)
}

// ListInput captures filters plus cursor pagination for the catalog listing.
type ListInput struct {
	Filter     ListFilter
	Pagination pagination.Params
}

type productReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListActive(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.Product, error)
}

type service struct {
	repo productReader
}

// NewService constructs the catalog service.
func NewService(repo productReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

// GetActive loads a product that can be added to the cart right now.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is not available").
			WithDetails(map[string]any{"product_id": id})
	}
	if !product.InStock {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "product is out of stock").
			WithDetails(map[string]any{"product_id": id})
	}
	return product, nil
}

// Get returns the storefront view of a product. Inactive products are
// reported as missing; out-of-stock ones are shown with in_stock=false.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	dto := ToDTO(product)
	return &dto, nil
}

func (s *service) List(ctx context.Context, input ListInput) (*types.PageResult[ProductDTO], error) {
	cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(input.Pagination.Limit)

	rows, err := s.repo.ListActive(ctx, input.Filter, cursor, pagination.LimitWithBuffer(limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	page, next := pagination.Split(rows, limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{Position: p.SortOrder, ID: p.ID}
	})
	result := &types.PageResult[ProductDTO]{Items: make([]ProductDTO, 0, len(page)), NextCursor: next}
	for i := range page {
		result.Items = append(result.Items, ToDTO(&page[i]))
	}
	return result, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}
