package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

type catalog interface {
	GetActive(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type addToCartTracker interface {
	TrackAddToCart(ctx context.Context, sessionID, productID string)
}

type storeRegistry interface {
	Get(ctx context.Context, sessionID string) (*Store, error)
}

// Service is the application surface over the per-session cart stores.
type Service interface {
	View(ctx context.Context, sessionID string) (Snapshot, error)
	AddProduct(ctx context.Context, sessionID string, input AddProductInput) (AddResult, error)
	Import(ctx context.Context, sessionID string, lines []ImportLine) (Snapshot, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, qty any) (Snapshot, error)
	Remove(ctx context.Context, sessionID, itemID string) (Snapshot, error)
	Clear(ctx context.Context, sessionID string) (Snapshot, error)
}

// AddProductInput adds a catalog product. Variant defaults to the product's
// type label when empty.
type AddProductInput struct {
	ProductID uuid.UUID
	Variant   string
	Quantity  any
}

// ImportLine is one entry of a client-held cart being synced to the server.
type ImportLine struct {
	Product  ProductInput
	Quantity any
}

type service struct {
	registry storeRegistry
	catalog  catalog
	tracker  addToCartTracker
	logg     *logger.Logger
}

func NewService(registry storeRegistry, catalog catalog, tracker addToCartTracker, logg *logger.Logger) (Service, error) {
	if registry == nil {
		return nil, fmt.Errorf("cart registry required")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracker required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		registry: registry,
		catalog:  catalog,
		tracker:  tracker,
		logg:     logg,
	}, nil
}

func (s *service) store(ctx context.Context, sessionID string) (*Store, error) {
	store, err := s.registry.Get(ctx, sessionID)
	if err != nil {
		return nil, SessionError(err)
	}
	return store, nil
}

func (s *service) View(ctx context.Context, sessionID string) (Snapshot, error) {
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Snapshot(), nil
}

// AddProduct looks the product up in the catalog and adds it. The catalog is
// responsible for rejecting missing, inactive or out-of-stock products; the
// store itself never refuses an add.
func (s *service) AddProduct(ctx context.Context, sessionID string, input AddProductInput) (AddResult, error) {
	if input.ProductID == uuid.Nil {
		return AddResult{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return AddResult{}, err
	}
	product, err := s.catalog.GetActive(ctx, input.ProductID)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return AddResult{}, err
		}
		return AddResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	variant := input.Variant
	if NormalizeVariant(variant) == "" {
		variant = product.TypeLabel
	}
	imageURL := ""
	if product.ImageURL != nil {
		imageURL = *product.ImageURL
	}
	qty := input.Quantity
	if qty == nil {
		qty = 1
	}

	result := store.Add(ctx, ProductInput{
		ID:       product.ID.String(),
		Name:     product.Name,
		Variant:  variant,
		Price:    product.Price.InexactFloat64(),
		ImageURL: imageURL,
	}, qty)

	if result.Trackable {
		s.tracker.TrackAddToCart(ctx, sessionID, result.Item.ID)
	}
	return result, nil
}

// Import replaces the session cart with a client-held one. Entries are not
// checked against the catalog and are never reported to analytics.
func (s *service) Import(ctx context.Context, sessionID string, lines []ImportLine) (Snapshot, error) {
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	snap := store.Clear(ctx)
	for _, line := range lines {
		qty := line.Quantity
		if qty == nil {
			qty = 1
		}
		res := store.Add(ctx, line.Product, qty)
		persistErr := snap.PersistError
		snap = res.Snapshot
		if snap.PersistError == "" {
			snap.PersistError = persistErr
		}
	}
	if len(lines) > 0 {
		s.logg.Info(s.logg.WithField(ctx, "lines", len(lines)), "cart.imported")
	}
	return snap, nil
}

func (s *service) UpdateQuantity(ctx context.Context, sessionID, itemID string, qty any) (Snapshot, error) {
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return store.UpdateQuantity(ctx, itemID, qty), nil
}

func (s *service) Remove(ctx context.Context, sessionID, itemID string) (Snapshot, error) {
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Remove(ctx, itemID), nil
}

func (s *service) Clear(ctx context.Context, sessionID string) (Snapshot, error) {
	store, err := s.store(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	return store.Clear(ctx), nil
}

// SessionError classifies a Registry.Get failure: unreadable storage is a
// dependency outage, anything else is a bad session id.
func SessionError(err error) error {
	if errors.Is(err, ErrStorageUnavailable) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cart storage unavailable")
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "cart session unavailable")
}
