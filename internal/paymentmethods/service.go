package paymentmethods

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
)

// Service exposes the payment options offered at checkout.
type Service interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	GetActive(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type methodReader interface {
	ListActive(ctx context.Context) ([]models.PaymentMethod, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
}

type service struct {
	repo methodReader
}

func NewService(repo methodReader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payment method repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) ListActive(ctx context.Context) ([]models.PaymentMethod, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list payment methods")
	}
	return rows, nil
}

// GetActive returns the method when it exists and is still offered. A
// deactivated method is a validation failure so a stale checkout page gets a
// readable error.
func (s *service) GetActive(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method id is required")
	}
	method, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "payment method not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load payment method")
	}
	if !method.Active {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment method is no longer available").
			WithDetails(map[string]any{"payment_method_id": id})
	}
	return method, nil
}
