package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/api/validators"
	cartsvc "github.com/mcbeauty/storefront-backend/internal/cart"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

type cartAddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Variant   string    `json:"variant" validate:"max=120"`
	Quantity  any       `json:"quantity"`
}

type cartImportLine struct {
	ID       any    `json:"id"`
	Name     string `json:"name" validate:"max=200"`
	Variant  string `json:"variant" validate:"max=120"`
	Price    any    `json:"price"`
	ImageURL string `json:"imageUrl"`
	Quantity any    `json:"quantity"`
}

type cartImportRequest struct {
	Items []cartImportLine `json:"items" validate:"max=200,dive"`
}

type cartUpdateItemRequest struct {
	Quantity any `json:"quantity"`
}

func CartView(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		snap, err := svc.View(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartAddItem adds a catalog product, merging with an existing line of the
// same product and variant.
func CartAddItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		var payload cartAddItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.AddProduct(r.Context(), sessionID, cartsvc.AddProductInput{
			ProductID: payload.ProductID,
			Variant:   payload.Variant,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CartImport replaces the session cart with a client-held one.
func CartImport(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		var payload cartImportRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines := make([]cartsvc.ImportLine, 0, len(payload.Items))
		for _, item := range payload.Items {
			lines = append(lines, cartsvc.ImportLine{
				Product: cartsvc.ProductInput{
					ID:       item.ID,
					Name:     item.Name,
					Variant:  item.Variant,
					Price:    item.Price,
					ImageURL: item.ImageURL,
				},
				Quantity: item.Quantity,
			})
		}

		snap, err := svc.Import(r.Context(), sessionID, lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// CartUpdateItem sets the quantity of every line with the given id.
func CartUpdateItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cartUpdateItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.UpdateQuantity(r.Context(), sessionID, itemID, payload.Quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func CartRemoveItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}
		itemID, err := itemIDParam(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap, err := svc.Remove(r.Context(), sessionID, itemID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

func CartClear(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "cart")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		snap, err := svc.Clear(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, snap)
	}
}

// itemIDParam reads the line id path segment. Ids are opaque strings since
// imported carts may carry synthetic or numeric ids.
func itemIDParam(r *http.Request) (string, error) {
	id := strings.TrimSpace(chi.URLParam(r, "itemId"))
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "item id is required").WithDetails(map[string]any{"field": "itemId"})
	}
	return id, nil
}
