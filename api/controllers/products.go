package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/api/validators"
	productsvc "github.com/mcbeauty/storefront-backend/internal/products"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
	"github.com/mcbeauty/storefront-backend/pkg/pagination"
)

const maxSearchLength = 80

// ProductList serves the active catalog with optional brand, type and search
// filters. brand accepts either a brand id or its slug.
func ProductList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := r.URL.Query()
		filter := productsvc.ListFilter{
			TypeLabel: validators.QueryText(r, "type", maxSearchLength),
			Query:     validators.QueryText(r, "q", maxSearchLength),
		}
		if brand := strings.TrimSpace(query.Get("brand")); brand != "" {
			if id, parseErr := uuid.Parse(brand); parseErr == nil {
				filter.BrandID = &id
			} else {
				filter.BrandSlug = strings.ToLower(validators.SanitizeString(brand, maxSearchLength))
			}
		}

		page, err := svc.List(r.Context(), productsvc.ListInput{
			Filter: filter,
			Pagination: pagination.Params{
				Limit:  limit,
				Cursor: strings.TrimSpace(query.Get("cursor")),
			},
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "product")
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Get(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
