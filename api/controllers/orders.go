package controllers

import (
	"net/http"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/api/validators"
	"github.com/mcbeauty/storefront-backend/internal/orders"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

// OrderDetail returns an order placed by the calling session.
func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "order")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetForSession(r.Context(), sessionID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
