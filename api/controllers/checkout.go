package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/api/validators"
	"github.com/mcbeauty/storefront-backend/internal/checkout"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

type checkoutRequest struct {
	CustomerName    string     `json:"customer_name" validate:"required,notblank,max=120"`
	PaymentMethodID *uuid.UUID `json:"payment_method_id,omitempty"`
	ConfirmTransfer bool       `json:"confirm_transfer"`
}

// CheckoutSubmit places the order for the session cart and returns the
// WhatsApp hand-off link.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "checkout")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), sessionID, checkout.Input{
			CustomerName:    payload.CustomerName,
			PaymentMethodID: payload.PaymentMethodID,
			ConfirmTransfer: payload.ConfirmTransfer,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
