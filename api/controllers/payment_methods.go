package controllers

import (
	"net/http"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/internal/paymentmethods"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

// PaymentMethodList returns the active methods in display order.
func PaymentMethodList(svc paymentmethods.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			serviceUnavailable(w, r, logg, "payment method")
			return
		}

		methods, err := svc.ListActive(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := make([]paymentmethods.MethodDTO, 0, len(methods))
		for i := range methods {
			out = append(out, paymentmethods.ToDTO(&methods[i]))
		}
		responses.WriteSuccess(w, out)
	}
}
