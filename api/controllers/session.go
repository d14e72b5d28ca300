package controllers

import (
	"net/http"

	"github.com/mcbeauty/storefront-backend/api/middleware"
	"github.com/mcbeauty/storefront-backend/api/responses"
	pkgerrors "github.com/mcbeauty/storefront-backend/pkg/errors"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

// requireSession returns the cart session or writes a validation error.
func requireSession(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	sessionID := middleware.CartSessionFromContext(r.Context())
	if sessionID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "cart session missing"))
		return "", false
	}
	return sessionID, true
}

func serviceUnavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}
