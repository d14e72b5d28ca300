package controllers

import (
	"context"
	"net/http"

	"github.com/mcbeauty/storefront-backend/api/responses"
	"github.com/mcbeauty/storefront-backend/api/validators"
	"github.com/mcbeauty/storefront-backend/internal/analytics"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

type pageViewTracker interface {
	TrackPageView(ctx context.Context, view analytics.PageView) bool
}

type pageViewRequest struct {
	Path       string `json:"path" validate:"required,startswith=/,max=512"`
	EntityType string `json:"entity_type" validate:"max=32"`
	EntityID   string `json:"entity_id" validate:"max=64"`
	Referrer   string `json:"referrer" validate:"max=1024"`
}

// PageViewTrack records a storefront visit. Skipped views still answer 202;
// the body reports whether the view was stored.
func PageViewTrack(tracker pageViewTracker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if tracker == nil {
			serviceUnavailable(w, r, logg, "analytics")
			return
		}
		sessionID, ok := requireSession(w, r, logg)
		if !ok {
			return
		}

		var payload pageViewRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		recorded := tracker.TrackPageView(r.Context(), analytics.PageView{
			Path:       payload.Path,
			SessionID:  sessionID,
			EntityType: payload.EntityType,
			EntityID:   payload.EntityID,
			Referrer:   payload.Referrer,
		})
		responses.WriteSuccessStatus(w, http.StatusAccepted, map[string]bool{"recorded": recorded})
	}
}
