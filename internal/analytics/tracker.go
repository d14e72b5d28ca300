package analytics

import (
	"context"
	"errors"
	"strings"

	"github.com/mcbeauty/storefront-backend/pkg/db/models"
	"github.com/mcbeauty/storefront-backend/pkg/enums"
	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

const (
	adminPathPrefix = "/admin"
	addToCartPath   = "/event/add_to_cart"
)

// PageView is one storefront visit or tracked event.
type PageView struct {
	Path       string
	SessionID  string
	EntityType string
	EntityID   string
	Referrer   string
}

type viewWriter interface {
	Insert(ctx context.Context, view *models.PageView) error
}

// Tracker records page views. Tracking never fails the caller: rejected or
// failed views are logged and dropped.
type Tracker struct {
	repo viewWriter
	logg *logger.Logger
}

func NewTracker(repo viewWriter, logg *logger.Logger) (*Tracker, error) {
	if repo == nil {
		return nil, errors.New("page view repository required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Tracker{repo: repo, logg: logg}, nil
}

// TrackPageView stores the view and reports whether a row was written.
func (t *Tracker) TrackPageView(ctx context.Context, view PageView) bool {
	path := strings.TrimSpace(view.Path)
	if path == "" || strings.HasPrefix(path, adminPathPrefix) {
		return false
	}

	entityType, err := enums.ParsePageViewEntityType(strings.TrimSpace(view.EntityType))
	if err != nil {
		t.logg.Warn(t.logg.WithField(ctx, "entity_type", view.EntityType), "analytics.page_view_skipped")
		return false
	}
	entityID := strings.TrimSpace(view.EntityID)
	if entityType != "" && entityID == "" {
		t.logg.Warn(t.logg.WithFields(ctx, map[string]any{
			"path":        path,
			"entity_type": entityType,
		}), "analytics.page_view_skipped")
		return false
	}

	row := &models.PageView{
		Path:      path,
		SessionID: optional(view.SessionID),
		EntityID:  optional(entityID),
		Referrer:  optional(view.Referrer),
	}
	if entityType != "" {
		s := string(entityType)
		row.EntityType = &s
	}

	if err := t.repo.Insert(ctx, row); err != nil {
		t.logg.Error(t.logg.WithField(ctx, "path", path), "analytics.page_view_failed", err)
		return false
	}
	return true
}

// TrackAddToCart records an add-to-cart as a product event view.
func (t *Tracker) TrackAddToCart(ctx context.Context, sessionID, productID string) {
	t.TrackPageView(ctx, PageView{
		Path:       addToCartPath,
		SessionID:  sessionID,
		EntityType: string(enums.PageViewEntityProduct),
		EntityID:   productID,
	})
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}
