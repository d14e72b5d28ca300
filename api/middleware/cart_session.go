package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mcbeauty/storefront-backend/pkg/logger"
)

const (
	CartSessionHeader = "X-Cart-Session"
	CartSessionCookie = "mc_session_id"

	maxSessionIDLength = 128
	sessionCookieTTL   = 365 * 24 * time.Hour
)

// CartSession resolves the anonymous storefront session from the
// X-Cart-Session header or the mc_session_id cookie. Requests without one get
// a fresh uuid, echoed back in both places.
func CartSession(logg *logger.Logger, secureCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := sessionFromRequest(r)
			minted := sessionID == ""
			if minted {
				sessionID = uuid.NewString()
			}

			w.Header().Set(CartSessionHeader, sessionID)
			if minted || !hasSessionCookie(r, sessionID) {
				http.SetCookie(w, &http.Cookie{
					Name:     CartSessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(sessionCookieTTL.Seconds()),
					HttpOnly: true,
					Secure:   secureCookie,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request) string {
	if id := cleanToken(r.Header.Get(CartSessionHeader), maxSessionIDLength); id != "" {
		return id
	}
	if cookie, err := r.Cookie(CartSessionCookie); err == nil {
		return cleanToken(cookie.Value, maxSessionIDLength)
	}
	return ""
}

func hasSessionCookie(r *http.Request, sessionID string) bool {
	cookie, err := r.Cookie(CartSessionCookie)
	return err == nil && cookie.Value == sessionID
}

// cleanToken accepts opaque ids made of letters, digits, '-' and '_'.
func cleanToken(raw string, maxLen int) string {
	id := strings.TrimSpace(raw)
	if id == "" || len(id) > maxLen {
		return ""
	}
	for _, c := range id {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return ""
		}
	}
	return id
}
