package middleware

import (
	"net/http"
	"strings"

	"github.com/pins-charity/orderforms-backend/internal/sessions"
	"github.com/pins-charity/orderforms-backend/pkg/config"
	"github.com/pins-charity/orderforms-backend/pkg/logger"
)

// Session makes sure every buyer request carries an opaque session id,
// issuing a cookie on first contact.
func Session(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(cfg.CookieName); err == nil {
				sessionID = strings.TrimSpace(cookie.Value)
			}
			if sessionID == "" {
				sessionID = sessions.NewID()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(cfg.TTL.Seconds()),
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionID(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithField(ctx, "session_id", sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
