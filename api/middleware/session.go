package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

// CartSession attaches the cart session cookie to the request context,
// minting a fresh identifier when none is present. The cookie is re-set on
// every request so its expiry slides forward from the shopper's latest
// activity. Carts work for shoppers who never create an account.
func CartSession(cfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := ""
			if cookie, err := r.Cookie(cfg.SessionCookieName); err == nil {
				sessionID = cookie.Value
			}
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.SessionCookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.SessionTTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
