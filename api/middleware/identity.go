package middleware

import (
	"net/http"

	"github.com/mitraponics/storefront-backend/internal/identity"
	"github.com/mitraponics/storefront-backend/pkg/logger"
)

// Identity resolves the caller into a Principal for order-facing routes.
// Runs after CartSession so anonymous callers keep their session identity.
// Never rejects: a bad token simply degrades the principal.
func Identity(resolver *identity.Resolver, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal := resolver.Resolve(
				r.Context(),
				bearerToken(r),
				CartSessionFromContext(r.Context()),
			)

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil && principal.Authenticated() {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
