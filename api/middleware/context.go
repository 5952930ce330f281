package middleware

import (
	"context"

	"github.com/mitraponics/storefront-backend/internal/identity"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxIsAdmin     contextKey = "is_admin"
	ctxAccessID    contextKey = "access_id"
	ctxCartSession contextKey = "cart_session_id"
	ctxPrincipal   contextKey = "principal"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func IsAdminFromContext(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	if v, ok := ctx.Value(ctxIsAdmin).(bool); ok {
		return v
	}
	return false
}

func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

func CartSessionFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCartSession).(string); ok {
		return v
	}
	return ""
}

func PrincipalFromContext(ctx context.Context) identity.Principal {
	if ctx == nil {
		return identity.Principal{Kind: identity.KindUnidentified}
	}
	if v, ok := ctx.Value(ctxPrincipal).(identity.Principal); ok {
		return v
	}
	return identity.Principal{Kind: identity.KindUnidentified}
}

// WithCartSession injects the cart session identifier into the context.
func WithCartSession(ctx context.Context, sessionID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCartSession, sessionID)
}

// WithPrincipal injects the resolved caller identity into the context.
func WithPrincipal(ctx context.Context, principal identity.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, principal)
}
