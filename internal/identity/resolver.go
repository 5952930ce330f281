package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mitraponics/storefront-backend/pkg/auth"
	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
)

// Kind classifies the caller of an order-facing endpoint.
type Kind string

const (
	// KindAuthenticated means a valid bearer token identified a user account.
	KindAuthenticated Kind = "authenticated"
	// KindAnonymous means no valid token was presented but a cart session
	// cookie was.
	KindAnonymous Kind = "anonymous"
	// KindUnidentified means the caller carries neither a token nor a session.
	KindUnidentified Kind = "unidentified"
)

// Principal is the resolved caller identity. Exactly one of UserID or
// SessionID is authoritative, depending on Kind. An authenticated principal
// never falls back to its session, even when a cookie is present.
type Principal struct {
	Kind      Kind
	UserID    uuid.UUID
	IsAdmin   bool
	SessionID string
}

func (p Principal) Authenticated() bool { return p.Kind == KindAuthenticated }
func (p Principal) Anonymous() bool     { return p.Kind == KindAnonymous }
func (p Principal) Unidentified() bool  { return p.Kind == KindUnidentified }

type sessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

type userLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Resolver turns a raw bearer token and cart session cookie into a Principal.
type Resolver struct {
	jwtCfg   config.JWTConfig
	sessions sessionChecker
	users    userLoader
}

// NewResolver builds a resolver backed by the JWT config, session store and
// user store.
func NewResolver(jwtCfg config.JWTConfig, sessions sessionChecker, users userLoader) (*Resolver, error) {
	if sessions == nil {
		return nil, fmt.Errorf("session checker required")
	}
	if users == nil {
		return nil, fmt.Errorf("user loader required")
	}
	return &Resolver{jwtCfg: jwtCfg, sessions: sessions, users: users}, nil
}

// Resolve classifies the caller. A malformed, expired, or revoked bearer
// token is treated as absent rather than rejected, so the caller degrades
// to the session cookie when one exists. The same applies to a token whose
// user row no longer exists.
func (r *Resolver) Resolve(ctx context.Context, bearerToken, sessionID string) Principal {
	bearerToken = strings.TrimSpace(bearerToken)
	sessionID = strings.TrimSpace(sessionID)

	if bearerToken != "" {
		if claims, err := auth.ParseAccessToken(r.jwtCfg, bearerToken); err == nil {
			alive, err := r.sessions.HasSession(ctx, claims.ID)
			if err == nil && alive && claims.UserID != uuid.Nil {
				if user, err := r.users.FindByID(ctx, claims.UserID); err == nil && user != nil {
					return Principal{
						Kind:      KindAuthenticated,
						UserID:    user.ID,
						IsAdmin:   user.IsAdmin,
						SessionID: sessionID,
					}
				}
			}
		}
	}

	if sessionID != "" {
		return Principal{Kind: KindAnonymous, SessionID: sessionID}
	}

	return Principal{Kind: KindUnidentified}
}
