package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the JWT payload carried by storefront access tokens.
// The jti doubles as the Redis session key, so revoking the session kills
// the token before it expires.
type AccessTokenClaims struct {
	UserID  uuid.UUID `json:"uid"`
	IsAdmin bool      `json:"adm"`
	jwt.RegisteredClaims
}

// AccessTokenPayload is the input for minting a token.
type AccessTokenPayload struct {
	UserID  uuid.UUID
	IsAdmin bool
	JTI     string
}
