package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitraponics/storefront-backend/pkg/config"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "unit-test-secret",
		Issuer:            "mitraponics-test",
		ExpirationMinutes: 15,
	}
}

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := testJWTConfig()
	userID := uuid.New()

	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{
		UserID:  userID,
		IsAdmin: true,
		JTI:     "access-123",
	})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "access-123", claims.ID)
	assert.Equal(t, cfg.Issuer, claims.Issuer)
}

func TestMintAccessTokenGeneratesJTIWhenMissing(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	claims, err := ParseAccessToken(cfg, token)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)
}

func TestMintAccessTokenValidation(t *testing.T) {
	base := testJWTConfig()
	payload := AccessTokenPayload{UserID: uuid.New()}

	missingSecret := base
	missingSecret.Secret = ""
	_, err := MintAccessToken(missingSecret, time.Now(), payload)
	require.Error(t, err)

	missingIssuer := base
	missingIssuer.Issuer = ""
	_, err = MintAccessToken(missingIssuer, time.Now(), payload)
	require.Error(t, err)

	_, err = MintAccessToken(base, time.Now(), AccessTokenPayload{})
	require.Error(t, err)
}

func TestParseAccessTokenRejectsExpired(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now().Add(-time.Hour), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = ParseAccessToken(cfg, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongSecret(t *testing.T) {
	cfg := testJWTConfig()
	token, err := MintAccessToken(cfg, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	other := cfg
	other.Secret = "different-secret"
	_, err = ParseAccessToken(other, token)
	require.Error(t, err)
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	minting := testJWTConfig()
	minting.Issuer = "someone-else"
	token, err := MintAccessToken(minting, time.Now(), AccessTokenPayload{UserID: uuid.New()})
	require.NoError(t, err)

	_, err = ParseAccessToken(testJWTConfig(), token)
	require.Error(t, err)
}
