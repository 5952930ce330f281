package identity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/auth"
	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
)

type stubSessions struct {
	alive map[string]bool
	err   error
}

func (s *stubSessions) HasSession(_ context.Context, accessID string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.alive[accessID], nil
}

type stubUsers struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func knownUser(id uuid.UUID) *stubUsers {
	return &stubUsers{users: map[uuid.UUID]*models.User{id: {ID: id}}}
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "mitraponics",
		ExpirationMinutes: 60,
	}
}

func mintToken(t *testing.T, cfg config.JWTConfig, userID uuid.UUID, jti string) string {
	t.Helper()
	token, err := auth.MintAccessToken(cfg, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		JTI:    jti,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestResolveAuthenticated(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintToken(t, cfg, userID, "jti-1")

	resolver, err := NewResolver(cfg, &stubSessions{alive: map[string]bool{"jti-1": true}}, knownUser(userID))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), token, "sess-abc")
	if !principal.Authenticated() {
		t.Fatalf("expected authenticated, got %s", principal.Kind)
	}
	if principal.UserID != userID {
		t.Fatalf("expected user %s, got %s", userID, principal.UserID)
	}
}

func TestResolveInvalidTokenFallsBackToSession(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	resolver, err := NewResolver(cfg, &stubSessions{}, &stubUsers{})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), "not-a-jwt", "sess-abc")
	if !principal.Anonymous() {
		t.Fatalf("expected anonymous, got %s", principal.Kind)
	}
	if principal.SessionID != "sess-abc" {
		t.Fatalf("expected session sess-abc, got %q", principal.SessionID)
	}
}

func TestResolveRevokedSessionFallsBackToSession(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	userID := uuid.New()
	token := mintToken(t, cfg, userID, "jti-revoked")

	resolver, err := NewResolver(cfg, &stubSessions{alive: map[string]bool{}}, knownUser(userID))
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), token, "sess-abc")
	if !principal.Anonymous() {
		t.Fatalf("expected anonymous after revocation, got %s", principal.Kind)
	}
}

func TestResolveDeletedUserFallsBackToSession(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	token := mintToken(t, cfg, uuid.New(), "jti-live")

	// session still alive in Redis, but the account is gone
	resolver, err := NewResolver(cfg, &stubSessions{alive: map[string]bool{"jti-live": true}}, &stubUsers{})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), token, "sess-abc")
	if !principal.Anonymous() {
		t.Fatalf("expected anonymous for a deleted user, got %s", principal.Kind)
	}
}

func TestResolveUnidentified(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver(testJWTConfig(), &stubSessions{}, &stubUsers{})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), "", "")
	if !principal.Unidentified() {
		t.Fatalf("expected unidentified, got %s", principal.Kind)
	}
}

func TestResolveExpiredTokenFallsBack(t *testing.T) {
	t.Parallel()

	cfg := testJWTConfig()
	expired, err := auth.MintAccessToken(cfg, time.Now().Add(-2*time.Hour), auth.AccessTokenPayload{
		UserID: uuid.New(),
		JTI:    "jti-old",
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}

	resolver, err := NewResolver(cfg, &stubSessions{alive: map[string]bool{"jti-old": true}}, &stubUsers{})
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}

	principal := resolver.Resolve(context.Background(), expired, "")
	if !principal.Unidentified() {
		t.Fatalf("expected unidentified for expired token without session, got %s", principal.Kind)
	}
}
