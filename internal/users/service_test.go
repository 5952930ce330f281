package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

type stubRepo struct {
	Repository

	byID    map[uuid.UUID]*models.User
	byEmail map[string]*models.User

	createErr error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		byID:    map[uuid.UUID]*models.User{},
		byEmail: map[string]*models.User{},
	}
}

func (s *stubRepo) add(user *models.User) *models.User {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return user
}

func (s *stubRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return nil, fmt.Errorf(`duplicate key value violates unique constraint "ux_users_email"`)
	}
	return s.add(user), nil
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		clone := *u
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRepo) Update(_ context.Context, user *models.User) (*models.User, error) {
	s.byID[user.ID] = user
	return user, nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.byID[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(s.byID, id)
	return nil
}

type stubSessions struct {
	started []string
	revoked []string
}

func (s *stubSessions) Start(_ context.Context, accessID string) error {
	s.started = append(s.started, accessID)
	return nil
}

func (s *stubSessions) Revoke(_ context.Context, accessID string) error {
	s.revoked = append(s.revoked, accessID)
	return nil
}

func testService(t *testing.T, repo Repository, env string) (*service, *stubSessions) {
	t.Helper()
	sessions := &stubSessions{}
	svc, err := NewService(
		repo,
		sessions,
		config.JWTConfig{Secret: "test-secret", Issuer: "mitraponics", ExpirationMinutes: 60},
		config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16},
		config.AppConfig{Env: env},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	typed := svc.(*service)
	// cheap stand-ins so tests stay fast
	typed.hash = func(password string, _ config.PasswordConfig) (string, error) {
		return "hashed:" + password, nil
	}
	typed.verify = func(password, encoded string) (bool, error) {
		return encoded == "hashed:"+password, nil
	}
	return typed, sessions
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	svc, sessions := testService(t, repo, config.AppEnvDev)

	result, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Sari",
		Email:    "Sari@Example.com",
		Password: "hunter2hunter2",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if result.Token == "" {
		t.Fatal("expected a token")
	}
	if result.User.Email != "sari@example.com" {
		t.Fatalf("expected normalized email, got %q", result.User.Email)
	}
	if result.User.IsAdmin {
		t.Fatal("self-registration must not grant admin")
	}
	if len(sessions.started) != 1 {
		t.Fatalf("expected 1 session started, got %d", len(sessions.started))
	}

	login, err := svc.Login(context.Background(), "sari@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if login.User.ID != result.User.ID {
		t.Fatal("expected login to resolve the registered account")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.add(&models.User{Email: "sari@example.com", PasswordHash: "hashed:right"})
	svc, _ := testService(t, repo, config.AppEnvDev)

	_, err := svc.Login(context.Background(), "sari@example.com", "wrong")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.add(&models.User{Email: "sari@example.com", PasswordHash: "hashed:x"})
	svc, _ := testService(t, repo, config.AppEnvDev)

	_, err := svc.Register(context.Background(), RegisterInput{
		Name:     "Sari",
		Email:    "sari@example.com",
		Password: "hunter2hunter2",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for duplicate email, got %v", err)
	}
}

func TestAdminLoginRequiresAdminFlag(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.add(&models.User{Email: "shopper@example.com", PasswordHash: "hashed:secret12"})
	repo.add(&models.User{Email: "boss@example.com", PasswordHash: "hashed:secret12", IsAdmin: true})
	svc, _ := testService(t, repo, config.AppEnvDev)

	_, err := svc.AdminLogin(context.Background(), "shopper@example.com", "secret12")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for non-admin, got %v", err)
	}

	result, err := svc.AdminLogin(context.Background(), "boss@example.com", "secret12")
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if !result.User.IsAdmin {
		t.Fatal("expected admin account")
	}
}

func TestAdminRegisterDisabledOutsideDev(t *testing.T) {
	t.Parallel()

	svc, _ := testService(t, newStubRepo(), config.AppEnvProd)

	_, err := svc.AdminRegister(context.Background(), RegisterInput{
		Name:     "Boss",
		Email:    "boss@example.com",
		Password: "hunter2hunter2",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden in prod, got %v", err)
	}
}

func TestDeleteRejectsSelf(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	user := repo.add(&models.User{Email: "boss@example.com", IsAdmin: true})
	svc, _ := testService(t, repo, config.AppEnvDev)

	err := svc.Delete(context.Background(), user.ID, user.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for self-delete, got %v", err)
	}

	other := repo.add(&models.User{Email: "other@example.com"})
	if err := svc.Delete(context.Background(), user.ID, other.ID); err != nil {
		t.Fatalf("delete other: %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	t.Parallel()

	svc, sessions := testService(t, newStubRepo(), config.AppEnvDev)

	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected session jti-1 revoked, got %v", sessions.revoked)
	}

	err := svc.Logout(context.Background(), " ")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized for blank access id, got %v", err)
	}
}
