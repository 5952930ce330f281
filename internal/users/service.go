package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/auth"
	"github.com/mitraponics/storefront-backend/pkg/auth/session"
	"github.com/mitraponics/storefront-backend/pkg/config"
	"github.com/mitraponics/storefront-backend/pkg/db"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/pagination"
	"github.com/mitraponics/storefront-backend/pkg/security"
)

type sessionStarter interface {
	Start(ctx context.Context, accessID string) error
	Revoke(ctx context.Context, accessID string) error
}

type passwordHasher func(password string, cfg config.PasswordConfig) (string, error)

type passwordVerifier func(password, encoded string) (bool, error)

// Service exposes account and credential operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	AdminLogin(ctx context.Context, email, password string) (*AuthResult, error)
	AdminRegister(ctx context.Context, input RegisterInput) (*AuthResult, error)
	Logout(ctx context.Context, accessID string) error

	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, page pagination.Params) (*ListResult, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.User, error)
	Delete(ctx context.Context, callerID, id uuid.UUID) error
}

type service struct {
	repo        Repository
	sessions    sessionStarter
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	appCfg      config.AppConfig
	hash        passwordHasher
	verify      passwordVerifier
	now         func() time.Time
}

// NewService builds an accounts service backed by the provided stack.
func NewService(repo Repository, sessions sessionStarter, jwtCfg config.JWTConfig, passwordCfg config.PasswordConfig, appCfg config.AppConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		repo:        repo,
		sessions:    sessions,
		jwtCfg:      jwtCfg,
		passwordCfg: passwordCfg,
		appCfg:      appCfg,
		hash:        security.HashPassword,
		verify:      security.VerifyPassword,
		now:         time.Now,
	}, nil
}

// RegisterInput is the payload for creating an account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// UpdateInput carries partial account edits. Nil fields are left untouched.
type UpdateInput struct {
	Name     *string
	Email    *string
	Password *string
	IsAdmin  *bool
}

// AuthResult pairs the persisted account with a freshly minted token.
type AuthResult struct {
	User  *models.User
	Token string
}

// ListResult carries one page of accounts plus the cursor for the next.
type ListResult struct {
	Items      []models.User
	NextCursor string
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	return s.register(ctx, input, false)
}

// AdminRegister provisions an admin account. Disabled outside dev so the
// flag can only be granted through the admin user endpoints in production.
func (s *service) AdminRegister(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if !s.appCfg.IsDev() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin registration is disabled")
	}
	return s.register(ctx, input, true)
}

func (s *service) register(ctx context.Context, input RegisterInput, isAdmin bool) (*AuthResult, error) {
	name := strings.TrimSpace(input.Name)
	email := normalizeEmail(input.Email)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}

	hashed, err := s.hash(input.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		IsAdmin:      isAdmin,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "ux_users_email") {
			// registration surfaces duplicates as a validation failure
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	return s.issueToken(ctx, user)
}

func (s *service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return s.issueToken(ctx, user)
}

// AdminLogin authenticates like Login but rejects non-admin accounts even
// when the credentials are correct.
func (s *service) AdminLogin(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}
	return s.issueToken(ctx, user)
}

func (s *service) authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email and password are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := s.verify(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	return user, nil
}

func (s *service) issueToken(ctx context.Context, user *models.User) (*AuthResult, error) {
	accessID := session.NewAccessID()
	token, err := auth.MintAccessToken(s.jwtCfg, s.now(), auth.AccessTokenPayload{
		UserID:  user.ID,
		IsAdmin: user.IsAdmin,
		JTI:     accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}
	if err := s.sessions.Start(ctx, accessID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start session")
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no active session")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

func (s *service) List(ctx context.Context, page pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(page.Limit)
	users, err := s.repo.List(ctx, ListFilter{Limit: limit + 1, Cursor: cursor})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}

	result := &ListResult{Items: users}
	if len(users) > limit {
		result.Items = users[:limit]
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		user.Name = name
	}
	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email cannot be empty")
		}
		user.Email = email
	}
	if input.Password != nil {
		if len(*input.Password) < 8 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
		}
		hashed, err := s.hash(*input.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
		user.PasswordHash = hashed
	}
	if input.IsAdmin != nil {
		user.IsAdmin = *input.IsAdmin
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_users_email") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	return updated, nil
}

// Delete removes an account. Callers cannot delete themselves, so an admin
// can never lock the team out of its own session mid-request.
func (s *service) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if callerID == id {
		return pkgerrors.New(pkgerrors.CodeForbidden, "cannot delete your own account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
