package products

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/db"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/pagination"
)

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Service exposes catalog operations.
type Service interface {
	List(ctx context.Context, params ListParams) (*ListResult, error)
	Get(ctx context.Context, idOrSlug string) (*models.Product, error)
	Create(ctx context.Context, input CreateInput) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

// ListParams narrows and paginates the catalog listing.
type ListParams struct {
	Category        *string
	Search          string
	IncludeInactive bool
	Page            pagination.Params
}

// ListResult carries one page of products plus the cursor for the next.
type ListResult struct {
	Items      []models.Product
	NextCursor string
}

// CreateInput is the payload for adding a catalog listing.
type CreateInput struct {
	Name           string
	Description    *string
	Category       *string
	Seller         *string
	Price          decimal.Decimal
	Stock          int
	Images         []string
	Personalizable bool
	Options        models.JSONMap
	IsActive       bool
}

// UpdateInput carries partial catalog edits. Nil fields are left untouched.
type UpdateInput struct {
	Name           *string
	Description    *string
	Category       *string
	Seller         *string
	Price          *decimal.Decimal
	Stock          *int
	Images         []string
	Personalizable *bool
	Options        models.JSONMap
	IsActive       *bool
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Page.Limit)
	items, err := s.repo.List(ctx, ListFilter{
		Category:        params.Category,
		Search:          strings.TrimSpace(params.Search),
		IncludeInactive: params.IncludeInactive,
		Limit:           limit + 1,
		Cursor:          cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	result := &ListResult{Items: items}
	if len(items) > limit {
		result.Items = items[:limit]
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

// Get resolves a product by UUID or by slug.
func (s *service) Get(ctx context.Context, idOrSlug string) (*models.Product, error) {
	idOrSlug = strings.TrimSpace(idOrSlug)
	if idOrSlug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product identifier is required")
	}

	var (
		product *models.Product
		err     error
	)
	if id, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		product, err = s.repo.FindByID(ctx, id)
	} else {
		product, err = s.repo.FindBySlug(ctx, idOrSlug)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
	}

	product := &models.Product{
		Name:           name,
		Slug:           Slugify(name),
		Description:    input.Description,
		Category:       input.Category,
		Seller:         input.Seller,
		Price:          input.Price,
		Stock:          input.Stock,
		Images:         pq.StringArray(input.Images),
		Personalizable: input.Personalizable,
		Options:        input.Options,
		IsActive:       input.IsActive,
	}
	if product.Images == nil {
		product.Images = pq.StringArray{}
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return created, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*models.Product, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		product.Name = name
		product.Slug = Slugify(name)
	}
	if input.Description != nil {
		product.Description = input.Description
	}
	if input.Category != nil {
		product.Category = input.Category
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be non-negative")
		}
		product.Price = *input.Price
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock must be non-negative")
		}
		product.Stock = *input.Stock
	}
	if input.Seller != nil {
		product.Seller = input.Seller
	}
	if input.Images != nil {
		product.Images = pq.StringArray(input.Images)
	}
	if input.Personalizable != nil {
		product.Personalizable = *input.Personalizable
	}
	if input.Options != nil {
		product.Options = input.Options
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_products_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "product slug already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return updated, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

// Slugify lowercases the name and collapses non-alphanumeric runs to hyphens.
func Slugify(name string) string {
	slug := slugStripRe.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(slug, "-")
}
