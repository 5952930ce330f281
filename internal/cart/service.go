package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

// Service exposes the session cart operations.
type Service interface {
	Get(ctx context.Context, sessionID string) (*View, error)
	AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error)
	UpdateItem(ctx context.Context, sessionID string, itemID uuid.UUID, input UpdateItemInput) (*View, error)
	RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*View, error)
	Clear(ctx context.Context, sessionID string) error
}

type service struct {
	repo     Repository
	products productLoader
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo Repository, products productLoader) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	return &service{repo: repo, products: products}, nil
}

// AddItemInput captures the payload for adding a product to the cart.
type AddItemInput struct {
	ProductID       uuid.UUID
	Quantity        int
	SelectedOptions models.JSONMap
	Personalization *string
}

// UpdateItemInput carries a line edit. Personalization and SelectedOptions
// are optional and leave the stored values untouched when absent.
type UpdateItemInput struct {
	Quantity        int
	Personalization *string
	SelectedOptions models.JSONMap
}

// View is the cart as rendered to the shopper. Subtotal reflects current
// catalog prices, not a snapshot.
type View struct {
	SessionID string            `json:"session_id"`
	Items     []models.CartItem `json:"items"`
	ItemCount int               `json:"item_count"`
	Subtotal  decimal.Decimal   `json:"subtotal"`
}

func (s *service) Get(ctx context.Context, sessionID string) (*View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	return s.buildView(ctx, sessionID)
}

func (s *service) AddItem(ctx context.Context, sessionID string, input AddItemInput) (*View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}

	item := &models.CartItem{
		SessionID:       sessionID,
		ProductID:       input.ProductID,
		Quantity:        input.Quantity,
		SelectedOptions: input.SelectedOptions,
		Personalization: input.Personalization,
	}
	if err := s.repo.AddOrIncrement(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart item")
	}

	return s.buildView(ctx, sessionID)
}

func (s *service) UpdateItem(ctx context.Context, sessionID string, itemID uuid.UUID, input UpdateItemInput) (*View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}

	quantity := input.Quantity
	affected, err := s.repo.UpdateItem(ctx, sessionID, itemID, ItemChanges{
		Quantity:        &quantity,
		Personalization: input.Personalization,
		SelectedOptions: input.SelectedOptions,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	return s.buildView(ctx, sessionID)
}

func (s *service) RemoveItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*View, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if itemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}

	affected, err := s.repo.Remove(ctx, sessionID, itemID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart item")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	return s.buildView(ctx, sessionID)
}

func (s *service) Clear(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if err := s.repo.Clear(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) buildView(ctx context.Context, sessionID string) (*View, error) {
	items, err := s.repo.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}

	view := &View{
		SessionID: sessionID,
		Items:     items,
		Subtotal:  decimal.Zero,
	}
	for _, item := range items {
		view.ItemCount += item.Quantity
		if item.Product != nil {
			line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
			view.Subtotal = view.Subtotal.Add(line)
		}
	}
	return view, nil
}
