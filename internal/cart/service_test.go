package cart

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

type stubRepo struct {
	Repository

	items map[string][]models.CartItem

	addCalls []models.CartItem
	addErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{items: map[string][]models.CartItem{}}
}

func (s *stubRepo) AddOrIncrement(_ context.Context, item *models.CartItem) error {
	if s.addErr != nil {
		return s.addErr
	}
	s.addCalls = append(s.addCalls, *item)

	lines := s.items[item.SessionID]
	for i := range lines {
		if lines[i].ProductID == item.ProductID {
			lines[i].Quantity += item.Quantity
			s.items[item.SessionID] = lines
			return nil
		}
	}
	item.ID = uuid.New()
	s.items[item.SessionID] = append(lines, *item)
	return nil
}

func (s *stubRepo) ListBySession(_ context.Context, sessionID string) ([]models.CartItem, error) {
	return s.items[sessionID], nil
}

func (s *stubRepo) UpdateItem(_ context.Context, sessionID string, itemID uuid.UUID, changes ItemChanges) (int64, error) {
	lines := s.items[sessionID]
	for i := range lines {
		if lines[i].ID != itemID {
			continue
		}
		if changes.Quantity != nil {
			lines[i].Quantity = *changes.Quantity
		}
		if changes.Personalization != nil {
			lines[i].Personalization = changes.Personalization
		}
		if changes.SelectedOptions != nil {
			lines[i].SelectedOptions = changes.SelectedOptions
		}
		s.items[sessionID] = lines
		return 1, nil
	}
	return 0, nil
}

func (s *stubRepo) Remove(_ context.Context, sessionID string, itemID uuid.UUID) (int64, error) {
	lines := s.items[sessionID]
	for i := range lines {
		if lines[i].ID == itemID {
			s.items[sessionID] = append(lines[:i], lines[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

func (s *stubRepo) Clear(_ context.Context, sessionID string) error {
	delete(s.items, sessionID)
	return nil
}

type stubProducts struct {
	products map[uuid.UUID]*models.Product
}

func (s *stubProducts) FindByID(_ context.Context, id uuid.UUID) (*models.Product, error) {
	if p, ok := s.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func activeProduct(price int64) *models.Product {
	return &models.Product{
		ID:       uuid.New(),
		Name:     "Monstera",
		Price:    decimal.NewFromInt(price),
		IsActive: true,
	}
}

func TestAddItemInsertsNewLine(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	product := activeProduct(50000)
	svc, err := NewService(repo, &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	view, err := svc.AddItem(context.Background(), "sess-1", AddItemInput{
		ProductID: product.ID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("add item: %v", err)
	}
	if len(view.Items) != 1 {
		t.Fatalf("expected 1 line, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", view.Items[0].Quantity)
	}
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	product := activeProduct(50000)
	svc, err := NewService(repo, &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "sess-1", AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	view, err := svc.AddItem(ctx, "sess-1", AddItemInput{ProductID: product.ID, Quantity: 3})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(view.Items) != 1 {
		t.Fatalf("expected a single line after re-add, got %d", len(view.Items))
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
}

func TestAddItemRejectsUnknownProduct(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRepo(), &stubProducts{products: map[uuid.UUID]*models.Product{}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AddItem(context.Background(), "sess-1", AddItemInput{ProductID: uuid.New(), Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemRejectsInactiveProduct(t *testing.T) {
	t.Parallel()

	product := activeProduct(1000)
	product.IsActive = false
	svc, err := NewService(newStubRepo(), &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AddItem(context.Background(), "sess-1", AddItemInput{ProductID: product.ID, Quantity: 1})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemRejectsZeroQuantity(t *testing.T) {
	t.Parallel()

	product := activeProduct(1000)
	svc, err := NewService(newStubRepo(), &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.AddItem(context.Background(), "sess-1", AddItemInput{ProductID: product.ID, Quantity: 0})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestViewSubtotalUsesCurrentPrices(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	product := activeProduct(125000)
	products := &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}}
	svc, err := NewService(repo, products)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "sess-1", AddItemInput{ProductID: product.ID, Quantity: 2}); err != nil {
		t.Fatalf("add: %v", err)
	}

	// attach the product the way Preload would
	lines := repo.items["sess-1"]
	lines[0].Product = product
	repo.items["sess-1"] = lines

	view, err := svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := decimal.NewFromInt(250000)
	if !view.Subtotal.Equal(want) {
		t.Fatalf("expected subtotal %s, got %s", want, view.Subtotal)
	}
	if view.ItemCount != 2 {
		t.Fatalf("expected item count 2, got %d", view.ItemCount)
	}
}

func TestUpdateItemScopedToSession(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	product := activeProduct(1000)
	svc, err := NewService(repo, &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.AddItem(ctx, "sess-1", AddItemInput{ProductID: product.ID, Quantity: 1}); err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := repo.items["sess-1"][0].ID

	_, err = svc.UpdateItem(ctx, "sess-other", itemID, UpdateItemInput{Quantity: 5})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found for foreign session, got %v", err)
	}

	view, err := svc.UpdateItem(ctx, "sess-1", itemID, UpdateItemInput{Quantity: 5})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if view.Items[0].Quantity != 5 {
		t.Fatalf("expected quantity 5, got %d", view.Items[0].Quantity)
	}
}

func TestUpdateItemEditsOptionsAndPersonalization(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	product := activeProduct(1000)
	svc, err := NewService(repo, &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	ctx := context.Background()
	engraving := "Selamat Ulang Tahun"
	if _, err := svc.AddItem(ctx, "sess-1", AddItemInput{
		ProductID:       product.ID,
		Quantity:        1,
		Personalization: &engraving,
		SelectedOptions: models.JSONMap{"pot": "clay"},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	itemID := repo.items["sess-1"][0].ID

	// quantity-only edits leave the other fields alone
	if _, err := svc.UpdateItem(ctx, "sess-1", itemID, UpdateItemInput{Quantity: 3}); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	line := repo.items["sess-1"][0]
	if line.Personalization == nil || *line.Personalization != engraving {
		t.Fatalf("expected personalization untouched, got %v", line.Personalization)
	}
	if line.SelectedOptions["pot"] != "clay" {
		t.Fatalf("expected options untouched, got %v", line.SelectedOptions)
	}

	newEngraving := "Untuk Ibu"
	if _, err := svc.UpdateItem(ctx, "sess-1", itemID, UpdateItemInput{
		Quantity:        3,
		Personalization: &newEngraving,
		SelectedOptions: models.JSONMap{"pot": "plastic"},
	}); err != nil {
		t.Fatalf("update all fields: %v", err)
	}
	line = repo.items["sess-1"][0]
	if line.Personalization == nil || *line.Personalization != newEngraving {
		t.Fatalf("expected personalization replaced, got %v", line.Personalization)
	}
	if line.SelectedOptions["pot"] != "plastic" {
		t.Fatalf("expected options replaced, got %v", line.SelectedOptions)
	}
}

func TestRemoveMissingItem(t *testing.T) {
	t.Parallel()

	product := activeProduct(1000)
	svc, err := NewService(newStubRepo(), &stubProducts{products: map[uuid.UUID]*models.Product{product.ID: product}})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.RemoveItem(context.Background(), "sess-1", uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}
