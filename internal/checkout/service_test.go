package checkout

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/internal/cart"
	"github.com/mitraponics/storefront-backend/internal/orders"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	"github.com/mitraponics/storefront-backend/pkg/enums"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
)

type stubTx struct {
	calls int
}

func (s *stubTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	s.calls++
	return fn(nil)
}

type stubCartRepo struct {
	cart.Repository

	items   []models.CartItem
	cleared []string
	listErr error
}

func (s *stubCartRepo) WithTx(_ *gorm.DB) cart.Repository { return s }

func (s *stubCartRepo) ListBySession(_ context.Context, sessionID string) ([]models.CartItem, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.items, nil
}

func (s *stubCartRepo) Clear(_ context.Context, sessionID string) error {
	s.cleared = append(s.cleared, sessionID)
	return nil
}

type stubOrderRepo struct {
	orders.Repository

	created     []models.Order
	items       []models.OrderItem
	failCreates int
}

func (s *stubOrderRepo) WithTx(_ *gorm.DB) orders.Repository { return s }

func (s *stubOrderRepo) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	if s.failCreates > 0 {
		s.failCreates--
		return nil, fmt.Errorf(`duplicate key value violates unique constraint "ux_orders_order_number"`)
	}
	order.ID = uuid.New()
	s.created = append(s.created, *order)
	return order, nil
}

func (s *stubOrderRepo) CreateItems(_ context.Context, items []models.OrderItem) error {
	s.items = append(s.items, items...)
	return nil
}

func cartLine(price int64, qty int) models.CartItem {
	productID := uuid.New()
	return models.CartItem{
		ID:        uuid.New(),
		SessionID: "sess-1",
		ProductID: productID,
		Quantity:  qty,
		Product: &models.Product{
			ID:       productID,
			Name:     "Monstera",
			Price:    decimal.NewFromInt(price),
			IsActive: true,
		},
	}
}

func validInput() Input {
	return Input{
		SessionID:     "sess-1",
		PaymentMethod: enums.PaymentMethodCOD,
		CustomerName:  "Sari Dewi",
		Email:         "sari@example.com",
		Address: Address{
			Province:        "DKI Jakarta",
			City:            "Jakarta Selatan",
			District:        "Kebayoran Baru",
			PostCode:        "12120",
			DetailedAddress: "Jl. Melati 5",
		},
	}
}

func newService(t *testing.T, cartRepo cart.Repository, orderRepo orders.Repository) Service {
	t.Helper()
	svc, err := NewService(&stubTx{}, cartRepo, orderRepo, nil)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestCheckoutComputesTotals(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{items: []models.CartItem{cartLine(125000, 2)}}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if !order.Subtotal.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected subtotal 250000, got %s", order.Subtotal)
	}
	if !order.Tax.Equal(decimal.NewFromInt(27500)) {
		t.Fatalf("expected tax 27500, got %s", order.Tax)
	}
	if !order.Shipping.Equal(decimal.NewFromInt(15000)) {
		t.Fatalf("expected shipping 15000, got %s", order.Shipping)
	}
	if !order.Total.Equal(decimal.NewFromInt(292500)) {
		t.Fatalf("expected total 292500, got %s", order.Total)
	}
	if order.Status != enums.OrderStatusPending {
		t.Fatalf("expected pending status, got %s", order.Status)
	}
}

func TestCheckoutSnapshotsLineItems(t *testing.T) {
	t.Parallel()

	line := cartLine(50000, 3)
	cartRepo := &stubCartRepo{items: []models.CartItem{line}}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}

	if len(orderRepo.items) != 1 {
		t.Fatalf("expected 1 order item, got %d", len(orderRepo.items))
	}
	item := orderRepo.items[0]
	if item.ProductName != "Monstera" {
		t.Fatalf("expected snapshotted name, got %q", item.ProductName)
	}
	if !item.Price.Equal(decimal.NewFromInt(50000)) {
		t.Fatalf("expected snapshotted price 50000, got %s", item.Price)
	}
	if item.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", item.Quantity)
	}
	if item.OrderID != order.ID {
		t.Fatalf("expected item bound to order %s", order.ID)
	}
}

func TestCheckoutClearsCart(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{items: []models.CartItem{cartLine(1000, 1)}}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	if _, err := svc.Checkout(context.Background(), validInput()); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if len(cartRepo.cleared) != 1 || cartRepo.cleared[0] != "sess-1" {
		t.Fatalf("expected cart sess-1 cleared, got %v", cartRepo.cleared)
	}
}

func TestCheckoutEmptyCartCreatesNothing(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	_, err := svc.Checkout(context.Background(), validInput())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeEmptyCart {
		t.Fatalf("expected empty cart error, got %v", err)
	}
	if len(orderRepo.created) != 0 {
		t.Fatalf("expected no orders created, got %d", len(orderRepo.created))
	}
	if len(cartRepo.cleared) != 0 {
		t.Fatal("expected cart left untouched")
	}
}

func TestCheckoutRetriesOrderNumberCollision(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{items: []models.CartItem{cartLine(1000, 1)}}
	orderRepo := &stubOrderRepo{failCreates: 2}
	svc := newService(t, cartRepo, orderRepo)

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.OrderNumber == "" {
		t.Fatal("expected an order number after retries")
	}
}

func TestCheckoutKeepsGuestUserNil(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{items: []models.CartItem{cartLine(1000, 1)}}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if order.UserID != nil {
		t.Fatalf("expected nil user for guest checkout, got %v", order.UserID)
	}
	if order.SessionID != "sess-1" {
		t.Fatalf("expected session recorded, got %q", order.SessionID)
	}
}

func TestCheckoutValidation(t *testing.T) {
	t.Parallel()

	svc := newService(t, &stubCartRepo{}, &stubOrderRepo{})

	input := validInput()
	input.CustomerName = " "
	_, err := svc.Checkout(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	input = validInput()
	input.PaymentMethod = "bitcoin"
	_, err = svc.Checkout(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for payment method, got %v", err)
	}

	input = validInput()
	input.Address.PostCode = ""
	_, err = svc.Checkout(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing post code, got %v", err)
	}

	input = validInput()
	input.Email = " "
	_, err = svc.Checkout(context.Background(), input)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for missing email, got %v", err)
	}
}

func TestCheckoutPhoneIsOptional(t *testing.T) {
	t.Parallel()

	cartRepo := &stubCartRepo{items: []models.CartItem{cartLine(1000, 1)}}
	orderRepo := &stubOrderRepo{}
	svc := newService(t, cartRepo, orderRepo)

	// no phone in the payload at all
	order, err := svc.Checkout(context.Background(), validInput())
	if err != nil {
		t.Fatalf("checkout without phone: %v", err)
	}
	if order.Phone != nil {
		t.Fatalf("expected nil phone, got %v", *order.Phone)
	}
	if order.Email != "sari@example.com" {
		t.Fatalf("expected email recorded, got %q", order.Email)
	}

	phone := "+628123456789"
	input := validInput()
	input.Phone = &phone
	order, err = svc.Checkout(context.Background(), input)
	if err != nil {
		t.Fatalf("checkout with phone: %v", err)
	}
	if order.Phone == nil || *order.Phone != phone {
		t.Fatalf("expected phone kept, got %v", order.Phone)
	}
}

func TestNewOrderNumberFormatAndUniqueness(t *testing.T) {
	t.Parallel()

	format := regexp.MustCompile(`^ORD-[A-Z0-9]{8}$`)
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		number, err := NewOrderNumber()
		if err != nil {
			t.Fatalf("generate: %v", err)
		}
		if !format.MatchString(number) {
			t.Fatalf("unexpected format %q", number)
		}
		if _, dup := seen[number]; dup {
			t.Fatalf("duplicate order number %q after %d draws", number, i)
		}
		seen[number] = struct{}{}
	}
}
