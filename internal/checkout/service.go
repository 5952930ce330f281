package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/internal/cart"
	"github.com/mitraponics/storefront-backend/internal/orders"
	"github.com/mitraponics/storefront-backend/pkg/db"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	"github.com/mitraponics/storefront-backend/pkg/enums"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/metrics"
)

const orderNumberAttempts = 5

var (
	taxRate      = decimal.NewFromFloat(0.11)
	shippingFlat = decimal.NewFromInt(15000)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service converts a session cart into an immutable order.
type Service interface {
	Checkout(ctx context.Context, input Input) (*models.Order, error)
}

type service struct {
	tx       txRunner
	cartRepo cart.Repository
	orders   orders.Repository
	metrics  *metrics.StorefrontMetrics
	now      func() time.Time
}

// NewService builds a checkout service backed by the provided stack.
func NewService(tx txRunner, cartRepo cart.Repository, orderRepo orders.Repository, m *metrics.StorefrontMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if cartRepo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{
		tx:       tx,
		cartRepo: cartRepo,
		orders:   orderRepo,
		metrics:  m,
		now:      time.Now,
	}, nil
}

// Input is the checkout payload. UserID is nil for guest checkouts; the
// session is recorded either way.
type Input struct {
	SessionID     string
	UserID        *uuid.UUID
	PaymentMethod enums.PaymentMethod
	CustomerName  string
	Email         string
	Phone         *string
	Address       Address
	Notes         *string
}

// Address is the shipping destination captured on the order.
type Address struct {
	Province        string
	City            string
	District        string
	PostCode        string
	DetailedAddress string
}

// Checkout snapshots the cart into an order inside one transaction: totals
// are computed from current catalog prices, line items copy name and price,
// and the cart is cleared. Nothing is written if any step fails.
func (s *service) Checkout(ctx context.Context, input Input) (*models.Order, error) {
	if err := s.validate(input); err != nil {
		s.metrics.IncCheckoutFailure("validation")
		return nil, err
	}

	started := s.now()
	var order *models.Order

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cartRepo.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		items, err := cartRepo.ListBySession(ctx, input.SessionID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(items) == 0 {
			return pkgerrors.New(pkgerrors.CodeEmptyCart, "cart is empty")
		}

		subtotal := decimal.Zero
		for _, item := range items {
			if item.Product == nil {
				return pkgerrors.New(pkgerrors.CodeDependency, "cart references a missing product")
			}
			subtotal = subtotal.Add(item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		tax := subtotal.Mul(taxRate).Round(0)
		total := subtotal.Add(tax).Add(shippingFlat)

		order, err = s.createWithFreshNumber(ctx, orderRepo, &models.Order{
			UserID:          input.UserID,
			SessionID:       input.SessionID,
			Status:          enums.OrderStatusPending,
			PaymentMethod:   input.PaymentMethod,
			CustomerName:    strings.TrimSpace(input.CustomerName),
			Email:           strings.TrimSpace(input.Email),
			Phone:           input.Phone,
			Province:        strings.TrimSpace(input.Address.Province),
			City:            strings.TrimSpace(input.Address.City),
			District:        strings.TrimSpace(input.Address.District),
			PostCode:        strings.TrimSpace(input.Address.PostCode),
			DetailedAddress: strings.TrimSpace(input.Address.DetailedAddress),
			Notes:           input.Notes,
			Subtotal:        subtotal,
			Tax:             tax,
			Shipping:        shippingFlat,
			Total:           total,
		})
		if err != nil {
			return err
		}

		lines := make([]models.OrderItem, 0, len(items))
		for _, item := range items {
			productID := item.ProductID
			lines = append(lines, models.OrderItem{
				OrderID:         order.ID,
				ProductID:       &productID,
				ProductName:     item.Product.Name,
				Price:           item.Product.Price,
				Quantity:        item.Quantity,
				SelectedOptions: item.SelectedOptions,
				Personalization: item.Personalization,
			})
		}
		if err := orderRepo.CreateItems(ctx, lines); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = lines

		if err := cartRepo.Clear(ctx, input.SessionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			s.metrics.IncCheckoutFailure(strings.ToLower(string(typed.Code())))
		} else {
			s.metrics.IncCheckoutFailure("internal")
		}
		return nil, err
	}

	s.metrics.ObserveCheckout(input.PaymentMethod.String(), s.now().Sub(started))
	s.metrics.IncOrderCreated(input.PaymentMethod.String())
	return order, nil
}

// createWithFreshNumber retries with a new order number when the unique
// index rejects a collision.
func (s *service) createWithFreshNumber(ctx context.Context, repo orders.Repository, order *models.Order) (*models.Order, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := NewOrderNumber()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate order number")
		}
		order.OrderNumber = number

		created, err := repo.Create(ctx, order)
		if err == nil {
			return created, nil
		}
		if !db.IsUniqueViolation(err, "ux_orders_order_number") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeInternal, "exhausted order number attempts")
}

func (s *service) validate(input Input) error {
	if strings.TrimSpace(input.SessionID) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart session is required")
	}
	if strings.TrimSpace(input.CustomerName) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer name is required")
	}
	if strings.TrimSpace(input.Email) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	for field, value := range map[string]string{
		"province":         input.Address.Province,
		"city":             input.Address.City,
		"district":         input.Address.District,
		"post_code":        input.Address.PostCode,
		"detailed_address": input.Address.DetailedAddress,
	} {
		if strings.TrimSpace(value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, field+" is required")
		}
	}
	if _, err := enums.ParsePaymentMethod(input.PaymentMethod.String()); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported payment method")
	}
	return nil
}
