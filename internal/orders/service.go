package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mitraponics/storefront-backend/internal/identity"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	"github.com/mitraponics/storefront-backend/pkg/enums"
	pkgerrors "github.com/mitraponics/storefront-backend/pkg/errors"
	"github.com/mitraponics/storefront-backend/pkg/metrics"
	"github.com/mitraponics/storefront-backend/pkg/pagination"
)

// Service exposes order reads and lifecycle updates.
//
// Owner-facing lookups are scoped by the caller's principal: authenticated
// callers see orders tied to their account and nothing else, even when the
// order carries their session id. Anonymous callers see every order placed
// from their session, including orders that also carry a user id. Denials
// surface as not-found so the API never confirms a foreign order exists.
type Service interface {
	ListForPrincipal(ctx context.Context, principal identity.Principal) ([]models.Order, error)
	GetForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID) (*models.Order, error)
	CancelForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID, reason *string) (*models.Order, error)
	DeleteForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID) error

	AdminList(ctx context.Context, params AdminListParams) (*AdminListResult, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, cancelReason *string) (*models.Order, error)
	AdminDelete(ctx context.Context, orderID uuid.UUID) error
}

type service struct {
	repo    Repository
	metrics *metrics.StorefrontMetrics
}

// NewService builds an orders service backed by the provided repository.
func NewService(repo Repository, m *metrics.StorefrontMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	return &service{repo: repo, metrics: m}, nil
}

// AdminListParams narrows and paginates the unfiltered admin listing.
type AdminListParams struct {
	Status *enums.OrderStatus
	Page   pagination.Params
}

// AdminListResult carries one page of orders plus the cursor for the next.
type AdminListResult struct {
	Items      []models.Order
	NextCursor string
}

func (s *service) ListForPrincipal(ctx context.Context, principal identity.Principal) ([]models.Order, error) {
	switch principal.Kind {
	case identity.KindAuthenticated:
		orders, err := s.repo.ListForUser(ctx, principal.UserID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return orders, nil
	case identity.KindAnonymous:
		orders, err := s.repo.ListForSession(ctx, principal.SessionID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
		}
		return orders, nil
	default:
		// no identity at all still gets a valid, empty response
		return []models.Order{}, nil
	}
}

func (s *service) GetForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}

	var (
		order *models.Order
		err   error
	)
	switch principal.Kind {
	case identity.KindAuthenticated:
		order, err = s.repo.FindForUser(ctx, principal.UserID, orderID)
	case identity.KindAnonymous:
		order, err = s.repo.FindForSession(ctx, principal.SessionID, orderID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// CancelForPrincipal cancels an order the caller owns. Only pending and
// processing orders can still be cancelled. The reason is persisted when
// provided.
func (s *service) CancelForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID, reason *string) (*models.Order, error) {
	order, err := s.GetForPrincipal(ctx, principal, orderID)
	if err != nil {
		return nil, err
	}

	if !order.Status.Cancellable() {
		return nil, pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("order in status %s cannot be cancelled", order.Status),
		)
	}

	previous := order.Status
	affected, err := s.repo.Cancel(ctx, order.ID, reason)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if affected == 0 {
		// the order moved on between our read and the update
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}
	order.Status = enums.OrderStatusCancelled
	order.CancelReason = reason
	s.metrics.IncStatusChange(previous.String(), enums.OrderStatusCancelled.String())
	return order, nil
}

// DeleteForPrincipal removes an order the caller owns. The ownership check
// mirrors GetForPrincipal, so a foreign order surfaces as not-found.
func (s *service) DeleteForPrincipal(ctx context.Context, principal identity.Principal, orderID uuid.UUID) error {
	order, err := s.GetForPrincipal(ctx, principal, orderID)
	if err != nil {
		return err
	}

	affected, err := s.repo.Delete(ctx, order.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}

func (s *service) AdminList(ctx context.Context, params AdminListParams) (*AdminListResult, error) {
	cursor, err := pagination.ParseCursor(params.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Page.Limit)
	orders, err := s.repo.ListAll(ctx, AdminListFilter{
		Status: params.Status,
		Limit:  limit + 1,
		Cursor: cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	result := &AdminListResult{Items: orders}
	if len(orders) > limit {
		result.Items = orders[:limit]
		last := result.Items[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// AdminUpdateStatus overwrites the status directly. Operators may move an
// order to any known status, including backwards. A reason supplied on a
// move to cancelled is persisted alongside the status.
func (s *service) AdminUpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, cancelReason *string) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if _, err := enums.ParseOrderStatus(status.String()); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown order status")
	}

	order, err := s.AdminGet(ctx, orderID)
	if err != nil {
		return nil, err
	}

	previous := order.Status
	if _, err := s.repo.UpdateStatus(ctx, orderID, status, cancelReason); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = status
	if status == enums.OrderStatusCancelled && cancelReason != nil {
		order.CancelReason = cancelReason
	}
	s.metrics.IncStatusChange(previous.String(), status.String())
	return order, nil
}

// AdminDelete removes an order and its items outright.
func (s *service) AdminDelete(ctx context.Context, orderID uuid.UUID) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	affected, err := s.repo.Delete(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return nil
}
