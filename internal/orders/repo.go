package orders

import (
	"context"

	"github.com/google/uuid"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	"github.com/mitraponics/storefront-backend/pkg/enums"
	"github.com/mitraponics/storefront-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository exposes order persistence operations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	CreateItems(ctx context.Context, items []models.OrderItem) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
	ListForSession(ctx context.Context, sessionID string) ([]models.Order, error)
	FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error)
	FindForSession(ctx context.Context, sessionID string, orderID uuid.UUID) (*models.Order, error)
	ListAll(ctx context.Context, filter AdminListFilter) ([]models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, cancelReason *string) (int64, error)
	Cancel(ctx context.Context, orderID uuid.UUID, reason *string) (int64, error)
	Delete(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// AdminListFilter narrows the unfiltered admin listing.
type AdminListFilter struct {
	Status *enums.OrderStatus
	Limit  int
	Cursor *pagination.Cursor
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// ListForSession returns every order placed from the session. The session
// stays addressable even after an order is attached to a user account.
func (r *repository) ListForSession(ctx context.Context, sessionID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindForUser(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND user_id = ?", orderID, userID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindForSession(ctx context.Context, sessionID string, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND session_id = ?", orderID, sessionID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListAll(ctx context.Context, filter AdminListFilter) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Preload("Items").Model(&models.Order{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", filter.Cursor.CreatedAt, filter.Cursor.ID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var orders []models.Order
	if err := query.Order("created_at DESC, id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", orderID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.OrderStatus, cancelReason *string) (int64, error) {
	updates := map[string]any{"status": status}
	if status == enums.OrderStatusCancelled && cancelReason != nil {
		updates["cancel_reason"] = *cancelReason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// Cancel flips the order to cancelled. The status guard keeps a cancel that
// races a concurrent move to shipped or delivered from landing; zero rows
// affected means the order was no longer cancellable.
func (r *repository) Cancel(ctx context.Context, orderID uuid.UUID, reason *string) (int64, error) {
	updates := map[string]any{"status": enums.OrderStatusCancelled}
	if reason != nil {
		updates["cancel_reason"] = *reason
	}
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status IN ?", orderID, []enums.OrderStatus{
			enums.OrderStatusPending,
			enums.OrderStatusProcessing,
		}).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) Delete(ctx context.Context, orderID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		Delete(&models.Order{})
	return result.RowsAffected, result.Error
}
