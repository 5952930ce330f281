package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/mitraponics/storefront-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes cart persistence operations. All reads and writes are
// scoped by session so one shopper can never touch another's cart.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	AddOrIncrement(ctx context.Context, item *models.CartItem) error
	ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error)
	FindItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.CartItem, error)
	UpdateItem(ctx context.Context, sessionID string, itemID uuid.UUID, changes ItemChanges) (int64, error)
	Remove(ctx context.Context, sessionID string, itemID uuid.UUID) (int64, error)
	Clear(ctx context.Context, sessionID string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// AddOrIncrement inserts the line or bumps its quantity in a single
// statement, so concurrent adds for the same product cannot race. An
// existing line keeps its options and personalization.
func (r *repository) AddOrIncrement(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO cart_items (session_id, product_id, quantity, selected_options, personalization)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (session_id, product_id)
		DO UPDATE SET
			quantity = cart_items.quantity + EXCLUDED.quantity,
			updated_at = now()
	`, item.SessionID, item.ProductID, item.Quantity, item.SelectedOptions, item.Personalization).Error
}

func (r *repository) ListBySession(ctx context.Context, sessionID string) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db.WithContext(ctx).
		Preload("Product").
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItem(ctx context.Context, sessionID string, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, itemID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ItemChanges lists the line fields an update may touch. Nil fields are
// left as they are.
type ItemChanges struct {
	Quantity        *int
	Personalization *string
	SelectedOptions models.JSONMap
}

func (r *repository) UpdateItem(ctx context.Context, sessionID string, itemID uuid.UUID, changes ItemChanges) (int64, error) {
	updates := map[string]any{}
	if changes.Quantity != nil {
		updates["quantity"] = *changes.Quantity
	}
	if changes.Personalization != nil {
		updates["personalization"] = *changes.Personalization
	}
	if changes.SelectedOptions != nil {
		updates["selected_options"] = changes.SelectedOptions
	}
	if len(updates) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.CartItem{}).
		Where("session_id = ? AND id = ?", sessionID, itemID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repository) Remove(ctx context.Context, sessionID string, itemID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("session_id = ? AND id = ?", sessionID, itemID).
		Delete(&models.CartItem{})
	return result.RowsAffected, result.Error
}

func (r *repository) Clear(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&models.CartItem{}).Error
}
