package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product line in a session-scoped cart. A session may hold
// at most one row per product, enforced by a unique index.
type CartItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SessionID       string    `gorm:"column:session_id;not null;uniqueIndex:ux_cart_items_session_product" json:"session_id"`
	ProductID       uuid.UUID `gorm:"column:product_id;type:uuid;not null;uniqueIndex:ux_cart_items_session_product" json:"product_id"`
	Quantity        int       `gorm:"column:quantity;not null" json:"quantity"`
	SelectedOptions JSONMap   `gorm:"column:selected_options;type:jsonb" json:"selected_options"`
	Personalization *string   `gorm:"column:personalization" json:"personalization"`
	Product         *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (CartItem) TableName() string { return "cart_items" }
