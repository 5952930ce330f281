package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderItem snapshots a cart line at checkout. ProductName and Price are
// copied so later catalog edits do not rewrite history.
type OrderItem struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID         uuid.UUID       `gorm:"column:order_id;type:uuid;not null" json:"order_id"`
	ProductID       *uuid.UUID      `gorm:"column:product_id;type:uuid" json:"product_id"`
	ProductName     string          `gorm:"column:product_name;not null" json:"product_name"`
	Price           decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Quantity        int             `gorm:"column:quantity;not null" json:"quantity"`
	SelectedOptions JSONMap         `gorm:"column:selected_options;type:jsonb" json:"selected_options"`
	Personalization *string         `gorm:"column:personalization" json:"personalization"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (OrderItem) TableName() string { return "order_items" }
