package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mitraponics/storefront-backend/pkg/enums"
)

// Order is an immutable record of a completed checkout. Monetary fields are
// snapshots taken at checkout time and never recomputed.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber     string              `gorm:"column:order_number;not null;uniqueIndex" json:"order_number"`
	UserID          *uuid.UUID          `gorm:"column:user_id;type:uuid" json:"user_id"`
	SessionID       string              `gorm:"column:session_id;not null" json:"session_id"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:pending" json:"status"`
	PaymentMethod   enums.PaymentMethod `gorm:"column:payment_method;not null" json:"payment_method"`
	CustomerName    string              `gorm:"column:customer_name;not null" json:"customer_name"`
	Email           string              `gorm:"column:email;not null" json:"email"`
	Phone           *string             `gorm:"column:phone" json:"phone"`
	Province        string              `gorm:"column:province;not null" json:"province"`
	City            string              `gorm:"column:city;not null" json:"city"`
	District        string              `gorm:"column:district;not null" json:"district"`
	PostCode        string              `gorm:"column:post_code;not null" json:"post_code"`
	DetailedAddress string              `gorm:"column:detailed_address;not null" json:"detailed_address"`
	Notes           *string             `gorm:"column:notes" json:"notes"`
	CancelReason    *string             `gorm:"column:cancel_reason" json:"cancel_reason"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null" json:"subtotal"`
	Tax             decimal.Decimal     `gorm:"column:tax;type:numeric(12,2);not null" json:"tax"`
	Shipping        decimal.Decimal     `gorm:"column:shipping;type:numeric(12,2);not null" json:"shipping"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null" json:"total"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Order) TableName() string { return "orders" }
