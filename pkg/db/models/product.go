package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a catalog listing. Options maps an option name to the
// list of choices a shopper may pick from.
type Product struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name           string          `gorm:"column:name;not null" json:"name"`
	Slug           string          `gorm:"column:slug;not null;uniqueIndex" json:"slug"`
	Description    *string         `gorm:"column:description" json:"description"`
	Category       *string         `gorm:"column:category" json:"category"`
	Seller         *string         `gorm:"column:seller" json:"seller"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null" json:"price"`
	Stock          int             `gorm:"column:stock;not null;default:0" json:"stock"`
	Images         pq.StringArray  `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]" json:"images"`
	Personalizable bool            `gorm:"column:personalizable;not null;default:false" json:"personalizable"`
	Options        JSONMap         `gorm:"column:options;type:jsonb" json:"options"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Product) TableName() string { return "products" }
