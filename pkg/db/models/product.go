package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Product is a catalog entry. Variants optionally override price and stock;
// when a product has no variants, its own PricePaise and StockQty apply.
type Product struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title               string           `gorm:"column:title;not null"`
	Slug                string           `gorm:"column:slug;not null;uniqueIndex"`
	Description         string           `gorm:"column:description;not null;default:''"`
	Category            string           `gorm:"column:category;not null;index"`
	PricePaise          int              `gorm:"column:price_paise;not null"`
	CompareAtPricePaise *int             `gorm:"column:compare_at_price_paise"`
	StockQty            int              `gorm:"column:stock_qty;not null;default:0"`
	Images              pq.StringArray   `gorm:"column:images;type:text[]"`
	IsActive            bool             `gorm:"column:is_active;not null;default:true"`
	Variants            []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
