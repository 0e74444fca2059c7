package models

import (
	"time"

	"github.com/google/uuid"
)

// ProductVariant is a purchasable sub-option of a product (size, pack) with
// its own price and stock.
type ProductVariant struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID  uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Label      string    `gorm:"column:label;not null"`
	PricePaise int       `gorm:"column:price_paise;not null"`
	StockQty   int       `gorm:"column:stock_qty;not null;default:0"`
	IsActive   bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
