package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem is one product (optionally one variant) in a cart. UnitPricePaise
// is the price observed when the item was added; totals shown to the client
// are recomputed from live prices on every read.
type CartItem struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID         uuid.UUID  `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null"`
	VariantID      *uuid.UUID `gorm:"column:variant_id;type:uuid"`
	Qty            int        `gorm:"column:qty;not null"`
	UnitPricePaise int        `gorm:"column:unit_price_paise;not null"`
	Product        *Product   `gorm:"foreignKey:ProductID"`
	Variant        *ProductVariant `gorm:"foreignKey:VariantID"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
