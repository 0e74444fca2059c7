package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
	"github.com/indiramart/storefront-backend/pkg/types"
)

// Order is the authoritative record produced by checkout. All discount
// amounts are server-derived snapshots; TotalPaise is the amount due:
// subtotal + delivery fee - coupon discount - coin discount.
type Order struct {
	ID                  uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber         int64             `gorm:"column:order_number;autoIncrement;uniqueIndex"`
	UserID              uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status              enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'"`
	SubtotalPaise       int               `gorm:"column:subtotal_paise;not null"`
	DeliveryFeePaise    int               `gorm:"column:delivery_fee_paise;not null;default:0"`
	CouponCode          *string           `gorm:"column:coupon_code"`
	CouponDiscountPaise int               `gorm:"column:coupon_discount_paise;not null;default:0"`
	CoinsUsed           int               `gorm:"column:coins_used;not null;default:0"`
	CoinDiscountPaise   int               `gorm:"column:coin_discount_paise;not null;default:0"`
	TotalPaise          int               `gorm:"column:total_paise;not null"`
	RewardCoins         int               `gorm:"column:reward_coins;not null;default:0"`
	RewardCreditedAt    *time.Time        `gorm:"column:reward_credited_at"`
	ShippingAddress     types.Address     `gorm:"column:shipping_address;type:jsonb"`
	Notes               *string           `gorm:"column:notes"`
	DeliveredAt         *time.Time        `gorm:"column:delivered_at"`
	CancelledAt         *time.Time        `gorm:"column:cancelled_at"`
	Items               []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt           time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
