package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// Coupon is an admin-managed discount code. Value is a percentage for
// percentage coupons and a paise amount for fixed ones. Empty Categories
// means the coupon applies storewide.
type Coupon struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code              string           `gorm:"column:code;not null;uniqueIndex"`
	Type              enums.CouponType `gorm:"column:type;type:text;not null"`
	Value             int              `gorm:"column:value;not null"`
	MinOrderPaise     int              `gorm:"column:min_order_paise;not null;default:0"`
	MaxDiscountPaise  *int             `gorm:"column:max_discount_paise"`
	UsageLimit        *int             `gorm:"column:usage_limit"`
	UsedCount         int              `gorm:"column:used_count;not null;default:0"`
	PerUserLimit      *int             `gorm:"column:per_user_limit"`
	Categories        pq.StringArray   `gorm:"column:categories;type:text[]"`
	StartsAt          *time.Time       `gorm:"column:starts_at"`
	ExpiresAt         *time.Time       `gorm:"column:expires_at"`
	IsActive          bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// CouponRedemption records one coupon use per order, backing per-user and
// global usage limits.
type CouponRedemption struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CouponID  uuid.UUID `gorm:"column:coupon_id;type:uuid;not null;index"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID   uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
