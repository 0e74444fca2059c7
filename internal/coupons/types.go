package coupons

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// CouponDTO is the admin projection of a coupon.
type CouponDTO struct {
	ID               uuid.UUID        `json:"id"`
	Code             string           `json:"code"`
	Type             enums.CouponType `json:"type"`
	Value            int              `json:"value"`
	MinOrderPaise    int              `json:"minOrderPaise"`
	MaxDiscountPaise *int             `json:"maxDiscountPaise,omitempty"`
	UsageLimit       *int             `json:"usageLimit,omitempty"`
	UsedCount        int              `json:"usedCount"`
	PerUserLimit     *int             `json:"perUserLimit,omitempty"`
	Categories       []string         `json:"categories,omitempty"`
	StartsAt         *time.Time       `json:"startsAt,omitempty"`
	ExpiresAt        *time.Time       `json:"expiresAt,omitempty"`
	IsActive         bool             `json:"isActive"`
	CreatedAt        time.Time        `json:"createdAt"`
	UpdatedAt        time.Time        `json:"updatedAt"`
}

// CouponPageDTO is a cursor-paginated admin listing.
type CouponPageDTO struct {
	Items      []CouponDTO `json:"items"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// ValidateInput is the storefront payload for checking a code against the
// current cart total.
type ValidateInput struct {
	Code            string `json:"code" validate:"required,max=64"`
	OrderValuePaise int    `json:"orderValue" validate:"required,gt=0"`
}

// ValidationDTO is the derived discount for a valid coupon.
type ValidationDTO struct {
	CouponID            uuid.UUID        `json:"couponId"`
	Code                string           `json:"code"`
	Type                enums.CouponType `json:"type"`
	DiscountAmountPaise int              `json:"discountAmount"`
}

// CreateCouponInput is the admin payload for creating a coupon.
type CreateCouponInput struct {
	Code             string     `json:"code" validate:"required,max=64"`
	Type             string     `json:"type" validate:"required,oneof=percentage fixed"`
	Value            int        `json:"value" validate:"required,gt=0"`
	MinOrderPaise    int        `json:"minOrderPaise" validate:"gte=0"`
	MaxDiscountPaise *int       `json:"maxDiscountPaise,omitempty" validate:"omitempty,gt=0"`
	UsageLimit       *int       `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	PerUserLimit     *int       `json:"perUserLimit,omitempty" validate:"omitempty,gt=0"`
	Categories       []string   `json:"categories,omitempty" validate:"dive,required,max=100"`
	StartsAt         *time.Time `json:"startsAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	IsActive         *bool      `json:"isActive,omitempty"`
}

// UpdateCouponInput patches an existing coupon. Nil fields keep the stored
// value.
type UpdateCouponInput struct {
	Type             *string    `json:"type,omitempty" validate:"omitempty,oneof=percentage fixed"`
	Value            *int       `json:"value,omitempty" validate:"omitempty,gt=0"`
	MinOrderPaise    *int       `json:"minOrderPaise,omitempty" validate:"omitempty,gte=0"`
	MaxDiscountPaise *int       `json:"maxDiscountPaise,omitempty" validate:"omitempty,gt=0"`
	UsageLimit       *int       `json:"usageLimit,omitempty" validate:"omitempty,gt=0"`
	PerUserLimit     *int       `json:"perUserLimit,omitempty" validate:"omitempty,gt=0"`
	Categories       []string   `json:"categories,omitempty" validate:"omitempty,dive,required,max=100"`
	StartsAt         *time.Time `json:"startsAt,omitempty"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
	IsActive         *bool      `json:"isActive,omitempty"`
}
