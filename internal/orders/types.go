package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
	"github.com/indiramart/storefront-backend/pkg/types"
)

// LineItemDTO is one snapshotted order line.
type LineItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      *uuid.UUID `json:"productId,omitempty"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	Name           string     `json:"name"`
	VariantLabel   *string    `json:"variantLabel,omitempty"`
	UnitPricePaise int        `json:"unitPricePaise"`
	Qty            int        `json:"qty"`
	TotalPaise     int        `json:"totalPaise"`
}

// OrderDTO is the public projection of an order.
type OrderDTO struct {
	ID                  uuid.UUID         `json:"id"`
	OrderNumber         int64             `json:"orderNumber"`
	Status              enums.OrderStatus `json:"status"`
	Items               []LineItemDTO     `json:"items"`
	SubtotalPaise       int               `json:"subtotalPaise"`
	DeliveryFeePaise    int               `json:"deliveryFeePaise"`
	CouponCode          *string           `json:"couponCode,omitempty"`
	CouponDiscountPaise int               `json:"couponDiscountPaise"`
	CoinsUsed           int               `json:"coinsUsed"`
	CoinDiscountPaise   int               `json:"coinDiscountPaise"`
	TotalPaise          int               `json:"totalPaise"`
	RewardCoins         int               `json:"rewardCoins"`
	ShippingAddress     types.Address     `json:"shippingAddress"`
	Notes               *string           `json:"notes,omitempty"`
	DeliveredAt         *time.Time        `json:"deliveredAt,omitempty"`
	CancelledAt         *time.Time        `json:"cancelledAt,omitempty"`
	CreatedAt           time.Time         `json:"createdAt"`
}

// OrderPageDTO is a cursor-paginated order listing.
type OrderPageDTO struct {
	Items      []OrderDTO `json:"items"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// ListFilter narrows an order listing. UserID scopes buyer queries; a nil
// UserID is the admin view.
type ListFilter struct {
	UserID *uuid.UUID
	Status *enums.OrderStatus
}

// UpdateStatusInput is the admin payload for advancing the lifecycle.
type UpdateStatusInput struct {
	Status string `json:"status" validate:"required,oneof=placed confirmed shipped delivered cancelled"`
}
