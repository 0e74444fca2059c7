package checkout

import (
	"github.com/indiramart/storefront-backend/pkg/types"
)

// Input is the checkout payload. Discount amounts are never accepted from
// the client; only the coupon code and the coin count are, and both are
// re-validated server-side inside the order transaction.
type Input struct {
	ShippingAddress types.Address `json:"shippingAddress" validate:"required"`
	CouponCode      *string       `json:"couponCode" validate:"omitempty,max=64"`
	CoinsToRedeem   int           `json:"coinsToRedeem" validate:"omitempty,gte=0"`
	Notes           *string       `json:"notes" validate:"omitempty,max=500"`
}
