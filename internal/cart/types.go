package cart

import (
	"github.com/google/uuid"
)

// ItemDTO is one cart line with live pricing. UnitPricePaise is the current
// price, not the add-time snapshot; LineTotalPaise follows it.
type ItemDTO struct {
	ID             uuid.UUID  `json:"id"`
	ProductID      uuid.UUID  `json:"productId"`
	VariantID      *uuid.UUID `json:"variantId,omitempty"`
	Title          string     `json:"title"`
	VariantLabel   *string    `json:"variantLabel,omitempty"`
	Image          *string    `json:"image,omitempty"`
	Category       string     `json:"category"`
	Qty            int        `json:"qty"`
	UnitPricePaise int        `json:"unitPricePaise"`
	LineTotalPaise int        `json:"lineTotalPaise"`
	// Available is false when the product or variant was deactivated or
	// removed after the line was added.
	Available bool `json:"available"`
	// InStock reports whether current stock covers the requested qty.
	InStock bool `json:"inStock"`
}

// CartDTO is the user's active cart, repriced on every read.
type CartDTO struct {
	ID            *uuid.UUID `json:"id,omitempty"`
	Items         []ItemDTO  `json:"items"`
	TotalQty      int        `json:"totalQty"`
	SubtotalPaise int        `json:"subtotalPaise"`
}

// AddItemInput adds a product (optionally a variant) to the cart, merging
// qty into an existing matching line.
type AddItemInput struct {
	ProductID uuid.UUID  `json:"productId" validate:"required"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
	Qty       int        `json:"qty" validate:"required,gte=1"`
}

// UpdateItemInput sets a line's qty; zero removes the line.
type UpdateItemInput struct {
	Qty int `json:"qty" validate:"gte=0"`
}
