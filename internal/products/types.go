package products

import (
	"time"

	"github.com/google/uuid"
)

// VariantDTO is the public projection of a product variant.
type VariantDTO struct {
	ID         uuid.UUID `json:"id"`
	Label      string    `json:"label"`
	PricePaise int       `json:"pricePaise"`
	InStock    bool      `json:"inStock"`
	StockQty   int       `json:"stockQty"`
}

// ProductDTO is the public projection of a catalog product.
type ProductDTO struct {
	ID                  uuid.UUID    `json:"id"`
	Title               string       `json:"title"`
	Slug                string       `json:"slug"`
	Description         string       `json:"description"`
	Category            string       `json:"category"`
	PricePaise          int          `json:"pricePaise"`
	CompareAtPricePaise *int         `json:"compareAtPricePaise,omitempty"`
	StockQty            int          `json:"stockQty"`
	InStock             bool         `json:"inStock"`
	Images              []string     `json:"images"`
	Variants            []VariantDTO `json:"variants,omitempty"`
	IsActive            bool         `json:"isActive"`
	CreatedAt           time.Time    `json:"createdAt"`
	UpdatedAt           time.Time    `json:"updatedAt"`
}

// ListFilter narrows the public catalog listing.
type ListFilter struct {
	Category string
	Search   string
	// IncludeInactive is only honored on admin paths.
	IncludeInactive bool
}

// ProductPageDTO is a cursor-paginated catalog view.
type ProductPageDTO struct {
	Items      []ProductDTO `json:"items"`
	NextCursor string       `json:"nextCursor,omitempty"`
	Total      int64        `json:"total"`
}

// CreateProductInput is the admin payload for creating a product.
type CreateProductInput struct {
	Title               string               `json:"title" validate:"required,max=200"`
	Slug                string               `json:"slug" validate:"required,max=200"`
	Description         string               `json:"description" validate:"max=5000"`
	Category            string               `json:"category" validate:"required,max=100"`
	PricePaise          int                  `json:"pricePaise" validate:"required,gt=0"`
	CompareAtPricePaise *int                 `json:"compareAtPricePaise,omitempty" validate:"omitempty,gt=0"`
	StockQty            int                  `json:"stockQty" validate:"gte=0"`
	Images              []string             `json:"images" validate:"dive,url"`
	IsActive            *bool                `json:"isActive,omitempty"`
	Variants            []CreateVariantInput `json:"variants,omitempty" validate:"dive"`
}

// CreateVariantInput describes one variant in a create/update payload.
type CreateVariantInput struct {
	Label      string `json:"label" validate:"required,max=100"`
	PricePaise int    `json:"pricePaise" validate:"required,gt=0"`
	StockQty   int    `json:"stockQty" validate:"gte=0"`
}

// UpdateProductInput is the admin payload for partial product updates.
type UpdateProductInput struct {
	Title               *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description         *string  `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category            *string  `json:"category,omitempty" validate:"omitempty,max=100"`
	PricePaise          *int     `json:"pricePaise,omitempty" validate:"omitempty,gt=0"`
	CompareAtPricePaise *int     `json:"compareAtPricePaise,omitempty" validate:"omitempty,gt=0"`
	StockQty            *int     `json:"stockQty,omitempty" validate:"omitempty,gte=0"`
	Images              []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	IsActive            *bool    `json:"isActive,omitempty"`
}
