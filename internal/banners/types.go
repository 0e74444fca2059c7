package banners

import (
	"time"

	"github.com/google/uuid"
)

// BannerDTO is the public banner projection.
type BannerDTO struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	ImageURL  string    `json:"imageUrl"`
	LinkURL   *string   `json:"linkUrl,omitempty"`
	Position  int       `json:"position"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CreateBannerInput is the admin payload for a new banner. New banners are
// appended at the end of the display order.
type CreateBannerInput struct {
	Title    string  `json:"title" validate:"required,max=200"`
	ImageURL string  `json:"imageUrl" validate:"required,url,max=2000"`
	LinkURL  *string `json:"linkUrl" validate:"omitempty,url,max=2000"`
	IsActive *bool   `json:"isActive"`
}

// UpdateBannerInput patches a banner; nil fields are left untouched.
type UpdateBannerInput struct {
	Title    *string `json:"title" validate:"omitempty,max=200"`
	ImageURL *string `json:"imageUrl" validate:"omitempty,url,max=2000"`
	LinkURL  *string `json:"linkUrl" validate:"omitempty,url,max=2000"`
	IsActive *bool   `json:"isActive"`
}

// ReorderInput carries the full banner set in the desired display order.
type ReorderInput struct {
	BannerIDs []uuid.UUID `json:"bannerIds" validate:"required,min=1"`
}
