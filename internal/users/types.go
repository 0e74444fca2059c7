package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// UserDTO is the transport shape that omits credentials.
type UserDTO struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Email        string         `json:"email"`
	Role         enums.UserRole `json:"role"`
	ReferralCode string         `json:"referralCode"`
	IsActive     bool           `json:"isActive"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// UserPageDTO is the cursor-paginated admin listing.
type UserPageDTO struct {
	Items      []UserDTO `json:"items"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

// RegisterInput creates a storefront account. ReferralCode, when present,
// must match an existing user's code.
type RegisterInput struct {
	Name         string `json:"name" validate:"required,max=120"`
	Email        string `json:"email" validate:"required,email,max=254"`
	Password     string `json:"password" validate:"required,min=8,max=128"`
	ReferralCode string `json:"referralCode,omitempty" validate:"omitempty,max=32"`
}

// LoginInput exchanges credentials for a token pair.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshInput rotates a refresh session. AccessToken may be expired; only
// its identity claims are read.
type RefreshInput struct {
	AccessToken  string `json:"accessToken" validate:"required"`
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// AuthDTO is the login/register/refresh response.
type AuthDTO struct {
	User         UserDTO `json:"user"`
	AccessToken  string  `json:"accessToken"`
	RefreshToken string  `json:"refreshToken"`
}

// ListFilter narrows the admin user listing.
type ListFilter struct {
	Search string
}

// SetActiveInput enables or disables an account.
type SetActiveInput struct {
	IsActive *bool `json:"isActive" validate:"required"`
}
