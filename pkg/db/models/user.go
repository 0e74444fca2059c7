package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// User is a storefront account. Every user owns exactly one wallet and one
// referral code; ReferredBy points at the user whose code was used at
// registration.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'customer'"`
	ReferralCode string         `gorm:"column:referral_code;not null;uniqueIndex"`
	ReferredBy   *uuid.UUID     `gorm:"column:referred_by;type:uuid"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	Wallet       *Wallet        `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
