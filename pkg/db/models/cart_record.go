package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// CartRecord is a user's single active cart. Checkout flips it to converted
// inside the order transaction; a new active cart is created on the next add.
type CartRecord struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID        `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.CartStatus `gorm:"column:status;type:text;not null;default:'active'"`
	ConvertedAt *time.Time       `gorm:"column:converted_at"`
	Items       []CartItem       `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName maps the model to the carts table created by the migrations.
func (CartRecord) TableName() string {
	return "carts"
}
