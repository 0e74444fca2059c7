package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet holds the Indira Coins balance for a user. Balance always equals
// total earned minus total spent; the three counters only change together
// with a WalletTransaction row in the same transaction.
type Wallet struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID           uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	BalanceCoins     int       `gorm:"column:balance_coins;not null;default:0"`
	TotalEarnedCoins int       `gorm:"column:total_earned_coins;not null;default:0"`
	TotalSpentCoins  int       `gorm:"column:total_spent_coins;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
