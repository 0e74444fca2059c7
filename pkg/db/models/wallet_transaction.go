package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
)

// WalletTransaction is an append-only ledger entry. CoinsDelta is signed:
// positive for credits, negative for debits. The partial unique index on
// (order_id, type) makes order-scoped credits and debits exactly-once.
type WalletTransaction struct {
	ID         uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID   uuid.UUID                   `gorm:"column:wallet_id;type:uuid;not null;index"`
	OrderID    *uuid.UUID                  `gorm:"column:order_id;type:uuid"`
	Type       enums.WalletTransactionType `gorm:"column:type;type:text;not null"`
	CoinsDelta int                         `gorm:"column:coins_delta;not null"`
	Note       *string                     `gorm:"column:note"`
	Metadata   json.RawMessage             `gorm:"column:metadata;type:jsonb"`
	CreatedAt  time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
