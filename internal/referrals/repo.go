package referrals

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
)

// Repository answers referral-program queries that span users and wallets.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a referrals repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountReferred counts users who signed up with the given user's code.
func (r *Repository) CountReferred(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("referred_by = ?", userID).
		Count(&count).Error
	return int(count), err
}

// ReferralCoins sums the referral bonuses credited to the user's wallet.
func (r *Repository) ReferralCoins(ctx context.Context, userID uuid.UUID) (int, error) {
	var total *int
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("SUM(wallet_transactions.coins_delta)").
		Joins("JOIN wallets ON wallets.id = wallet_transactions.wallet_id").
		Where("wallets.user_id = ? AND wallet_transactions.type = ?", userID, enums.WalletTxnReferralBonus).
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	if total == nil {
		return 0, nil
	}
	return *total, nil
}

// OwnerRow resolves a wallet back to its user for leaderboard display.
type OwnerRow struct {
	WalletID uuid.UUID `gorm:"column:wallet_id"`
	UserID   uuid.UUID `gorm:"column:user_id"`
	Name     string    `gorm:"column:name"`
}

// WalletOwners maps wallet ids to their owning users' display fields.
func (r *Repository) WalletOwners(ctx context.Context, walletIDs []uuid.UUID) (map[uuid.UUID]OwnerRow, error) {
	if len(walletIDs) == 0 {
		return map[uuid.UUID]OwnerRow{}, nil
	}
	var rows []OwnerRow
	err := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Select("wallets.id AS wallet_id, users.id AS user_id, users.name AS name").
		Joins("JOIN users ON users.id = wallets.user_id").
		Where("wallets.id IN ?", walletIDs).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	owners := make(map[uuid.UUID]OwnerRow, len(rows))
	for _, row := range rows {
		owners[row.WalletID] = row
	}
	return owners, nil
}
