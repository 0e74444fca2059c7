package wallet

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	"github.com/indiramart/storefront-backend/pkg/pagination"
)

// Repository manages wallet and ledger persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a fresh zero-balance wallet for the user.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	w := &models.Wallet{ID: uuid.New(), UserID: userID}
	if err := r.db.WithContext(ctx).Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// FindByUserID loads the user's wallet.
func (r *Repository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.Wallet, error) {
	var w models.Wallet
	if err := r.db.WithContext(ctx).First(&w, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// Debit atomically reduces the balance and bumps total spent. Zero rows
// affected means the balance was insufficient.
func (r *Repository) Debit(ctx context.Context, walletID uuid.UUID, coins int) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND balance_coins >= ?", walletID, coins).
		Updates(map[string]any{
			"balance_coins":     gorm.Expr("balance_coins - ?", coins),
			"total_spent_coins": gorm.Expr("total_spent_coins + ?", coins),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Credit atomically raises the balance and bumps total earned.
func (r *Repository) Credit(ctx context.Context, walletID uuid.UUID, coins int) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_coins":      gorm.Expr("balance_coins + ?", coins),
			"total_earned_coins": gorm.Expr("total_earned_coins + ?", coins),
		}).Error
}

// CreditReversal returns previously spent coins to the balance.
func (r *Repository) CreditReversal(ctx context.Context, walletID uuid.UUID, coins int) error {
	return r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ?", walletID).
		Updates(map[string]any{
			"balance_coins":     gorm.Expr("balance_coins + ?", coins),
			"total_spent_coins": gorm.Expr("total_spent_coins - ?", coins),
		}).Error
}

// CreateTransaction appends one ledger row.
func (r *Repository) CreateTransaction(ctx context.Context, txn *models.WalletTransaction) error {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(txn).Error
}

// HasOrderTransaction reports whether a ledger row of the given type already
// exists for the order.
func (r *Repository) HasOrderTransaction(ctx context.Context, orderID uuid.UUID, txnType enums.WalletTransactionType) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("order_id = ? AND type = ?", orderID, txnType).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListTransactions returns a cursor-paginated ledger slice, newest first.
func (r *Repository) ListTransactions(ctx context.Context, walletID uuid.UUID, cursor string, limit int) ([]models.WalletTransaction, string, error) {
	normalizedLimit := pagination.NormalizeLimit(limit)
	limitWithBuffer := pagination.LimitWithBuffer(limit)

	decodedCursor, err := pagination.ParseCursor(strings.TrimSpace(cursor))
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Where("wallet_id = ?", walletID)
	if decodedCursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			decodedCursor.CreatedAt, decodedCursor.CreatedAt, decodedCursor.ID)
	}
	query = query.Order("created_at DESC").Order("id DESC").Limit(limitWithBuffer)

	var rows []models.WalletTransaction
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) > normalizedLimit {
		rows = rows[:normalizedLimit]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return rows, nextCursor, nil
}

// TopEarners aggregates referral_bonus credits per wallet, most coins first.
func (r *Repository) TopEarners(ctx context.Context, txnType enums.WalletTransactionType, limit int) ([]EarnerRow, error) {
	var rows []EarnerRow
	err := r.db.WithContext(ctx).
		Model(&models.WalletTransaction{}).
		Select("wallet_id, COUNT(*) AS events, SUM(coins_delta) AS coins").
		Where("type = ?", txnType).
		Group("wallet_id").
		Order("coins DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// EarnerRow is one aggregated leaderboard row.
type EarnerRow struct {
	WalletID uuid.UUID `gorm:"column:wallet_id"`
	Events   int       `gorm:"column:events"`
	Coins    int       `gorm:"column:coins"`
}
