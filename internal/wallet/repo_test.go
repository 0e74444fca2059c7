package wallet

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
)

func setupWalletTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	walletsTable := `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance_coins INTEGER NOT NULL DEFAULT 0,
  total_earned_coins INTEGER NOT NULL DEFAULT 0,
  total_spent_coins INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	transactionsTable := `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  coins_delta INTEGER NOT NULL,
  note TEXT,
  metadata TEXT,
  created_at DATETIME
);`
	orderTypeIndex := `
CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_order_type
  ON wallet_transactions (order_id, type) WHERE order_id IS NOT NULL;`
	require.NoError(t, db.Exec(walletsTable).Error)
	require.NoError(t, db.Exec(transactionsTable).Error)
	require.NoError(t, db.Exec(orderTypeIndex).Error)
	return db
}

func newLedgerRow(t *testing.T, db *gorm.DB, walletID uuid.UUID, txnType enums.WalletTransactionType, delta int, created time.Time) *models.WalletTransaction {
	t.Helper()

	row := &models.WalletTransaction{
		ID:         uuid.New(),
		WalletID:   walletID,
		Type:       txnType,
		CoinsDelta: delta,
		CreatedAt:  created,
	}
	require.NoError(t, db.Create(row).Error)
	return row
}

func TestWalletRepositoryCreateAndFind(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	created, err := repo.Create(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)

	found, err := repo.FindByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Zero(t, found.BalanceCoins)
	assert.Zero(t, found.TotalEarnedCoins)
	assert.Zero(t, found.TotalSpentCoins)

	_, err = repo.FindByUserID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestWalletRepositoryDebitGuardsBalance(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Credit(ctx, w.ID, 100))

	ok, err := repo.Debit(ctx, w.ID, 60)
	require.NoError(t, err)
	assert.True(t, ok)

	// Remaining 40 cannot cover another 60.
	ok, err = repo.Debit(ctx, w.ID, 60)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByUserID(ctx, w.UserID)
	require.NoError(t, err)
	assert.Equal(t, 40, found.BalanceCoins)
	assert.Equal(t, 100, found.TotalEarnedCoins)
	assert.Equal(t, 60, found.TotalSpentCoins)
}

func TestWalletRepositoryCreditReversalRestoresSpent(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	require.NoError(t, repo.Credit(ctx, w.ID, 200))

	ok, err := repo.Debit(ctx, w.ID, 150)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.CreditReversal(ctx, w.ID, 150))

	found, err := repo.FindByUserID(ctx, w.UserID)
	require.NoError(t, err)
	assert.Equal(t, 200, found.BalanceCoins)
	assert.Equal(t, 200, found.TotalEarnedCoins)
	assert.Zero(t, found.TotalSpentCoins)
}

func TestWalletRepositoryOrderLedgerIsExactlyOnce(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	orderID := uuid.New()

	first := &models.WalletTransaction{
		WalletID:   w.ID,
		OrderID:    &orderID,
		Type:       enums.WalletTxnRedeem,
		CoinsDelta: -50,
	}
	require.NoError(t, repo.CreateTransaction(ctx, first))

	duplicate := &models.WalletTransaction{
		WalletID:   w.ID,
		OrderID:    &orderID,
		Type:       enums.WalletTxnRedeem,
		CoinsDelta: -50,
	}
	assert.Error(t, repo.CreateTransaction(ctx, duplicate))

	// A different type for the same order is a separate ledger fact.
	reward := &models.WalletTransaction{
		WalletID:   w.ID,
		OrderID:    &orderID,
		Type:       enums.WalletTxnOrderReward,
		CoinsDelta: 10,
	}
	assert.NoError(t, repo.CreateTransaction(ctx, reward))

	has, err := repo.HasOrderTransaction(ctx, orderID, enums.WalletTxnRedeem)
	require.NoError(t, err)
	assert.True(t, has)

	has, err = repo.HasOrderTransaction(ctx, uuid.New(), enums.WalletTxnRedeem)
	require.NoError(t, err)
	assert.False(t, has)
}

func TestWalletRepositoryListTransactionsPaginates(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	w, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)

	base := time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		newLedgerRow(t, db, w.ID, enums.WalletTxnOrderReward, 10+i, base.Add(time.Duration(i)*time.Minute))
	}
	// Another wallet's rows must never leak into the page.
	other, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	newLedgerRow(t, db, other.ID, enums.WalletTxnOrderReward, 99, base.Add(time.Hour))

	page, next, err := repo.ListTransactions(ctx, w.ID, "", 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.NotEmpty(t, next)
	assert.Equal(t, 14, page[0].CoinsDelta)
	assert.Equal(t, 12, page[2].CoinsDelta)

	rest, next, err := repo.ListTransactions(ctx, w.ID, next, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Empty(t, next)
	assert.Equal(t, 11, rest[0].CoinsDelta)
	assert.Equal(t, 10, rest[1].CoinsDelta)
}

func TestWalletRepositoryListTransactionsRejectsBadCursor(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)

	_, _, err := repo.ListTransactions(context.Background(), uuid.New(), "not-a-cursor", 10)
	assert.Error(t, err)
}

func TestWalletRepositoryTopEarners(t *testing.T) {
	db := setupWalletTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, time.April, 2, 9, 0, 0, 0, time.UTC)

	heavy, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	newLedgerRow(t, db, heavy.ID, enums.WalletTxnReferralBonus, 50, base)
	newLedgerRow(t, db, heavy.ID, enums.WalletTxnReferralBonus, 50, base.Add(time.Minute))

	light, err := repo.Create(ctx, uuid.New())
	require.NoError(t, err)
	newLedgerRow(t, db, light.ID, enums.WalletTxnReferralBonus, 50, base)
	// Rewards do not count toward the referral board.
	newLedgerRow(t, db, light.ID, enums.WalletTxnOrderReward, 500, base)

	rows, err := repo.TopEarners(ctx, enums.WalletTxnReferralBonus, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, heavy.ID, rows[0].WalletID)
	assert.Equal(t, 2, rows[0].Events)
	assert.Equal(t, 100, rows[0].Coins)
	assert.Equal(t, light.ID, rows[1].WalletID)
	assert.Equal(t, 1, rows[1].Events)
	assert.Equal(t, 50, rows[1].Coins)
}
