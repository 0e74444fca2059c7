package referrals

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/users"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

func setupReferralsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'customer',
  referral_code TEXT NOT NULL UNIQUE,
  referred_by TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS wallets (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL UNIQUE,
  balance_coins INTEGER NOT NULL DEFAULT 0,
  total_earned_coins INTEGER NOT NULL DEFAULT 0,
  total_spent_coins INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS wallet_transactions (
  id TEXT PRIMARY KEY,
  wallet_id TEXT NOT NULL,
  order_id TEXT,
  type TEXT NOT NULL,
  coins_delta INTEGER NOT NULL,
  note TEXT,
  metadata TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

type referralFixture struct {
	db  *gorm.DB
	svc Service
}

func newReferralsFixture(t *testing.T) *referralFixture {
	t.Helper()
	db := setupReferralsTestDB(t)
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Users:  users.NewRepository(db),
		Wallet: wallet.NewRepository(db),
		Config: config.ReferralConfig{BonusCoins: 50, CodeLength: 8},
	})
	require.NoError(t, err)
	return &referralFixture{db: db, svc: svc}
}

func (f *referralFixture) seedUser(t *testing.T, name, code string, referredBy *uuid.UUID) *models.User {
	t.Helper()
	user := &models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        fmt.Sprintf("%s@example.in", uuid.NewString()[:8]),
		PasswordHash: "x",
		Role:         enums.UserRoleCustomer,
		ReferralCode: code,
		ReferredBy:   referredBy,
		IsActive:     true,
	}
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *referralFixture) seedBonus(t *testing.T, userID uuid.UUID, bonuses int) {
	t.Helper()
	w := &models.Wallet{ID: uuid.New(), UserID: userID}
	require.NoError(t, f.db.Create(w).Error)
	for i := 0; i < bonuses; i++ {
		txn := &models.WalletTransaction{
			ID:         uuid.New(),
			WalletID:   w.ID,
			Type:       enums.WalletTxnReferralBonus,
			CoinsDelta: 50,
		}
		require.NoError(t, f.db.Create(txn).Error)
	}
}

func TestReferralsMyCode(t *testing.T) {
	fixture := newReferralsFixture(t)
	ctx := context.Background()

	referrer := fixture.seedUser(t, "Asha", "ASHA1234", nil)
	fixture.seedUser(t, "First Friend", "FRND0001", &referrer.ID)
	fixture.seedUser(t, "Second Friend", "FRND0002", &referrer.ID)
	fixture.seedBonus(t, referrer.ID, 2)

	dto, err := fixture.svc.MyCode(ctx, referrer.ID)
	require.NoError(t, err)
	assert.Equal(t, "ASHA1234", dto.ReferralCode)
	assert.Equal(t, 2, dto.ReferredCount)
	assert.Equal(t, 100, dto.CoinsEarned)
	assert.Equal(t, 50, dto.BonusPerReferral)
}

func TestReferralsMyCodeFreshAccount(t *testing.T) {
	fixture := newReferralsFixture(t)
	ctx := context.Background()

	user := fixture.seedUser(t, "Nikhil", "NIKH5678", nil)

	dto, err := fixture.svc.MyCode(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, dto.ReferredCount)
	assert.Equal(t, 0, dto.CoinsEarned)
}

func TestReferralsMyCodeUnknownUser(t *testing.T) {
	fixture := newReferralsFixture(t)

	_, err := fixture.svc.MyCode(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestReferralsLeaderboardRanksByCoins(t *testing.T) {
	fixture := newReferralsFixture(t)
	ctx := context.Background()

	top := fixture.seedUser(t, "Asha", "ASHA1234", nil)
	mid := fixture.seedUser(t, "Nikhil", "NIKH5678", nil)
	none := fixture.seedUser(t, "Quiet", "QUIE9012", nil)
	fixture.seedBonus(t, top.ID, 3)
	fixture.seedBonus(t, mid.ID, 1)
	fixture.seedBonus(t, none.ID, 0)

	entries, err := fixture.svc.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2, "users with no bonuses stay off the board")

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "Asha", entries[0].Name)
	assert.Equal(t, 3, entries[0].Referrals)
	assert.Equal(t, 150, entries[0].Coins)

	assert.Equal(t, 2, entries[1].Rank)
	assert.Equal(t, mid.ID, entries[1].UserID)
}

func TestReferralsLeaderboardHonorsLimit(t *testing.T) {
	fixture := newReferralsFixture(t)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		user := fixture.seedUser(t, fmt.Sprintf("User %d", i), fmt.Sprintf("CODE%04d", i), nil)
		fixture.seedBonus(t, user.ID, i+1)
	}

	entries, err := fixture.svc.Leaderboard(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 200, entries[0].Coins)

	// Out-of-range limits fall back to the default page size.
	entries, err = fixture.svc.Leaderboard(ctx, -1)
	require.NoError(t, err)
	assert.Len(t, entries, 4)
}
