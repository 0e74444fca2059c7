package cron

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/orders"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
)

func setupRewardJobDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	statements := []string{`
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number INTEGER,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'placed',
  subtotal_paise INTEGER NOT NULL,
  delivery_fee_paise INTEGER NOT NULL DEFAULT 0,
  coupon_code TEXT,
  coupon_discount_paise INTEGER NOT NULL DEFAULT 0,
  coins_used INTEGER NOT NULL DEFAULT 0,
  coin_discount_paise INTEGER NOT NULL DEFAULT 0,
  total_paise INTEGER NOT NULL,
  reward_coins INTEGER NOT NULL DEFAULT 0,
  reward_credited_at DATETIME,
  shipping_address TEXT,
  notes TEXT,
  delivered_at DATETIME,
  cancelled_at DATETIME,
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
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_wallet_transactions_order_type
  ON wallet_transactions (order_id, type) WHERE order_id IS NOT NULL;`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("schema: %v", err)
		}
	}
	return db
}

type rewardJobTxRunner struct {
	db *gorm.DB
}

func (r rewardJobTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(tx.WithContext(ctx))
	})
}

type rewardJobHelper struct {
	db     *gorm.DB
	job    *rewardCreditJob
	wallet *wallet.Repository
}

func newRewardJobHelper(t *testing.T) *rewardJobHelper {
	t.Helper()

	db := setupRewardJobDB(t)
	runner := rewardJobTxRunner{db: db}
	walletRepo := wallet.NewRepository(db)
	walletSvc, err := wallet.NewService(wallet.ServiceParams{
		Repo:   walletRepo,
		DB:     runner,
		Config: config.WalletConfig{CoinValuePaise: 20, MaxDiscountPercent: 10, CoinStep: 5, RewardPercent: 2},
	})
	if err != nil {
		t.Fatalf("wallet service: %v", err)
	}

	job, err := NewRewardCreditJob(RewardCreditJobParams{
		Logger:    testLogger(),
		DB:        runner,
		Orders:    orders.NewRepository(db),
		Wallet:    walletSvc,
		BatchSize: 10,
	})
	if err != nil {
		t.Fatalf("NewRewardCreditJob: %v", err)
	}
	return &rewardJobHelper{db: db, job: job.(*rewardCreditJob), wallet: walletRepo}
}

func (h *rewardJobHelper) seedDeliveredOrder(t *testing.T, number int64, rewardCoins int) (*models.Order, uuid.UUID) {
	t.Helper()

	userID := uuid.New()
	w := &models.Wallet{ID: uuid.New(), UserID: userID}
	if err := h.db.Create(w).Error; err != nil {
		t.Fatalf("seed wallet: %v", err)
	}

	delivered := time.Now().UTC().Add(-time.Hour)
	order := &models.Order{
		ID:            uuid.New(),
		OrderNumber:   number,
		UserID:        userID,
		Status:        enums.OrderStatusDelivered,
		SubtotalPaise: rewardCoins * 1000,
		TotalPaise:    rewardCoins * 1000,
		RewardCoins:   rewardCoins,
		DeliveredAt:   &delivered,
	}
	if err := h.db.Create(order).Error; err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order, userID
}

func TestRewardJobCreditsDeliveredOrders(t *testing.T) {
	helper := newRewardJobHelper(t)
	ctx := context.Background()

	order, userID := helper.seedDeliveredOrder(t, 1001, 36)

	if err := helper.job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	w, err := helper.wallet.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	if w.BalanceCoins != 36 || w.TotalEarnedCoins != 36 {
		t.Fatalf("wallet not credited: balance=%d earned=%d", w.BalanceCoins, w.TotalEarnedCoins)
	}

	exists, err := helper.wallet.HasOrderTransaction(ctx, order.ID, enums.WalletTxnOrderReward)
	if err != nil {
		t.Fatalf("check ledger: %v", err)
	}
	if !exists {
		t.Fatalf("expected an order_reward ledger row")
	}

	var refreshed models.Order
	if err := helper.db.First(&refreshed, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if refreshed.RewardCreditedAt == nil {
		t.Fatalf("order not stamped as credited")
	}
}

func TestRewardJobIsIdempotentAcrossRuns(t *testing.T) {
	helper := newRewardJobHelper(t)
	ctx := context.Background()

	_, userID := helper.seedDeliveredOrder(t, 1002, 40)

	if err := helper.job.Run(ctx); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := helper.job.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}

	w, err := helper.wallet.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	if w.BalanceCoins != 40 {
		t.Fatalf("reward credited twice: balance=%d", w.BalanceCoins)
	}
}

func TestRewardJobHealsMissedStamp(t *testing.T) {
	helper := newRewardJobHelper(t)
	ctx := context.Background()

	order, userID := helper.seedDeliveredOrder(t, 1003, 25)

	// A previous run wrote the ledger row but died before stamping the
	// order. The next run must stamp it without crediting again.
	var w models.Wallet
	if err := helper.db.First(&w, "user_id = ?", userID).Error; err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	txn := &models.WalletTransaction{
		ID:         uuid.New(),
		WalletID:   w.ID,
		OrderID:    &order.ID,
		Type:       enums.WalletTxnOrderReward,
		CoinsDelta: 25,
	}
	if err := helper.db.Create(txn).Error; err != nil {
		t.Fatalf("seed ledger row: %v", err)
	}

	if err := helper.job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var refreshed models.Order
	if err := helper.db.First(&refreshed, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if refreshed.RewardCreditedAt == nil {
		t.Fatalf("order not stamped after heal")
	}

	reloaded, err := helper.wallet.FindByUserID(ctx, userID)
	if err != nil {
		t.Fatalf("load wallet: %v", err)
	}
	if reloaded.BalanceCoins != 0 {
		t.Fatalf("balance must be untouched by the heal, got %d", reloaded.BalanceCoins)
	}
}

func TestRewardJobSkipsZeroRewardOrders(t *testing.T) {
	helper := newRewardJobHelper(t)
	ctx := context.Background()

	order, _ := helper.seedDeliveredOrder(t, 1004, 0)

	if err := helper.job.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var refreshed models.Order
	if err := helper.db.First(&refreshed, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if refreshed.RewardCreditedAt == nil {
		t.Fatalf("zero-coin orders must still be stamped")
	}

	var count int64
	if err := helper.db.Model(&models.WalletTransaction{}).Count(&count).Error; err != nil {
		t.Fatalf("count ledger: %v", err)
	}
	if count != 0 {
		t.Fatalf("no ledger rows expected, got %d", count)
	}
}
