package coupons

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

func setupCouponsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	couponsTable := `
CREATE TABLE IF NOT EXISTS coupons (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL,
  value INTEGER NOT NULL,
  min_order_paise INTEGER NOT NULL DEFAULT 0,
  max_discount_paise INTEGER,
  usage_limit INTEGER,
  used_count INTEGER NOT NULL DEFAULT 0,
  per_user_limit INTEGER,
  categories TEXT,
  starts_at DATETIME,
  expires_at DATETIME,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	redemptionsTable := `
CREATE TABLE IF NOT EXISTS coupon_redemptions (
  id TEXT PRIMARY KEY,
  coupon_id TEXT NOT NULL,
  user_id TEXT NOT NULL,
  order_id TEXT NOT NULL UNIQUE,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(couponsTable).Error)
	require.NoError(t, db.Exec(redemptionsTable).Error)
	return db
}

func newCoupon(t *testing.T, db *gorm.DB, code string, created time.Time, mutate func(*models.Coupon)) *models.Coupon {
	t.Helper()

	coupon := &models.Coupon{
		ID:        uuid.New(),
		Code:      code,
		Type:      enums.CouponTypePercentage,
		Value:     10,
		IsActive:  true,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if mutate != nil {
		mutate(coupon)
	}
	require.NoError(t, db.Create(coupon).Error)
	return coupon
}

func TestCouponRepositoryFindByCode(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	newCoupon(t, db, "DIWALI10", time.Now().UTC(), nil)

	found, err := repo.FindByCode(ctx, "DIWALI10")
	require.NoError(t, err)
	assert.Equal(t, "DIWALI10", found.Code)

	_, err = repo.FindByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCouponRepositoryListPaginates(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Date(2026, time.May, 5, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		newCoupon(t, db, fmt.Sprintf("SAVE%d", i), base.Add(time.Duration(i)*time.Minute), nil)
	}

	page, next, err := repo.List(ctx, "", 3)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.NotEmpty(t, next)
	assert.Equal(t, "SAVE4", page[0].Code)

	rest, next, err := repo.List(ctx, next, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
	assert.Empty(t, next)
	assert.Equal(t, "SAVE0", rest[1].Code)
}

func TestCouponRepositoryIncrementUsageHonorsLimit(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	limit := 2
	coupon := newCoupon(t, db, "TWICE", time.Now().UTC(), func(c *models.Coupon) {
		c.UsageLimit = &limit
	})

	for i := 0; i < 2; i++ {
		ok, err := repo.IncrementUsage(ctx, coupon.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}

	ok, err := repo.IncrementUsage(ctx, coupon.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.FindByID(ctx, coupon.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.UsedCount)

	// No limit means unlimited increments.
	open := newCoupon(t, db, "OPEN", time.Now().UTC(), nil)
	for i := 0; i < 3; i++ {
		ok, err := repo.IncrementUsage(ctx, open.ID)
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestCouponRepositoryRedemptionPerOrderIsUnique(t *testing.T) {
	db := setupCouponsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	coupon := newCoupon(t, db, "ONCE", time.Now().UTC(), nil)
	userID := uuid.New()
	orderID := uuid.New()

	require.NoError(t, repo.CreateRedemption(ctx, &models.CouponRedemption{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
	}))
	assert.Error(t, repo.CreateRedemption(ctx, &models.CouponRedemption{
		CouponID: coupon.ID,
		UserID:   userID,
		OrderID:  orderID,
	}))

	used, err := repo.CountUserRedemptions(ctx, coupon.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, used)

	used, err = repo.CountUserRedemptions(ctx, coupon.ID, uuid.New())
	require.NoError(t, err)
	assert.Zero(t, used)
}
