package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/products"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

func setupCartTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{`
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  slug TEXT NOT NULL UNIQUE,
  description TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  compare_at_price_paise INTEGER,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  images TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS product_variants (
  id TEXT PRIMARY KEY,
  product_id TEXT NOT NULL,
  label TEXT NOT NULL,
  price_paise INTEGER NOT NULL,
  stock_qty INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE TABLE IF NOT EXISTS carts (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  converted_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_carts_user_active
  ON carts (user_id) WHERE status = 'active';`, `
CREATE TABLE IF NOT EXISTS cart_items (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  variant_id TEXT,
  qty INTEGER NOT NULL,
  unit_price_paise INTEGER NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, `
CREATE UNIQUE INDEX IF NOT EXISTS idx_cart_items_line
  ON cart_items (cart_id, product_id, COALESCE(variant_id, '00000000-0000-0000-0000-000000000000'));`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func newCartTestService(t *testing.T) (Service, *Repository, *gorm.DB) {
	t.Helper()
	db := setupCartTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(ServiceParams{
		Repo:    repo,
		Catalog: products.NewRepository(db),
	})
	require.NoError(t, err)
	return svc, repo, db
}

func seedCartProduct(t *testing.T, db *gorm.DB, title string, pricePaise, stock int) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:         uuid.New(),
		Title:      title,
		Slug:       fmt.Sprintf("%s-%s", title, uuid.NewString()[:8]),
		Category:   "groceries",
		PricePaise: pricePaise,
		StockQty:   stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func seedCartVariant(t *testing.T, db *gorm.DB, productID uuid.UUID, label string, pricePaise, stock int) *models.ProductVariant {
	t.Helper()
	variant := &models.ProductVariant{
		ID:         uuid.New(),
		ProductID:  productID,
		Label:      label,
		PricePaise: pricePaise,
		StockQty:   stock,
		IsActive:   true,
	}
	require.NoError(t, db.Create(variant).Error)
	return variant
}

func assertCartErrCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, code, typed.Code())
}

func TestCartGetWithoutCartIsEmpty(t *testing.T) {
	svc, _, _ := newCartTestService(t)

	out, err := svc.Get(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, out.ID)
	assert.Empty(t, out.Items)
	assert.Zero(t, out.SubtotalPaise)
}

func TestCartAddItemCreatesAndMergesLines(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Basmati Rice", 19900, 10)

	out, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 2})
	require.NoError(t, err)
	require.NotNil(t, out.ID)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 2, out.Items[0].Qty)
	assert.Equal(t, 39800, out.SubtotalPaise)

	// Adding the same product again merges into the existing line.
	again, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 3})
	require.NoError(t, err)
	require.Len(t, again.Items, 1)
	assert.Equal(t, 5, again.Items[0].Qty)
	assert.Equal(t, *out.ID, *again.ID)
	assert.Equal(t, 5, again.TotalQty)
}

func TestCartAddItemWithVariantPricing(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Masala Chai", 24900, 5)
	variant := seedCartVariant(t, db, product.ID, "1kg", 89900, 3)

	out, err := svc.AddItem(ctx, userID, AddItemInput{
		ProductID: product.ID,
		VariantID: &variant.ID,
		Qty:       2,
	})
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.Equal(t, 89900, out.Items[0].UnitPricePaise)
	assert.Equal(t, 179800, out.SubtotalPaise)
	require.NotNil(t, out.Items[0].VariantLabel)
	assert.Equal(t, "1kg", *out.Items[0].VariantLabel)

	// The same product without a variant is a separate line.
	out, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 1})
	require.NoError(t, err)
	assert.Len(t, out.Items, 2)

	// A variant from another product is rejected.
	other := seedCartProduct(t, db, "Green Tea", 15000, 5)
	_, err = svc.AddItem(ctx, userID, AddItemInput{
		ProductID: other.ID,
		VariantID: &variant.ID,
		Qty:       1,
	})
	assertCartErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestCartAddItemGuardsStockAndActive(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Jaggery", 9900, 3)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 4})
	assertCartErrCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 2})
	require.NoError(t, err)

	// Merging past the stock ceiling is rejected too.
	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 2})
	assertCartErrCode(t, err, pkgerrors.CodeValidation)

	inactive := seedCartProduct(t, db, "Old Stock", 5000, 10)
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", inactive.ID).Update("is_active", false).Error)
	_, err = svc.AddItem(ctx, userID, AddItemInput{ProductID: inactive.ID, Qty: 1})
	assertCartErrCode(t, err, pkgerrors.CodeValidation)
}

func TestCartUpdateItemQtyZeroDeletes(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Ghee", 54900, 10)

	out, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 2})
	require.NoError(t, err)
	itemID := out.Items[0].ID

	out, err = svc.UpdateItem(ctx, userID, itemID, UpdateItemInput{Qty: 5})
	require.NoError(t, err)
	assert.Equal(t, 5, out.Items[0].Qty)

	_, err = svc.UpdateItem(ctx, userID, itemID, UpdateItemInput{Qty: 11})
	assertCartErrCode(t, err, pkgerrors.CodeValidation)

	out, err = svc.UpdateItem(ctx, userID, itemID, UpdateItemInput{Qty: 0})
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = svc.UpdateItem(ctx, userID, itemID, UpdateItemInput{Qty: 1})
	assertCartErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestCartRemoveItem(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Turmeric", 7900, 10)

	out, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 1})
	require.NoError(t, err)

	out, err = svc.RemoveItem(ctx, userID, out.Items[0].ID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	_, err = svc.RemoveItem(ctx, userID, uuid.New())
	assertCartErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestCartClearIsIdempotent(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Poha", 4900, 10)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 3})
	require.NoError(t, err)

	require.NoError(t, svc.Clear(ctx, userID))
	out, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, out.Items)

	// Clearing a user with no cart is a no-op.
	require.NoError(t, svc.Clear(ctx, uuid.New()))
}

func TestCartGetRepricesFromLiveCatalog(t *testing.T) {
	svc, _, db := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()
	product := seedCartProduct(t, db, "Coffee", 30000, 10)

	_, err := svc.AddItem(ctx, userID, AddItemInput{ProductID: product.ID, Qty: 2})
	require.NoError(t, err)

	// A price change after the add shows up on the next read.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("price_paise", 25000).Error)
	out, err := svc.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25000, out.Items[0].UnitPricePaise)
	assert.Equal(t, 50000, out.SubtotalPaise)
	assert.True(t, out.Items[0].Available)

	// Deactivation flags the line instead of dropping it.
	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", product.ID).Update("is_active", false).Error)
	out, err = svc.Get(ctx, userID)
	require.NoError(t, err)
	require.Len(t, out.Items, 1)
	assert.False(t, out.Items[0].Available)
	assert.False(t, out.Items[0].InStock)
}

func TestCartRepositoryMarkConvertedOnce(t *testing.T) {
	_, repo, _ := newCartTestService(t)
	ctx := context.Background()
	userID := uuid.New()

	record, err := repo.CreateActive(ctx, userID)
	require.NoError(t, err)

	ok, err := repo.MarkConverted(ctx, record.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkConverted(ctx, record.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// A converted cart no longer surfaces as active.
	_, err = repo.FindActiveByUserID(ctx, userID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
