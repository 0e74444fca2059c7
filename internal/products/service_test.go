package products

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	svc, err := NewService(ServiceParams{Repo: repo})
	require.NoError(t, err)
	return svc, repo
}

func TestServiceCreateAndGet(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Title:      "Masala Chai",
		Slug:       "Masala-Chai",
		Category:   "beverages",
		PricePaise: 24900,
		StockQty:   10,
		Variants: []CreateVariantInput{
			{Label: "250g", PricePaise: 24900, StockQty: 10},
			{Label: "1kg", PricePaise: 89900, StockQty: 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "masala-chai", created.Slug)
	assert.True(t, created.InStock)
	assert.Len(t, created.Variants, 2)

	fetched, err := svc.GetBySlug(ctx, "masala-chai")
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestServiceGetBySlugHidesInactive(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Create(ctx, CreateProductInput{
		Title:      "Retired",
		Slug:       "retired",
		Category:   "misc",
		PricePaise: 100,
		IsActive:   &inactive,
	})
	require.NoError(t, err)

	_, err = svc.GetBySlug(ctx, "retired")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceUpdatePartial(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Title:      "Jaggery",
		Slug:       "jaggery",
		Category:   "sweeteners",
		PricePaise: 15000,
		StockQty:   5,
	})
	require.NoError(t, err)

	newPrice := 16000
	updated, err := svc.Update(ctx, created.ID, UpdateProductInput{PricePaise: &newPrice})
	require.NoError(t, err)
	assert.Equal(t, 16000, updated.PricePaise)
	assert.Equal(t, "Jaggery", updated.Title)
}

func TestServiceInStockFollowsVariants(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateProductInput{
		Title:      "Pickle",
		Slug:       "pickle",
		Category:   "condiments",
		PricePaise: 9900,
		StockQty:   100, // ignored once variants exist
		Variants: []CreateVariantInput{
			{Label: "200g", PricePaise: 9900, StockQty: 0},
		},
	})
	require.NoError(t, err)
	assert.False(t, created.InStock, "variant-backed product with no variant stock is out of stock")

	withStock, err := svc.AddVariant(ctx, created.ID, CreateVariantInput{Label: "500g", PricePaise: 19900, StockQty: 3})
	require.NoError(t, err)
	assert.True(t, withStock.InStock)
}

func TestServiceRemoveVariantChecksOwnership(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateProductInput{
		Title: "A", Slug: "prod-a", Category: "misc", PricePaise: 100,
		Variants: []CreateVariantInput{{Label: "x", PricePaise: 100}},
	})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateProductInput{
		Title: "B", Slug: "prod-b", Category: "misc", PricePaise: 100,
	})
	require.NoError(t, err)

	err = svc.RemoveVariant(ctx, second.ID, first.Variants[0].ID)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceListInactiveOnlyForAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	inactive := false
	_, err := svc.Create(ctx, CreateProductInput{Title: "Live", Slug: "live", Category: "misc", PricePaise: 100})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	_, err = svc.Create(ctx, CreateProductInput{Title: "Draft", Slug: "draft", Category: "misc", PricePaise: 100, IsActive: &inactive})
	require.NoError(t, err)

	page, err := svc.List(ctx, ListFilter{}, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)

	page, err = svc.List(ctx, ListFilter{IncludeInactive: true}, "", 10)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
}
