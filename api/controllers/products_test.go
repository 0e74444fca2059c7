package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	productsvc "github.com/indiramart/storefront-backend/internal/products"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

type stubProductService struct {
	listFn      func(ctx context.Context, filter productsvc.ListFilter, cursor string, limit int) (productsvc.ProductPageDTO, error)
	getBySlugFn func(ctx context.Context, slug string) (productsvc.ProductDTO, error)
	createFn    func(ctx context.Context, input productsvc.CreateProductInput) (productsvc.ProductDTO, error)
	deleteFn    func(ctx context.Context, id uuid.UUID) error
}

func (s stubProductService) List(ctx context.Context, filter productsvc.ListFilter, cursor string, limit int) (productsvc.ProductPageDTO, error) {
	if s.listFn != nil {
		return s.listFn(ctx, filter, cursor, limit)
	}
	return productsvc.ProductPageDTO{}, nil
}

func (s stubProductService) GetBySlug(ctx context.Context, slug string) (productsvc.ProductDTO, error) {
	if s.getBySlugFn != nil {
		return s.getBySlugFn(ctx, slug)
	}
	return productsvc.ProductDTO{}, nil
}

func (s stubProductService) GetByID(ctx context.Context, id uuid.UUID) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (s stubProductService) Create(ctx context.Context, input productsvc.CreateProductInput) (productsvc.ProductDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return productsvc.ProductDTO{}, nil
}

func (s stubProductService) Update(ctx context.Context, id uuid.UUID, input productsvc.UpdateProductInput) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (s stubProductService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s stubProductService) AddVariant(ctx context.Context, productID uuid.UUID, input productsvc.CreateVariantInput) (productsvc.ProductDTO, error) {
	return productsvc.ProductDTO{}, nil
}

func (s stubProductService) RemoveVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	return nil
}

func TestListProductsAppliesFilters(t *testing.T) {
	handler := ListProducts(stubProductService{
		listFn: func(ctx context.Context, filter productsvc.ListFilter, cursor string, limit int) (productsvc.ProductPageDTO, error) {
			if filter.Category != "pulses" {
				t.Fatalf("unexpected category %q", filter.Category)
			}
			if filter.Search != "dal" {
				t.Fatalf("unexpected search %q", filter.Search)
			}
			if filter.IncludeInactive {
				t.Fatal("public listing must not include inactive products")
			}
			if limit != 5 {
				t.Fatalf("unexpected limit %d", limit)
			}
			return productsvc.ProductPageDTO{
				Items: []productsvc.ProductDTO{{ID: uuid.New(), Title: "Toor Dal 1kg"}},
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?category=pulses&search=dal&limit=5", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data productsvc.ProductPageDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected item count %d", len(envelope.Data.Items))
	}
}

func TestListProductsRejectsOversizedLimit(t *testing.T) {
	handler := ListProducts(stubProductService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=500", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestGetProductBySlug(t *testing.T) {
	handler := GetProduct(stubProductService{
		getBySlugFn: func(ctx context.Context, slug string) (productsvc.ProductDTO, error) {
			if slug != "toor-dal-1kg" {
				t.Fatalf("unexpected slug %q", slug)
			}
			return productsvc.ProductDTO{Title: "Toor Dal 1kg", Slug: slug}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/toor-dal-1kg", nil)
	req = withURLParam(req, "slug", "toor-dal-1kg")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestGetProductNotFound(t *testing.T) {
	handler := GetProduct(stubProductService{
		getBySlugFn: func(ctx context.Context, slug string) (productsvc.ProductDTO, error) {
			return productsvc.ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/ghost", nil)
	req = withURLParam(req, "slug", "ghost")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestAdminListProductsIncludesInactive(t *testing.T) {
	handler := AdminListProducts(stubProductService{
		listFn: func(ctx context.Context, filter productsvc.ListFilter, cursor string, limit int) (productsvc.ProductPageDTO, error) {
			if !filter.IncludeInactive {
				t.Fatal("admin listing must include inactive products")
			}
			return productsvc.ProductPageDTO{}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/products", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminCreateProductReturns201(t *testing.T) {
	handler := AdminCreateProduct(stubProductService{
		createFn: func(ctx context.Context, input productsvc.CreateProductInput) (productsvc.ProductDTO, error) {
			return productsvc.ProductDTO{ID: uuid.New(), Title: input.Title}, nil
		},
	}, nil)

	body := `{"title":"Basmati Rice 5kg","slug":"basmati-rice-5kg","category":"grains","pricePaise":64900,"stockQty":30}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/admin/products", body, uuid.New()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAdminDeleteProductRejectsBadID(t *testing.T) {
	handler := AdminDeleteProduct(stubProductService{}, nil)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/products/not-a-uuid", nil)
	req = withURLParam(req, "productID", "not-a-uuid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
