package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	bannersvc "github.com/indiramart/storefront-backend/internal/banners"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

type stubBannerService struct {
	listActiveFn func(ctx context.Context) ([]bannersvc.BannerDTO, error)
	listAllFn    func(ctx context.Context) ([]bannersvc.BannerDTO, error)
	createFn     func(ctx context.Context, input bannersvc.CreateBannerInput) (bannersvc.BannerDTO, error)
	reorderFn    func(ctx context.Context, input bannersvc.ReorderInput) ([]bannersvc.BannerDTO, error)
	deleteFn     func(ctx context.Context, id uuid.UUID) error
}

func (s stubBannerService) ListActive(ctx context.Context) ([]bannersvc.BannerDTO, error) {
	if s.listActiveFn != nil {
		return s.listActiveFn(ctx)
	}
	return nil, nil
}

func (s stubBannerService) ListAll(ctx context.Context) ([]bannersvc.BannerDTO, error) {
	if s.listAllFn != nil {
		return s.listAllFn(ctx)
	}
	return nil, nil
}

func (s stubBannerService) Get(ctx context.Context, id uuid.UUID) (bannersvc.BannerDTO, error) {
	return bannersvc.BannerDTO{}, nil
}

func (s stubBannerService) Create(ctx context.Context, input bannersvc.CreateBannerInput) (bannersvc.BannerDTO, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return bannersvc.BannerDTO{}, nil
}

func (s stubBannerService) Update(ctx context.Context, id uuid.UUID, input bannersvc.UpdateBannerInput) (bannersvc.BannerDTO, error) {
	return bannersvc.BannerDTO{}, nil
}

func (s stubBannerService) Delete(ctx context.Context, id uuid.UUID) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id)
	}
	return nil
}

func (s stubBannerService) Reorder(ctx context.Context, input bannersvc.ReorderInput) ([]bannersvc.BannerDTO, error) {
	if s.reorderFn != nil {
		return s.reorderFn(ctx, input)
	}
	return nil, nil
}

func TestListBannersReturnsActiveOnly(t *testing.T) {
	handler := ListBanners(stubBannerService{
		listActiveFn: func(ctx context.Context) ([]bannersvc.BannerDTO, error) {
			return []bannersvc.BannerDTO{
				{ID: uuid.New(), Title: "Festive Sale", Position: 1, IsActive: true},
				{ID: uuid.New(), Title: "Free Delivery", Position: 2, IsActive: true},
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/banners", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data []bannersvc.BannerDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 2 {
		t.Fatalf("unexpected banner count %d", len(envelope.Data))
	}
	if envelope.Data[0].Position != 1 {
		t.Fatalf("expected display order, got position %d first", envelope.Data[0].Position)
	}
}

func TestAdminCreateBannerReturns201(t *testing.T) {
	handler := AdminCreateBanner(stubBannerService{
		createFn: func(ctx context.Context, input bannersvc.CreateBannerInput) (bannersvc.BannerDTO, error) {
			return bannersvc.BannerDTO{ID: uuid.New(), Title: input.Title, Position: 3}, nil
		},
	}, nil)

	body := `{"title":"Diwali Offers","imageUrl":"https://cdn.indiramart.example/banners/diwali.png"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/admin/banners", body, uuid.New()))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
}

func TestAdminCreateBannerRejectsBadImageURL(t *testing.T) {
	handler := AdminCreateBanner(stubBannerService{
		createFn: func(ctx context.Context, input bannersvc.CreateBannerInput) (bannersvc.BannerDTO, error) {
			t.Fatal("service must not be called for an invalid body")
			return bannersvc.BannerDTO{}, nil
		},
	}, nil)

	body := `{"title":"Diwali Offers","imageUrl":"not a url"}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/admin/banners", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminReorderBannersSurfacesIncompleteSet(t *testing.T) {
	handler := AdminReorderBanners(stubBannerService{
		reorderFn: func(ctx context.Context, input bannersvc.ReorderInput) ([]bannersvc.BannerDTO, error) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "order must include every banner exactly once")
		},
	}, nil)

	body := `{"bannerIds":["` + uuid.NewString() + `"]}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPut, "/api/v1/admin/banners/reorder", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestAdminDeleteBannerSuccess(t *testing.T) {
	bannerID := uuid.New()
	handler := AdminDeleteBanner(stubBannerService{
		deleteFn: func(ctx context.Context, id uuid.UUID) error {
			if id != bannerID {
				t.Fatalf("unexpected banner id %s", id)
			}
			return nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/banners/"+bannerID.String(), nil)
	req = withURLParam(req, "bannerID", bannerID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
