package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	usersvc "github.com/indiramart/storefront-backend/internal/users"
)

func TestAdminListUsersForwardsSearch(t *testing.T) {
	handler := AdminListUsers(stubUserService{
		listFn: func(ctx context.Context, filter usersvc.ListFilter, cursor string, limit int) (usersvc.UserPageDTO, error) {
			if filter.Search != "asha" {
				t.Fatalf("unexpected search %q", filter.Search)
			}
			return usersvc.UserPageDTO{
				Items: []usersvc.UserDTO{{ID: uuid.New(), Name: "Asha", IsActive: true}},
			}, nil
		},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/users?search=asha", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data usersvc.UserPageDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Items) != 1 {
		t.Fatalf("unexpected item count %d", len(envelope.Data.Items))
	}
}

func TestAdminSetUserActiveDisables(t *testing.T) {
	userID := uuid.New()
	handler := AdminSetUserActive(stubUserService{
		setActiveFn: func(ctx context.Context, id uuid.UUID, active bool) (usersvc.UserDTO, error) {
			if id != userID {
				t.Fatalf("unexpected user id %s", id)
			}
			if active {
				t.Fatal("expected a disable request")
			}
			return usersvc.UserDTO{ID: id, IsActive: false}, nil
		},
	}, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/active", `{"isActive":false}`, uuid.New())
	req = withURLParam(req, "userID", userID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestAdminSetUserActiveRequiresBody(t *testing.T) {
	userID := uuid.New()
	handler := AdminSetUserActive(stubUserService{}, nil)

	req := authedRequest(http.MethodPatch, "/api/v1/admin/users/"+userID.String()+"/active", `{}`, uuid.New())
	req = withURLParam(req, "userID", userID.String())
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
