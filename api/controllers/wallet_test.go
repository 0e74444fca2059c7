package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	walletsvc "github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
)

type stubWalletService struct {
	balanceFn      func(ctx context.Context, userID uuid.UUID) (walletsvc.BalanceDTO, error)
	calculateFn    func(ctx context.Context, userID uuid.UUID, input walletsvc.CalculateDiscountInput) (walletsvc.CalculateDiscountDTO, error)
	redeemFn       func(ctx context.Context, userID uuid.UUID, input walletsvc.RedeemInput) (walletsvc.RedeemDTO, error)
	transactionsFn func(ctx context.Context, userID uuid.UUID, cursor string, limit int) (walletsvc.TransactionsPageDTO, error)
}

func (s stubWalletService) Balance(ctx context.Context, userID uuid.UUID) (walletsvc.BalanceDTO, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, userID)
	}
	return walletsvc.BalanceDTO{}, nil
}

func (s stubWalletService) CalculateDiscount(ctx context.Context, userID uuid.UUID, input walletsvc.CalculateDiscountInput) (walletsvc.CalculateDiscountDTO, error) {
	if s.calculateFn != nil {
		return s.calculateFn(ctx, userID, input)
	}
	return walletsvc.CalculateDiscountDTO{}, nil
}

func (s stubWalletService) Redeem(ctx context.Context, userID uuid.UUID, input walletsvc.RedeemInput) (walletsvc.RedeemDTO, error) {
	if s.redeemFn != nil {
		return s.redeemFn(ctx, userID, input)
	}
	return walletsvc.RedeemDTO{}, nil
}

func (s stubWalletService) RedeemInTx(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, orderValuePaise, coins int) (int, error) {
	return 0, nil
}

func (s stubWalletService) CreditInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID *uuid.UUID, txnType enums.WalletTransactionType, coins int, note string) error {
	return nil
}

func (s stubWalletService) RewardCoinsFor(totalPaise int) int {
	return 0
}

func (s stubWalletService) Transactions(ctx context.Context, userID uuid.UUID, cursor string, limit int) (walletsvc.TransactionsPageDTO, error) {
	if s.transactionsFn != nil {
		return s.transactionsFn(ctx, userID, cursor, limit)
	}
	return walletsvc.TransactionsPageDTO{}, nil
}

func TestWalletBalanceSuccess(t *testing.T) {
	userID := uuid.New()
	handler := WalletBalance(stubWalletService{
		balanceFn: func(ctx context.Context, got uuid.UUID) (walletsvc.BalanceDTO, error) {
			if got != userID {
				t.Fatalf("unexpected user id %s", got)
			}
			return walletsvc.BalanceDTO{BalanceCoins: 320, TotalEarnedCoins: 500, TotalSpentCoins: 180}, nil
		},
	}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/wallet", "", userID))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	var envelope struct {
		Data walletsvc.BalanceDTO `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.BalanceCoins != 320 {
		t.Fatalf("unexpected balance %d", envelope.Data.BalanceCoins)
	}
}

func TestWalletBalanceRequiresAuth(t *testing.T) {
	handler := WalletBalance(stubWalletService{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallet", nil)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestCalculateCoinDiscountPassesInput(t *testing.T) {
	handler := CalculateCoinDiscount(stubWalletService{
		calculateFn: func(ctx context.Context, userID uuid.UUID, input walletsvc.CalculateDiscountInput) (walletsvc.CalculateDiscountDTO, error) {
			if input.OrderValuePaise != 50000 {
				t.Fatalf("unexpected order value %d", input.OrderValuePaise)
			}
			if input.CoinsToUse == nil || *input.CoinsToUse != 100 {
				t.Fatal("expected coinsToUse to be forwarded")
			}
			return walletsvc.CalculateDiscountDTO{CoinsUsed: 100, DiscountAmountPaise: 2000}, nil
		},
	}, nil)

	body := `{"orderValue":50000,"coinsToUse":100}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/wallet/calculate-discount", body, uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestRedeemCoinsSurfacesInsufficientBalance(t *testing.T) {
	handler := RedeemCoins(stubWalletService{
		redeemFn: func(ctx context.Context, userID uuid.UUID, input walletsvc.RedeemInput) (walletsvc.RedeemDTO, error) {
			return walletsvc.RedeemDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "insufficient coin balance")
		},
	}, nil)

	body := `{"orderId":"` + uuid.NewString() + `","orderValue":50000,"coinsToRedeem":9999}`
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodPost, "/api/v1/wallet/redeem", body, uuid.New()))

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestWalletTransactionsForwardsCursor(t *testing.T) {
	handler := WalletTransactions(stubWalletService{
		transactionsFn: func(ctx context.Context, userID uuid.UUID, cursor string, limit int) (walletsvc.TransactionsPageDTO, error) {
			if cursor != "abc123" {
				t.Fatalf("unexpected cursor %q", cursor)
			}
			if limit != 10 {
				t.Fatalf("unexpected limit %d", limit)
			}
			return walletsvc.TransactionsPageDTO{
				Items: []walletsvc.TransactionDTO{{ID: uuid.New(), Type: enums.WalletTxnOrderReward, CoinsDelta: 40}},
			}, nil
		},
	}, nil)

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, authedRequest(http.MethodGet, "/api/v1/wallet/transactions?cursor=abc123&limit=10", "", uuid.New()))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}
