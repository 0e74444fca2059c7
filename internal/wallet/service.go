package wallet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/types"
)

// ServiceParams groups dependencies for the wallet service.
type ServiceParams struct {
	Repo   *Repository
	DB     db.TxRunner
	Config config.WalletConfig
	Logger *logger.Logger
}

// Service exposes the Indira Coins balance, discount math and redemption.
type Service interface {
	Balance(ctx context.Context, userID uuid.UUID) (BalanceDTO, error)
	CalculateDiscount(ctx context.Context, userID uuid.UUID, input CalculateDiscountInput) (CalculateDiscountDTO, error)
	Redeem(ctx context.Context, userID uuid.UUID, input RedeemInput) (RedeemDTO, error)
	RedeemInTx(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, orderValuePaise, coins int) (int, error)
	CreditInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID *uuid.UUID, txnType enums.WalletTransactionType, coins int, note string) error
	Transactions(ctx context.Context, userID uuid.UUID, cursor string, limit int) (TransactionsPageDTO, error)
	RewardCoinsFor(totalPaise int) int
}

type service struct {
	repo *Repository
	db   db.TxRunner
	cfg  config.WalletConfig
	logg *logger.Logger
}

// NewService builds a wallet service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	if params.Config.CoinValuePaise <= 0 || params.Config.CoinStep <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet config is invalid")
	}
	return &service{
		repo: params.Repo,
		db:   params.DB,
		cfg:  params.Config,
		logg: params.Logger,
	}, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (BalanceDTO, error) {
	w, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return BalanceDTO{}, walletLoadError(err)
	}
	return toBalanceDTO(w), nil
}

// CalculateDiscount derives how many coins can be applied to an order.
// A zero balance yields an empty quote, not an error: the client renders
// the slider disabled.
func (s *service) CalculateDiscount(ctx context.Context, userID uuid.UUID, input CalculateDiscountInput) (CalculateDiscountDTO, error) {
	if err := ctx.Err(); err != nil {
		return CalculateDiscountDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "request cancelled")
	}

	w, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return CalculateDiscountDTO{}, walletLoadError(err)
	}

	limits := s.limitsFor(input.OrderValuePaise, w.BalanceCoins)

	coins := limits.MaxCoins
	if input.CoinsToUse != nil {
		coins = s.clamp(*input.CoinsToUse, limits.MaxCoins)
	}

	dto := CalculateDiscountDTO{
		CoinsUsed:           coins,
		DiscountAmountPaise: coins * s.cfg.CoinValuePaise,
		Limits:              limits,
	}

	if limits.MaxCoins > 0 {
		dto.Suggestions.Optimal = &types.DiscountSuggestion{
			Coins:          limits.MaxCoins,
			DiscountAmount: limits.MaxCoins * s.cfg.CoinValuePaise,
		}
		if half := s.roundDownToStep(limits.MaxCoins / 2); half > 0 && half != limits.MaxCoins {
			dto.Suggestions.Alternative = &types.DiscountSuggestion{
				Coins:          half,
				DiscountAmount: half * s.cfg.CoinValuePaise,
			}
		}
	}

	return dto, nil
}

// Redeem debits coins for an order in its own transaction. The ledger's
// per-order uniqueness makes a second redemption for the same order fail
// with a conflict instead of double-spending.
func (s *service) Redeem(ctx context.Context, userID uuid.UUID, input RedeemInput) (RedeemDTO, error) {
	var out RedeemDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		discount, err := s.RedeemInTx(ctx, tx, userID, input.OrderID, input.OrderValuePaise, input.CoinsToRedeem)
		if err != nil {
			return err
		}

		w, err := s.repo.WithTx(tx).FindByUserID(ctx, userID)
		if err != nil {
			return walletLoadError(err)
		}
		out = RedeemDTO{
			CoinsRedeemed:       input.CoinsToRedeem,
			DiscountAmountPaise: discount,
			Wallet:              toBalanceDTO(w),
		}
		return nil
	})
	if err != nil {
		return RedeemDTO{}, err
	}
	return out, nil
}

// RedeemInTx validates and debits coins inside the caller's transaction and
// returns the discount in paise. Checkout uses this so a failed order leaves
// no debit behind.
func (s *service) RedeemInTx(ctx context.Context, tx *gorm.DB, userID, orderID uuid.UUID, orderValuePaise, coins int) (int, error) {
	if coins <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coins must be positive")
	}
	if coins%s.cfg.CoinStep != 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coins must be a multiple of the step").
			WithDetails(map[string]any{"step": s.cfg.CoinStep})
	}
	if orderValuePaise <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order value must be positive")
	}

	repo := s.repo.WithTx(tx)

	redeemed, err := repo.HasOrderTransaction(ctx, orderID, enums.WalletTxnRedeem)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger")
	}
	if redeemed {
		return 0, pkgerrors.New(pkgerrors.CodeConflict, "coins already redeemed for this order")
	}

	w, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		return 0, walletLoadError(err)
	}

	maxCoins := s.maxCoinsByCap(orderValuePaise)
	if coins > maxCoins {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coins exceed the order discount cap").
			WithDetails(map[string]any{"maxCoins": maxCoins})
	}

	ok, err := repo.Debit(ctx, w.ID, coins)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "debit wallet")
	}
	if !ok {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "insufficient coin balance").
			WithDetails(map[string]any{"balance": w.BalanceCoins})
	}

	txn := &models.WalletTransaction{
		WalletID:   w.ID,
		OrderID:    &orderID,
		Type:       enums.WalletTxnRedeem,
		CoinsDelta: -coins,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		if pkgerrors.IsUniqueViolation(err, "idx_wallet_transactions_order_type") {
			return 0, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coins already redeemed for this order")
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write ledger")
	}

	return coins * s.cfg.CoinValuePaise, nil
}

// CreditInTx credits coins with a ledger row inside the caller's
// transaction. Order-scoped credits are exactly-once: a duplicate surfaces
// as a conflict the caller can treat as already applied.
func (s *service) CreditInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderID *uuid.UUID, txnType enums.WalletTransactionType, coins int, note string) error {
	if coins <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "coins must be positive")
	}

	repo := s.repo.WithTx(tx)

	if orderID != nil {
		credited, err := repo.HasOrderTransaction(ctx, *orderID, txnType)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check ledger")
		}
		if credited {
			return pkgerrors.New(pkgerrors.CodeConflict, "coins already credited for this order")
		}
	}

	w, err := repo.FindByUserID(ctx, userID)
	if err != nil {
		return walletLoadError(err)
	}

	txn := &models.WalletTransaction{
		WalletID:   w.ID,
		OrderID:    orderID,
		Type:       txnType,
		CoinsDelta: coins,
	}
	if note != "" {
		txn.Note = &note
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		if pkgerrors.IsUniqueViolation(err, "idx_wallet_transactions_order_type") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coins already credited for this order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write ledger")
	}

	if txnType == enums.WalletTxnRedeemReversal {
		if err := repo.CreditReversal(ctx, w.ID, coins); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
		}
		return nil
	}
	if err := repo.Credit(ctx, w.ID, coins); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "credit wallet")
	}
	return nil
}

func (s *service) Transactions(ctx context.Context, userID uuid.UUID, cursor string, limit int) (TransactionsPageDTO, error) {
	w, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		return TransactionsPageDTO{}, walletLoadError(err)
	}

	rows, nextCursor, err := s.repo.ListTransactions(ctx, w.ID, cursor, limit)
	if err != nil {
		return TransactionsPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	items := make([]TransactionDTO, 0, len(rows))
	for _, row := range rows {
		items = append(items, TransactionDTO{
			ID:         row.ID,
			Type:       row.Type,
			CoinsDelta: row.CoinsDelta,
			OrderID:    row.OrderID,
			Note:       row.Note,
			CreatedAt:  row.CreatedAt,
		})
	}
	return TransactionsPageDTO{Items: items, NextCursor: nextCursor}, nil
}

// RewardCoinsFor converts an order total into the coins earned on delivery.
func (s *service) RewardCoinsFor(totalPaise int) int {
	if totalPaise <= 0 || s.cfg.RewardPercent <= 0 {
		return 0
	}
	reward := decimal.NewFromInt(int64(totalPaise)).
		Mul(decimal.NewFromInt(int64(s.cfg.RewardPercent))).
		Div(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.cfg.CoinValuePaise))).
		Floor()
	return int(reward.IntPart())
}

func (s *service) limitsFor(orderValuePaise, balanceCoins int) types.DiscountLimits {
	maxCoins := s.maxCoinsByCap(orderValuePaise)
	if balanceCoins < maxCoins {
		maxCoins = balanceCoins
	}
	maxCoins = s.roundDownToStep(maxCoins)
	return types.DiscountLimits{
		MaxCoins:       maxCoins,
		MaxDiscount:    maxCoins * s.cfg.CoinValuePaise,
		CoinValuePaise: s.cfg.CoinValuePaise,
		Step:           s.cfg.CoinStep,
	}
}

// maxCoinsByCap is the cap-derived ceiling regardless of balance.
func (s *service) maxCoinsByCap(orderValuePaise int) int {
	capPaise := decimal.NewFromInt(int64(orderValuePaise)).
		Mul(decimal.NewFromInt(int64(s.cfg.MaxDiscountPercent))).
		Div(decimal.NewFromInt(100)).
		Floor()
	coins := capPaise.Div(decimal.NewFromInt(int64(s.cfg.CoinValuePaise))).Floor()
	return s.roundDownToStep(int(coins.IntPart()))
}

func (s *service) clamp(coins, maxCoins int) int {
	if coins < 0 {
		coins = 0
	}
	if coins > maxCoins {
		coins = maxCoins
	}
	return s.roundDownToStep(coins)
}

func (s *service) roundDownToStep(coins int) int {
	if coins < 0 {
		return 0
	}
	return coins - coins%s.cfg.CoinStep
}

func toBalanceDTO(w *models.Wallet) BalanceDTO {
	return BalanceDTO{
		BalanceCoins:     w.BalanceCoins,
		TotalEarnedCoins: w.TotalEarnedCoins,
		TotalSpentCoins:  w.TotalSpentCoins,
	}
}

func walletLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wallet")
}
