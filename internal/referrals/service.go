package referrals

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/users"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

const defaultLeaderboardSize = 10

// ServiceParams groups dependencies for the referral service.
type ServiceParams struct {
	Repo   *Repository
	Users  *users.Repository
	Wallet *wallet.Repository
	Config config.ReferralConfig
	Logger *logger.Logger
}

// Service backs the referral panel and the public leaderboard.
type Service interface {
	MyCode(ctx context.Context, userID uuid.UUID) (MyCodeDTO, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntryDTO, error)
}

type service struct {
	repo   *Repository
	users  *users.Repository
	wallet *wallet.Repository
	cfg    config.ReferralConfig
	logg   *logger.Logger
}

// NewService builds a referral service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "referrals repo is required")
	}
	if params.Users == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "users repo is required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	return &service{
		repo:   params.Repo,
		users:  params.Users,
		wallet: params.Wallet,
		cfg:    params.Config,
		logg:   params.Logger,
	}, nil
}

func (s *service) MyCode(ctx context.Context, userID uuid.UUID) (MyCodeDTO, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MyCodeDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return MyCodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	referred, err := s.repo.CountReferred(ctx, userID)
	if err != nil {
		return MyCodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count referrals")
	}
	coins, err := s.repo.ReferralCoins(ctx, userID)
	if err != nil {
		return MyCodeDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum referral coins")
	}

	return MyCodeDTO{
		ReferralCode:     user.ReferralCode,
		ReferredCount:    referred,
		CoinsEarned:      coins,
		BonusPerReferral: s.cfg.BonusCoins,
	}, nil
}

// Leaderboard ranks users by coins earned from referral bonuses. Ties keep
// the aggregation order; wallets whose user has vanished are skipped.
func (s *service) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntryDTO, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultLeaderboardSize
	}

	earners, err := s.wallet.TopEarners(ctx, enums.WalletTxnReferralBonus, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rank referrers")
	}

	walletIDs := make([]uuid.UUID, 0, len(earners))
	for _, row := range earners {
		walletIDs = append(walletIDs, row.WalletID)
	}
	owners, err := s.repo.WalletOwners(ctx, walletIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve wallet owners")
	}

	entries := make([]LeaderboardEntryDTO, 0, len(earners))
	for _, row := range earners {
		owner, ok := owners[row.WalletID]
		if !ok {
			continue
		}
		entries = append(entries, LeaderboardEntryDTO{
			Rank:      len(entries) + 1,
			UserID:    owner.UserID,
			Name:      owner.Name,
			Referrals: row.Events,
			Coins:     row.Coins,
		})
	}
	return entries, nil
}
