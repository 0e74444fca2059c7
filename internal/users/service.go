package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/wallet"
	pkgAuth "github.com/indiramart/storefront-backend/pkg/auth"
	"github.com/indiramart/storefront-backend/pkg/auth/session"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/security"
)

const referralCodeAttempts = 5

// Sessions is the refresh-session surface the service needs.
type Sessions interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams groups dependencies for the user service.
type ServiceParams struct {
	Repo       *Repository
	WalletRepo *wallet.Repository
	Wallet     wallet.Service
	DB         db.TxRunner
	Sessions   Sessions
	JWT        config.JWTConfig
	Password   config.PasswordConfig
	Referral   config.ReferralConfig
	Logger     *logger.Logger
}

// Service covers registration, login, refresh sessions and the admin user
// surface.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (AuthDTO, error)
	Login(ctx context.Context, input LoginInput) (AuthDTO, error)
	Refresh(ctx context.Context, input RefreshInput) (AuthDTO, error)
	Logout(ctx context.Context, accessID string) error
	Me(ctx context.Context, userID uuid.UUID) (UserDTO, error)
	List(ctx context.Context, filter ListFilter, cursor string, limit int) (UserPageDTO, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (UserDTO, error)
}

type service struct {
	repo       *Repository
	walletRepo *wallet.Repository
	wallet     wallet.Service
	db         db.TxRunner
	sessions   Sessions
	jwt        config.JWTConfig
	password   config.PasswordConfig
	referral   config.ReferralConfig
	logg       *logger.Logger
}

// NewService builds a user service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user repo is required")
	}
	if params.WalletRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet service is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	if params.Sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session manager is required")
	}
	return &service{
		repo:       params.Repo,
		walletRepo: params.WalletRepo,
		wallet:     params.Wallet,
		db:         params.DB,
		sessions:   params.Sessions,
		jwt:        params.JWT,
		password:   params.Password,
		referral:   params.Referral,
		logg:       params.Logger,
	}, nil
}

// Register creates the account, its wallet and the referrer's bonus in one
// transaction, then issues a token pair.
func (s *service) Register(ctx context.Context, input RegisterInput) (AuthDTO, error) {
	email := normalizeEmail(input.Email)

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return AuthDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check email")
	}

	var referrer *models.User
	if code := strings.ToUpper(strings.TrimSpace(input.ReferralCode)); code != "" {
		found, err := s.repo.FindByReferralCode(ctx, code)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return AuthDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid referral code")
			}
			return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check referral code")
		}
		if !found.IsActive {
			return AuthDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid referral code")
		}
		referrer = found
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	referralCode, err := s.uniqueReferralCode(ctx)
	if err != nil {
		return AuthDTO{}, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         enums.UserRoleCustomer,
		ReferralCode: referralCode,
		IsActive:     true,
	}
	if referrer != nil {
		user.ReferredBy = &referrer.ID
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, user); err != nil {
			if pkgerrors.IsUniqueViolation(err, "") {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "an account with this email already exists")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
		}
		if _, err := s.walletRepo.WithTx(tx).Create(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create wallet")
		}
		if referrer != nil && s.referral.BonusCoins > 0 {
			note := "referral signup bonus"
			if err := s.wallet.CreditInTx(ctx, tx, referrer.ID, nil, enums.WalletTxnReferralBonus, s.referral.BonusCoins, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return AuthDTO{}, err
	}

	return s.issueTokens(ctx, user)
}

// Login verifies credentials and opens a refresh session. Unknown emails and
// wrong passwords fail identically.
func (s *service) Login(ctx context.Context, input LoginInput) (AuthDTO, error) {
	user, err := s.repo.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
		}
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return AuthDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
	}
	if !user.IsActive {
		return AuthDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	return s.issueTokens(ctx, user)
}

// Refresh rotates the session named by the (possibly expired) access token.
func (s *service) Refresh(ctx context.Context, input RefreshInput) (AuthDTO, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwt, input.AccessToken)
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token")
	}

	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return AuthDTO{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
		}
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	if !user.IsActive {
		return AuthDTO{}, pkgerrors.New(pkgerrors.CodeForbidden, "account is disabled")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, input.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
		}
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	access, err := pkgAuth.MintAccessToken(s.jwt, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    newAccessID,
	})
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	return AuthDTO{User: toDTO(user), AccessToken: access, RefreshToken: newRefresh}, nil
}

// Logout revokes the refresh session tied to the access token's jti.
func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) Me(ctx context.Context, userID uuid.UUID) (UserDTO, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return UserDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return toDTO(user), nil
}

func (s *service) List(ctx context.Context, filter ListFilter, cursor string, limit int) (UserPageDTO, error) {
	rows, nextCursor, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return UserPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	items := make([]UserDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toDTO(&rows[i]))
	}
	return UserPageDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) SetActive(ctx context.Context, id uuid.UUID, active bool) (UserDTO, error) {
	updated, err := s.repo.SetActive(ctx, id, active)
	if err != nil {
		return UserDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update user")
	}
	if !updated {
		return UserDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
	}
	return s.Me(ctx, id)
}

func (s *service) issueTokens(ctx context.Context, user *models.User) (AuthDTO, error) {
	accessID := session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(s.jwt, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID: user.ID,
		Role:   user.Role,
		JTI:    accessID,
	})
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return AuthDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open session")
	}

	return AuthDTO{User: toDTO(user), AccessToken: access, RefreshToken: refresh}, nil
}

// uniqueReferralCode draws codes until one is unused. The charset keeps the
// search space large enough that a handful of attempts always suffices.
func (s *service) uniqueReferralCode(ctx context.Context) (string, error) {
	length := s.referral.CodeLength
	if length <= 0 {
		length = 8
	}
	for attempt := 0; attempt < referralCodeAttempts; attempt++ {
		code, err := security.GenerateReferralCode(length)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate referral code")
		}
		_, err = s.repo.FindByReferralCode(ctx, code)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check referral code")
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "could not allocate a referral code")
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func toDTO(user *models.User) UserDTO {
	return UserDTO{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		Role:         user.Role,
		ReferralCode: user.ReferralCode,
		IsActive:     user.IsActive,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}
