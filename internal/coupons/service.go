package coupons

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the coupon service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// Service validates storefront coupon codes and backs the admin CRUD.
type Service interface {
	Validate(ctx context.Context, userID *uuid.UUID, input ValidateInput) (ValidationDTO, error)
	ValidateInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, orderValuePaise int, categories []string) (ValidationDTO, error)
	RecordRedemptionInTx(ctx context.Context, tx *gorm.DB, couponID, userID, orderID uuid.UUID) error
	List(ctx context.Context, cursor string, limit int) (CouponPageDTO, error)
	Get(ctx context.Context, id uuid.UUID) (CouponDTO, error)
	Create(ctx context.Context, input CreateCouponInput) (CouponDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (CouponDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds a coupon service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupon repo is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Validate answers the storefront's "does this code work for my cart total"
// question. It never consumes usage; checkout re-validates and records.
func (s *service) Validate(ctx context.Context, userID *uuid.UUID, input ValidateInput) (ValidationDTO, error) {
	coupon, err := s.lookup(ctx, s.repo, input.Code)
	if err != nil {
		return ValidationDTO{}, err
	}
	discount, err := s.deriveDiscount(ctx, s.repo, coupon, userID, input.OrderValuePaise, nil)
	if err != nil {
		return ValidationDTO{}, err
	}
	return ValidationDTO{
		CouponID:            coupon.ID,
		Code:                coupon.Code,
		Type:                coupon.Type,
		DiscountAmountPaise: discount,
	}, nil
}

// ValidateInTx re-runs the full validation inside the checkout transaction,
// including category applicability against the cart's lines.
func (s *service) ValidateInTx(ctx context.Context, tx *gorm.DB, userID uuid.UUID, code string, orderValuePaise int, categories []string) (ValidationDTO, error) {
	repo := s.repo.WithTx(tx)
	coupon, err := s.lookup(ctx, repo, code)
	if err != nil {
		return ValidationDTO{}, err
	}
	discount, err := s.deriveDiscount(ctx, repo, coupon, &userID, orderValuePaise, categories)
	if err != nil {
		return ValidationDTO{}, err
	}
	return ValidationDTO{
		CouponID:            coupon.ID,
		Code:                coupon.Code,
		Type:                coupon.Type,
		DiscountAmountPaise: discount,
	}, nil
}

// RecordRedemptionInTx consumes one use inside the checkout transaction.
func (s *service) RecordRedemptionInTx(ctx context.Context, tx *gorm.DB, couponID, userID, orderID uuid.UUID) error {
	repo := s.repo.WithTx(tx)

	ok, err := repo.IncrementUsage(ctx, couponID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume coupon usage")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}

	redemption := &models.CouponRedemption{
		CouponID: couponID,
		UserID:   userID,
		OrderID:  orderID,
	}
	if err := repo.CreateRedemption(ctx, redemption); err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a coupon was already applied to this order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record coupon redemption")
	}
	return nil
}

func (s *service) List(ctx context.Context, cursor string, limit int) (CouponPageDTO, error) {
	rows, nextCursor, err := s.repo.List(ctx, cursor, limit)
	if err != nil {
		return CouponPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list coupons")
	}
	items := make([]CouponDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toDTO(&rows[i]))
	}
	return CouponPageDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CouponDTO{}, notFoundOrDependency(err)
	}
	return toDTO(coupon), nil
}

func (s *service) Create(ctx context.Context, input CreateCouponInput) (CouponDTO, error) {
	code := normalizeCode(input.Code)
	if code == "" {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	couponType, err := enums.ParseCouponType(input.Type)
	if err != nil {
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type")
	}
	if couponType == enums.CouponTypePercentage && input.Value > 100 {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if err := validateWindow(input.StartsAt, input.ExpiresAt); err != nil {
		return CouponDTO{}, err
	}

	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeConflict, "coupon code already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check coupon code")
	}

	active := true
	if input.IsActive != nil {
		active = *input.IsActive
	}
	coupon := &models.Coupon{
		Code:             code,
		Type:             couponType,
		Value:            input.Value,
		MinOrderPaise:    input.MinOrderPaise,
		MaxDiscountPaise: input.MaxDiscountPaise,
		UsageLimit:       input.UsageLimit,
		PerUserLimit:     input.PerUserLimit,
		Categories:       normalizeCategories(input.Categories),
		StartsAt:         input.StartsAt,
		ExpiresAt:        input.ExpiresAt,
		IsActive:         active,
	}
	if err := s.repo.Create(ctx, coupon); err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "coupon code already exists")
		}
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create coupon")
	}
	return toDTO(coupon), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateCouponInput) (CouponDTO, error) {
	coupon, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return CouponDTO{}, notFoundOrDependency(err)
	}

	if input.Type != nil {
		couponType, err := enums.ParseCouponType(*input.Type)
		if err != nil {
			return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid coupon type")
		}
		coupon.Type = couponType
	}
	if input.Value != nil {
		coupon.Value = *input.Value
	}
	if coupon.Type == enums.CouponTypePercentage && coupon.Value > 100 {
		return CouponDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "percentage value cannot exceed 100")
	}
	if input.MinOrderPaise != nil {
		coupon.MinOrderPaise = *input.MinOrderPaise
	}
	if input.MaxDiscountPaise != nil {
		coupon.MaxDiscountPaise = input.MaxDiscountPaise
	}
	if input.UsageLimit != nil {
		coupon.UsageLimit = input.UsageLimit
	}
	if input.PerUserLimit != nil {
		coupon.PerUserLimit = input.PerUserLimit
	}
	if input.Categories != nil {
		coupon.Categories = normalizeCategories(input.Categories)
	}
	if input.StartsAt != nil {
		coupon.StartsAt = input.StartsAt
	}
	if input.ExpiresAt != nil {
		coupon.ExpiresAt = input.ExpiresAt
	}
	if err := validateWindow(coupon.StartsAt, coupon.ExpiresAt); err != nil {
		return CouponDTO{}, err
	}
	if input.IsActive != nil {
		coupon.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, coupon); err != nil {
		return CouponDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update coupon")
	}
	return toDTO(coupon), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete coupon")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return nil
}

func (s *service) lookup(ctx context.Context, repo *Repository, code string) (*models.Coupon, error) {
	normalized := normalizeCode(code)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	coupon, err := repo.FindByCode(ctx, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
	}
	return coupon, nil
}

// deriveDiscount applies every eligibility rule and returns the discount
// in paise. Category rules only bind when the caller supplies the cart's
// categories.
func (s *service) deriveDiscount(ctx context.Context, repo *Repository, coupon *models.Coupon, userID *uuid.UUID, orderValuePaise int, categories []string) (int, error) {
	now := time.Now().UTC()

	if !coupon.IsActive {
		return 0, pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon is not active yet")
	}
	if coupon.ExpiresAt != nil && now.After(*coupon.ExpiresAt) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon has expired")
	}
	if orderValuePaise < coupon.MinOrderPaise {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order value below the coupon minimum").
			WithDetails(map[string]any{"minOrder": coupon.MinOrderPaise})
	}
	if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon usage limit reached")
	}
	if coupon.PerUserLimit != nil && userID != nil {
		used, err := repo.CountUserRedemptions(ctx, coupon.ID, *userID)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count coupon redemptions")
		}
		if used >= *coupon.PerUserLimit {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "you have already used this coupon")
		}
	}
	if len(coupon.Categories) > 0 && categories != nil && !overlaps(coupon.Categories, categories) {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "coupon does not apply to these items")
	}

	return discountFor(coupon, orderValuePaise), nil
}

func discountFor(coupon *models.Coupon, orderValuePaise int) int {
	switch coupon.Type {
	case enums.CouponTypePercentage:
		discount := decimal.NewFromInt(int64(orderValuePaise)).
			Mul(decimal.NewFromInt(int64(coupon.Value))).
			Div(decimal.NewFromInt(100)).
			Floor()
		amount := int(discount.IntPart())
		if coupon.MaxDiscountPaise != nil && amount > *coupon.MaxDiscountPaise {
			amount = *coupon.MaxDiscountPaise
		}
		return amount
	case enums.CouponTypeFixed:
		if coupon.Value > orderValuePaise {
			return orderValuePaise
		}
		return coupon.Value
	}
	return 0
}

func validateWindow(startsAt, expiresAt *time.Time) error {
	if startsAt != nil && expiresAt != nil && !expiresAt.After(*startsAt) {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be after the start time")
	}
	return nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func normalizeCategories(categories []string) []string {
	out := make([]string, 0, len(categories))
	for _, category := range categories {
		category = strings.ToLower(strings.TrimSpace(category))
		if category != "" {
			out = append(out, category)
		}
	}
	return out
}

func overlaps(couponCategories []string, cartCategories []string) bool {
	allowed := make(map[string]struct{}, len(couponCategories))
	for _, category := range couponCategories {
		allowed[strings.ToLower(category)] = struct{}{}
	}
	for _, category := range cartCategories {
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(category))]; ok {
			return true
		}
	}
	return false
}

func notFoundOrDependency(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "coupon not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load coupon")
}

func toDTO(coupon *models.Coupon) CouponDTO {
	return CouponDTO{
		ID:               coupon.ID,
		Code:             coupon.Code,
		Type:             coupon.Type,
		Value:            coupon.Value,
		MinOrderPaise:    coupon.MinOrderPaise,
		MaxDiscountPaise: coupon.MaxDiscountPaise,
		UsageLimit:       coupon.UsageLimit,
		UsedCount:        coupon.UsedCount,
		PerUserLimit:     coupon.PerUserLimit,
		Categories:       coupon.Categories,
		StartsAt:         coupon.StartsAt,
		ExpiresAt:        coupon.ExpiresAt,
		IsActive:         coupon.IsActive,
		CreatedAt:        coupon.CreatedAt,
		UpdatedAt:        coupon.UpdatedAt,
	}
}
