package banners

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the banner service.
type ServiceParams struct {
	Repo   *Repository
	DB     db.TxRunner
	Logger *logger.Logger
}

// Service backs the storefront banner strip and the admin banner console.
type Service interface {
	ListActive(ctx context.Context) ([]BannerDTO, error)
	ListAll(ctx context.Context) ([]BannerDTO, error)
	Get(ctx context.Context, id uuid.UUID) (BannerDTO, error)
	Create(ctx context.Context, input CreateBannerInput) (BannerDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBannerInput) (BannerDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Reorder(ctx context.Context, input ReorderInput) ([]BannerDTO, error)
}

type service struct {
	repo *Repository
	db   db.TxRunner
	logg *logger.Logger
}

// NewService builds a banner service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "banner repo is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	return &service{repo: params.Repo, db: params.DB, logg: params.Logger}, nil
}

func (s *service) ListActive(ctx context.Context) ([]BannerDTO, error) {
	rows, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return toDTOs(rows), nil
}

func (s *service) ListAll(ctx context.Context) ([]BannerDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
	}
	return toDTOs(rows), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (BannerDTO, error) {
	banner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return BannerDTO{}, bannerLoadError(err)
	}
	return toDTO(banner), nil
}

func (s *service) Create(ctx context.Context, input CreateBannerInput) (BannerDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return BannerDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "banner title is required")
	}

	banner := &models.Banner{
		Title:    title,
		ImageURL: strings.TrimSpace(input.ImageURL),
		LinkURL:  input.LinkURL,
		IsActive: true,
	}
	if input.IsActive != nil {
		banner.IsActive = *input.IsActive
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		position, err := repo.NextPosition(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "next banner position")
		}
		banner.Position = position
		if err := repo.Create(ctx, banner); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create banner")
		}
		return nil
	})
	if err != nil {
		return BannerDTO{}, err
	}
	return toDTO(banner), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBannerInput) (BannerDTO, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return BannerDTO{}, bannerLoadError(err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return BannerDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "banner title is required")
		}
		updates["title"] = title
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}
	if input.LinkURL != nil {
		updates["link_url"] = *input.LinkURL
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) > 0 {
		if err := s.repo.Update(ctx, id, updates); err != nil {
			return BannerDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update banner")
		}
	}

	banner, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return BannerDTO{}, bannerLoadError(err)
	}
	return toDTO(banner), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete banner")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return nil
}

// Reorder rewrites the display order from the full id list. The list must
// be a permutation of every banner, so admins cannot silently drop one.
func (s *service) Reorder(ctx context.Context, input ReorderInput) ([]BannerDTO, error) {
	requested := make(map[uuid.UUID]struct{}, len(input.BannerIDs))
	for _, id := range input.BannerIDs {
		if _, dup := requested[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate banner id in order").
				WithDetails(map[string]any{"bannerId": id})
		}
		requested[id] = struct{}{}
	}

	var reordered []models.Banner
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		existing, err := repo.ListAll(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
		}
		if len(existing) != len(input.BannerIDs) {
			return pkgerrors.New(pkgerrors.CodeValidation, "order must include every banner exactly once")
		}
		for i := range existing {
			if _, ok := requested[existing[i].ID]; !ok {
				return pkgerrors.New(pkgerrors.CodeValidation, "order must include every banner exactly once")
			}
		}
		for i, id := range input.BannerIDs {
			if err := repo.SetPosition(ctx, id, i+1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set banner position")
			}
		}
		reordered, err = repo.ListAll(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list banners")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTOs(reordered), nil
}

func bannerLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "banner not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load banner")
}

func toDTO(banner *models.Banner) BannerDTO {
	return BannerDTO{
		ID:        banner.ID,
		Title:     banner.Title,
		ImageURL:  banner.ImageURL,
		LinkURL:   banner.LinkURL,
		Position:  banner.Position,
		IsActive:  banner.IsActive,
		CreatedAt: banner.CreatedAt,
		UpdatedAt: banner.UpdatedAt,
	}
}

func toDTOs(rows []models.Banner) []BannerDTO {
	dtos := make([]BannerDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, toDTO(&rows[i]))
	}
	return dtos
}
