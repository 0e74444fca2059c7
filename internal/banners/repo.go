package banners

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
)

// Repository manages banner persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository returns a banner repository bound to the provided database.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Banner, error) {
	var banner models.Banner
	if err := r.db.WithContext(ctx).First(&banner, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &banner, nil
}

// ListAll returns every banner in display order, for the admin console.
func (r *Repository) ListAll(ctx context.Context) ([]models.Banner, error) {
	var banners []models.Banner
	err := r.db.WithContext(ctx).
		Order("position ASC, created_at ASC").
		Find(&banners).Error
	return banners, err
}

// ListActive returns the visible banners in display order, for the
// storefront hero strip.
func (r *Repository) ListActive(ctx context.Context) ([]models.Banner, error) {
	var banners []models.Banner
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("position ASC, created_at ASC").
		Find(&banners).Error
	return banners, err
}

// NextPosition returns the position for an appended banner.
func (r *Repository) NextPosition(ctx context.Context) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).
		Model(&models.Banner{}).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return 1, nil
	}
	return *max + 1, nil
}

func (r *Repository) Create(ctx context.Context, banner *models.Banner) error {
	if banner.ID == uuid.Nil {
		banner.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(banner).Error
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Banner{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Banner{}, "id = ?", id)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetPosition rewrites one banner's display position.
func (r *Repository) SetPosition(ctx context.Context, id uuid.UUID, position int) error {
	return r.db.WithContext(ctx).
		Model(&models.Banner{}).
		Where("id = ?", id).
		Update("position", position).Error
}
