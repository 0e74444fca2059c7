package products

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the catalog service.
type ServiceParams struct {
	Repo   *Repository
	Logger *logger.Logger
}

// Service exposes catalog reads for the storefront and writes for the admin
// console.
type Service interface {
	List(ctx context.Context, filter ListFilter, cursor string, limit int) (ProductPageDTO, error)
	GetBySlug(ctx context.Context, slug string) (ProductDTO, error)
	GetByID(ctx context.Context, id uuid.UUID) (ProductDTO, error)
	Create(ctx context.Context, input CreateProductInput) (ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error)
	Delete(ctx context.Context, id uuid.UUID) error
	AddVariant(ctx context.Context, productID uuid.UUID, input CreateVariantInput) (ProductDTO, error)
	RemoveVariant(ctx context.Context, productID, variantID uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

// NewService builds a catalog service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product repo is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

func (s *service) List(ctx context.Context, filter ListFilter, cursor string, limit int) (ProductPageDTO, error) {
	rows, nextCursor, total, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return ProductPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}

	items := make([]ProductDTO, 0, len(rows))
	for i := range rows {
		items = append(items, toDTO(&rows[i]))
	}
	return ProductPageDTO{Items: items, NextCursor: nextCursor, Total: total}, nil
}

func (s *service) GetBySlug(ctx context.Context, slug string) (ProductDTO, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	product, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return ProductDTO{}, notFoundOrDependency(err, "product")
	}
	if !product.IsActive {
		return ProductDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return toDTO(product), nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ProductDTO{}, notFoundOrDependency(err, "product")
	}
	return toDTO(product), nil
}

func (s *service) Create(ctx context.Context, input CreateProductInput) (ProductDTO, error) {
	record := &models.Product{
		Title:               strings.TrimSpace(input.Title),
		Slug:                normalizeSlug(input.Slug),
		Description:         strings.TrimSpace(input.Description),
		Category:            strings.TrimSpace(input.Category),
		PricePaise:          input.PricePaise,
		CompareAtPricePaise: input.CompareAtPricePaise,
		StockQty:            input.StockQty,
		Images:              input.Images,
		IsActive:            true,
	}
	if input.IsActive != nil {
		record.IsActive = *input.IsActive
	}
	for _, v := range input.Variants {
		record.Variants = append(record.Variants, models.ProductVariant{
			Label:      strings.TrimSpace(v.Label),
			PricePaise: v.PricePaise,
			StockQty:   v.StockQty,
			IsActive:   true,
		})
	}

	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, "idx_products_slug") {
			return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "slug already in use")
		}
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	return toDTO(created), nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateProductInput) (ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ProductDTO{}, notFoundOrDependency(err, "product")
	}

	if input.Title != nil {
		product.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		product.Description = strings.TrimSpace(*input.Description)
	}
	if input.Category != nil {
		product.Category = strings.TrimSpace(*input.Category)
	}
	if input.PricePaise != nil {
		product.PricePaise = *input.PricePaise
	}
	if input.CompareAtPricePaise != nil {
		product.CompareAtPricePaise = input.CompareAtPricePaise
	}
	if input.StockQty != nil {
		product.StockQty = *input.StockQty
	}
	if input.Images != nil {
		product.Images = input.Images
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	updated, err := s.repo.Update(ctx, product)
	if err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	return toDTO(updated), nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return notFoundOrDependency(err, "product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete product")
	}
	return nil
}

func (s *service) AddVariant(ctx context.Context, productID uuid.UUID, input CreateVariantInput) (ProductDTO, error) {
	if _, err := s.repo.FindByID(ctx, productID); err != nil {
		return ProductDTO{}, notFoundOrDependency(err, "product")
	}

	variant := &models.ProductVariant{
		ProductID:  productID,
		Label:      strings.TrimSpace(input.Label),
		PricePaise: input.PricePaise,
		StockQty:   input.StockQty,
		IsActive:   true,
	}
	if _, err := s.repo.CreateVariant(ctx, variant); err != nil {
		return ProductDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create variant")
	}
	return s.GetByID(ctx, productID)
}

func (s *service) RemoveVariant(ctx context.Context, productID, variantID uuid.UUID) error {
	variant, err := s.repo.FindVariant(ctx, variantID)
	if err != nil {
		return notFoundOrDependency(err, "variant")
	}
	if variant.ProductID != productID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
	}
	if err := s.repo.DeleteVariant(ctx, variantID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete variant")
	}
	return nil
}

func normalizeSlug(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}

func notFoundOrDependency(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, entity+" not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}

func toDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:                  p.ID,
		Title:               p.Title,
		Slug:                p.Slug,
		Description:         p.Description,
		Category:            p.Category,
		PricePaise:          p.PricePaise,
		CompareAtPricePaise: p.CompareAtPricePaise,
		StockQty:            p.StockQty,
		InStock:             inStock(p),
		Images:              p.Images,
		IsActive:            p.IsActive,
		CreatedAt:           p.CreatedAt,
		UpdatedAt:           p.UpdatedAt,
	}
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		dto.Variants = append(dto.Variants, VariantDTO{
			ID:         v.ID,
			Label:      v.Label,
			PricePaise: v.PricePaise,
			InStock:    v.StockQty > 0,
			StockQty:   v.StockQty,
		})
	}
	return dto
}

// inStock reports availability: products with variants are in stock when any
// active variant has stock, otherwise the product's own counter decides.
func inStock(p *models.Product) bool {
	hasVariants := false
	for _, v := range p.Variants {
		if !v.IsActive {
			continue
		}
		hasVariants = true
		if v.StockQty > 0 {
			return true
		}
	}
	if hasVariants {
		return false
	}
	return p.StockQty > 0
}
