package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/products"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the cart service.
type ServiceParams struct {
	Repo    *Repository
	Catalog *products.Repository
	Logger  *logger.Logger
}

// Service manages the user's single active cart.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo    *Repository
	catalog *products.Repository
	logg    *logger.Logger
}

// NewService builds a cart service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	return &service{repo: params.Repo, catalog: params.Catalog, logg: params.Logger}, nil
}

// Get returns the active cart repriced from the live catalog. A user with no
// active cart gets an empty cart, not an error.
func (s *service) Get(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	record, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{Items: []ItemDTO{}}, nil
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return toDTO(record), nil
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error) {
	product, variant, err := s.resolveLine(ctx, input.ProductID, input.VariantID)
	if err != nil {
		return CartDTO{}, err
	}

	record, err := s.repo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		record, err = s.repo.CreateActive(ctx, userID)
	}
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "open cart")
	}

	existing, err := s.repo.FindItemByProduct(ctx, record.ID, input.ProductID, input.VariantID)
	switch {
	case err == nil:
		qty := existing.Qty + input.Qty
		if err := checkStock(product, variant, qty); err != nil {
			return CartDTO{}, err
		}
		if err := s.repo.UpdateItemQty(ctx, existing.ID, qty); err != nil {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "merge cart line")
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := checkStock(product, variant, input.Qty); err != nil {
			return CartDTO{}, err
		}
		item := &models.CartItem{
			CartID:         record.ID,
			ProductID:      input.ProductID,
			VariantID:      input.VariantID,
			Qty:            input.Qty,
			UnitPricePaise: linePrice(product, variant),
		}
		if err := s.repo.CreateItem(ctx, item); err != nil {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add cart line")
		}
	default:
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find cart line")
	}

	return s.Get(ctx, userID)
}

func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, input UpdateItemInput) (CartDTO, error) {
	record, err := s.activeCart(ctx, userID)
	if err != nil {
		return CartDTO{}, err
	}

	if input.Qty == 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	item, err := s.repo.FindItem(ctx, record.ID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
		}
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart line")
	}

	product, variant, err := s.resolveLine(ctx, item.ProductID, item.VariantID)
	if err != nil {
		return CartDTO{}, err
	}
	if err := checkStock(product, variant, input.Qty); err != nil {
		return CartDTO{}, err
	}
	if err := s.repo.UpdateItemQty(ctx, item.ID, input.Qty); err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update cart line")
	}

	return s.Get(ctx, userID)
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error) {
	record, err := s.activeCart(ctx, userID)
	if err != nil {
		return CartDTO{}, err
	}

	deleted, err := s.repo.DeleteItem(ctx, record.ID, itemID)
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove cart line")
	}
	if !deleted {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}
	return s.Get(ctx, userID)
}

func (s *service) Clear(ctx context.Context, userID uuid.UUID) error {
	record, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	if err := s.repo.ClearItems(ctx, record.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
	}
	return nil
}

func (s *service) activeCart(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	record, err := s.repo.FindActiveByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart is empty")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	return record, nil
}

// resolveLine loads and gates the catalog rows a mutation refers to.
func (s *service) resolveLine(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*models.Product, *models.ProductVariant, error) {
	product, err := s.catalog.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "product is no longer available")
	}

	var variant *models.ProductVariant
	if variantID != nil {
		for i := range product.Variants {
			if product.Variants[i].ID == *variantID {
				variant = &product.Variants[i]
				break
			}
		}
		if variant == nil {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "variant not found")
		}
		if !variant.IsActive {
			return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "variant is no longer available")
		}
	}
	return product, variant, nil
}

func checkStock(product *models.Product, variant *models.ProductVariant, qty int) error {
	available := product.StockQty
	if variant != nil {
		available = variant.StockQty
	}
	if qty > available {
		return pkgerrors.New(pkgerrors.CodeValidation, "not enough stock").
			WithDetails(map[string]any{"available": available})
	}
	return nil
}

func linePrice(product *models.Product, variant *models.ProductVariant) int {
	if variant != nil {
		return variant.PricePaise
	}
	return product.PricePaise
}

// toDTO reprices every line from the loaded catalog rows. Lines whose
// product or variant went missing or inactive stay visible but unavailable,
// priced at their add-time snapshot.
func toDTO(record *models.CartRecord) CartDTO {
	items := make([]ItemDTO, 0, len(record.Items))
	totalQty := 0
	subtotal := 0

	for i := range record.Items {
		line := &record.Items[i]
		dto := ItemDTO{
			ID:             line.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Qty:            line.Qty,
			UnitPricePaise: line.UnitPricePaise,
		}

		available := line.Product != nil && line.Product.IsActive
		stock := 0
		if line.Product != nil {
			dto.Title = line.Product.Title
			dto.Category = line.Product.Category
			if len(line.Product.Images) > 0 {
				dto.Image = &line.Product.Images[0]
			}
			dto.UnitPricePaise = line.Product.PricePaise
			stock = line.Product.StockQty
		}
		if line.VariantID != nil {
			if line.Variant == nil || !line.Variant.IsActive {
				available = false
			} else {
				dto.VariantLabel = &line.Variant.Label
				dto.UnitPricePaise = line.Variant.PricePaise
				stock = line.Variant.StockQty
			}
		}

		dto.Available = available
		dto.InStock = available && stock >= line.Qty
		dto.LineTotalPaise = dto.UnitPricePaise * line.Qty

		items = append(items, dto)
		totalQty += line.Qty
		subtotal += dto.LineTotalPaise
	}

	id := record.ID
	return CartDTO{
		ID:            &id,
		Items:         items,
		TotalQty:      totalQty,
		SubtotalPaise: subtotal,
	}
}
