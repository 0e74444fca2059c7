package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/cart"
	"github.com/indiramart/storefront-backend/internal/coupons"
	"github.com/indiramart/storefront-backend/internal/orders"
	"github.com/indiramart/storefront-backend/internal/products"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/config"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	Cart    *cart.Repository
	Catalog *products.Repository
	Orders  *orders.Repository
	Coupons coupons.Service
	Wallet  wallet.Service
	DB      db.TxRunner
	Config  config.CheckoutConfig
	Logger  *logger.Logger
}

// Service converts the active cart into an order.
type Service interface {
	Execute(ctx context.Context, userID uuid.UUID, input Input) (orders.OrderDTO, error)
}

type service struct {
	cart    *cart.Repository
	catalog *products.Repository
	orders  *orders.Repository
	coupons coupons.Service
	wallet  wallet.Service
	db      db.TxRunner
	cfg     config.CheckoutConfig
	logg    *logger.Logger
}

// NewService builds a checkout service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orders repo is required")
	}
	if params.Coupons == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "coupons service is required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet service is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	return &service{
		cart:    params.Cart,
		catalog: params.Catalog,
		orders:  params.Orders,
		coupons: params.Coupons,
		wallet:  params.Wallet,
		db:      params.DB,
		cfg:     params.Config,
		logg:    params.Logger,
	}, nil
}

// pricedLine is a cart line after live repricing and availability checks.
type pricedLine struct {
	item      *models.CartItem
	unitPaise int
	category  string
}

// Execute places an order from the user's active cart. Everything runs in
// one transaction: repricing, coupon and coin validation, stock decrements,
// the order insert, the wallet debit with its ledger row, the coupon
// redemption record, and the cart conversion. Any failure rolls the whole
// placement back.
func (s *service) Execute(ctx context.Context, userID uuid.UUID, input Input) (orders.OrderDTO, error) {
	if err := input.ShippingAddress.Validate(); err != nil {
		return orders.OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid shipping address")
	}
	if input.CoinsToRedeem < 0 {
		return orders.OrderDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "coins must not be negative")
	}

	var placed *models.Order
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		cartRepo := s.cart.WithTx(tx)
		catalogRepo := s.catalog.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		record, err := cartRepo.FindActiveByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(record.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		lines, subtotal, err := s.priceLines(record.Items)
		if err != nil {
			return err
		}

		deliveryFee := s.cfg.DeliveryFeeFor(subtotal)

		var (
			couponCode     *string
			couponID       uuid.UUID
			couponDiscount int
		)
		if input.CouponCode != nil && strings.TrimSpace(*input.CouponCode) != "" {
			validation, err := s.coupons.ValidateInTx(ctx, tx, userID, *input.CouponCode, subtotal, categoriesOf(lines))
			if err != nil {
				return err
			}
			couponID = validation.CouponID
			couponCode = &validation.Code
			couponDiscount = validation.DiscountAmountPaise
		}

		// The order ID is fixed up front so the wallet ledger row written by
		// the redemption can reference it before the order row exists.
		orderID := uuid.New()

		coinDiscount := 0
		if input.CoinsToRedeem > 0 {
			// The redemption cap is computed against the goods subtotal,
			// matching the quote the wallet endpoint gives for the same cart.
			coinDiscount, err = s.wallet.RedeemInTx(ctx, tx, userID, orderID, subtotal, input.CoinsToRedeem)
			if err != nil {
				return err
			}
		}

		total := subtotal + deliveryFee - couponDiscount - coinDiscount
		if total < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "discounts exceed the order total")
		}

		order := &models.Order{
			ID:                  orderID,
			UserID:              userID,
			Status:              enums.OrderStatusPlaced,
			SubtotalPaise:       subtotal,
			DeliveryFeePaise:    deliveryFee,
			CouponCode:          couponCode,
			CouponDiscountPaise: couponDiscount,
			CoinsUsed:           input.CoinsToRedeem,
			CoinDiscountPaise:   coinDiscount,
			TotalPaise:          total,
			RewardCoins:         s.wallet.RewardCoinsFor(total),
			ShippingAddress:     input.ShippingAddress,
			Notes:               input.Notes,
			Items:               snapshotLines(lines),
		}
		if err := orderRepo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		if err := s.reserveStock(ctx, catalogRepo, lines); err != nil {
			return err
		}

		if couponID != uuid.Nil {
			if err := s.coupons.RecordRedemptionInTx(ctx, tx, couponID, userID, order.ID); err != nil {
				return err
			}
		}

		converted, err := cartRepo.MarkConverted(ctx, record.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "convert cart")
		}
		if !converted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "cart was already checked out")
		}

		placed = order
		return nil
	})
	if err != nil {
		return orders.OrderDTO{}, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":    placed.ID.String(),
			"total_paise": placed.TotalPaise,
			"coins_used":  placed.CoinsUsed,
		})
		s.logg.Info(logCtx, "order placed")
	}
	return orders.ToDTO(placed), nil
}

// priceLines re-validates every cart line against the live catalog and
// returns the repriced lines with the goods subtotal. Carts reference only
// snapshots, so anything deactivated or gone since the add fails here.
func (s *service) priceLines(items []models.CartItem) ([]pricedLine, int, error) {
	lines := make([]pricedLine, 0, len(items))
	subtotal := 0
	for i := range items {
		item := &items[i]
		product := item.Product
		if product == nil || !product.IsActive {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "an item in the cart is no longer available").
				WithDetails(map[string]any{"itemId": item.ID})
		}
		unit := product.PricePaise
		stock := product.StockQty
		if item.VariantID != nil {
			variant := item.Variant
			if variant == nil || !variant.IsActive || variant.ProductID != product.ID {
				return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, "an item in the cart is no longer available").
					WithDetails(map[string]any{"itemId": item.ID})
			}
			unit = variant.PricePaise
			stock = variant.StockQty
		}
		if stock < item.Qty {
			return nil, 0, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("insufficient stock for %s", product.Title)).
				WithDetails(map[string]any{"itemId": item.ID, "available": stock})
		}
		lines = append(lines, pricedLine{item: item, unitPaise: unit, category: product.Category})
		subtotal += unit * item.Qty
	}
	return lines, subtotal, nil
}

// reserveStock decrements stock per line with a conditional update. A miss
// means a concurrent checkout won the remaining units.
func (s *service) reserveStock(ctx context.Context, catalogRepo *products.Repository, lines []pricedLine) error {
	for _, line := range lines {
		var (
			ok  bool
			err error
		)
		if line.item.VariantID != nil {
			ok, err = catalogRepo.DecrementVariantStock(ctx, *line.item.VariantID, line.item.Qty)
		} else {
			ok, err = catalogRepo.DecrementProductStock(ctx, line.item.ProductID, line.item.Qty)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
		}
		if !ok {
			title := ""
			if line.item.Product != nil {
				title = line.item.Product.Title
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("insufficient stock for %s", title)).
				WithDetails(map[string]any{"itemId": line.item.ID})
		}
	}
	return nil
}

func snapshotLines(lines []pricedLine) []models.OrderLineItem {
	items := make([]models.OrderLineItem, 0, len(lines))
	for _, line := range lines {
		productID := line.item.ProductID
		snapshot := models.OrderLineItem{
			ProductID:      &productID,
			VariantID:      line.item.VariantID,
			Name:           line.item.Product.Title,
			UnitPricePaise: line.unitPaise,
			Qty:            line.item.Qty,
			TotalPaise:     line.unitPaise * line.item.Qty,
		}
		if line.item.Variant != nil {
			label := line.item.Variant.Label
			snapshot.VariantLabel = &label
		}
		items = append(items, snapshot)
	}
	return items
}

func categoriesOf(lines []pricedLine) []string {
	seen := make(map[string]struct{}, len(lines))
	categories := make([]string, 0, len(lines))
	for _, line := range lines {
		category := strings.ToLower(strings.TrimSpace(line.category))
		if category == "" {
			continue
		}
		if _, ok := seen[category]; ok {
			continue
		}
		seen[category] = struct{}{}
		categories = append(categories, category)
	}
	return categories
}
