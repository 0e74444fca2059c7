package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/products"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/db"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
)

// ServiceParams groups dependencies for the order service.
type ServiceParams struct {
	Repo    *Repository
	Catalog *products.Repository
	Wallet  wallet.Service
	DB      db.TxRunner
	Logger  *logger.Logger
}

// Service exposes the buyer order surface and the admin lifecycle.
type Service interface {
	ListForUser(ctx context.Context, userID uuid.UUID, cursor string, limit int) (OrderPageDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error)
	Cancel(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error)
	AdminList(ctx context.Context, filter ListFilter, cursor string, limit int) (OrderPageDTO, error)
	AdminGet(ctx context.Context, orderID uuid.UUID) (OrderDTO, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (OrderDTO, error)
}

type service struct {
	repo    *Repository
	catalog *products.Repository
	wallet  wallet.Service
	db      db.TxRunner
	logg    *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order repo is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog repo is required")
	}
	if params.Wallet == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet service is required")
	}
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db runner is required")
	}
	return &service{
		repo:    params.Repo,
		catalog: params.Catalog,
		wallet:  params.Wallet,
		db:      params.DB,
		logg:    params.Logger,
	}, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, cursor string, limit int) (OrderPageDTO, error) {
	return s.list(ctx, ListFilter{UserID: &userID}, cursor, limit)
}

func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	if order.UserID != userID {
		return OrderDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return ToDTO(order), nil
}

// Cancel aborts a placed order: restock, coin reversal and the status flip
// happen in one transaction.
func (s *service) Cancel(ctx context.Context, userID, orderID uuid.UUID) (OrderDTO, error) {
	var out OrderDTO
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		if order.Status != enums.OrderStatusPlaced {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "only placed orders can be cancelled").
				WithDetails(map[string]any{"status": order.Status})
		}

		if err := s.cancelInTx(ctx, tx, order); err != nil {
			return err
		}

		cancelled, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		out = ToDTO(cancelled)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return out, nil
}

func (s *service) AdminList(ctx context.Context, filter ListFilter, cursor string, limit int) (OrderPageDTO, error) {
	return s.list(ctx, filter, cursor, limit)
}

func (s *service) AdminGet(ctx context.Context, orderID uuid.UUID) (OrderDTO, error) {
	order, err := s.loadOrder(ctx, s.repo, orderID)
	if err != nil {
		return OrderDTO{}, err
	}
	return ToDTO(order), nil
}

// UpdateStatus advances the lifecycle. Delivery stamps DeliveredAt, which
// makes the order visible to the reward worker; cancellation restocks and
// reverses coins like a buyer cancel.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, input UpdateStatusInput) (OrderDTO, error) {
	next, err := enums.ParseOrderStatus(input.Status)
	if err != nil {
		return OrderDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}

	var out OrderDTO
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		if order.Status == next {
			out = ToDTO(order)
			return nil
		}
		if !order.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "status transition not allowed").
				WithDetails(map[string]any{"from": order.Status, "to": next})
		}

		if next == enums.OrderStatusCancelled {
			if err := s.cancelInTx(ctx, tx, order); err != nil {
				return err
			}
		} else {
			stamps := map[string]any{}
			if next == enums.OrderStatusDelivered {
				stamps["delivered_at"] = time.Now().UTC()
			}
			moved, err := repo.UpdateStatus(ctx, orderID, order.Status, next, stamps)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
			}
			if !moved {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
			}
		}

		updated, err := s.loadOrder(ctx, repo, orderID)
		if err != nil {
			return err
		}
		out = ToDTO(updated)
		return nil
	})
	if err != nil {
		return OrderDTO{}, err
	}
	return out, nil
}

// cancelInTx performs the shared cancellation work: status flip with a
// concurrency guard, per-line restock, and the coin reversal when the order
// spent coins.
func (s *service) cancelInTx(ctx context.Context, tx *gorm.DB, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	catalog := s.catalog.WithTx(tx)

	moved, err := repo.UpdateStatus(ctx, order.ID, order.Status, enums.OrderStatusCancelled, map[string]any{
		"cancelled_at": time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
	}
	if !moved {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order changed concurrently")
	}

	for i := range order.Items {
		line := &order.Items[i]
		switch {
		case line.VariantID != nil:
			if err := catalog.RestoreVariantStock(ctx, *line.VariantID, line.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore variant stock")
			}
		case line.ProductID != nil:
			if err := catalog.RestoreProductStock(ctx, *line.ProductID, line.Qty); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore product stock")
			}
		}
	}

	if order.CoinsUsed > 0 {
		note := "order cancelled"
		if err := s.wallet.CreditInTx(ctx, tx, order.UserID, &order.ID, enums.WalletTxnRedeemReversal, order.CoinsUsed, note); err != nil {
			return err
		}
	}
	return nil
}

func (s *service) list(ctx context.Context, filter ListFilter, cursor string, limit int) (OrderPageDTO, error) {
	rows, nextCursor, err := s.repo.List(ctx, filter, cursor, limit)
	if err != nil {
		return OrderPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	items := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		items = append(items, ToDTO(&rows[i]))
	}
	return OrderPageDTO{Items: items, NextCursor: nextCursor}, nil
}

func (s *service) loadOrder(ctx context.Context, repo *Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ToDTO converts an order row to its public projection. Checkout reuses it
// for the placement response.
func ToDTO(order *models.Order) OrderDTO {
	items := make([]LineItemDTO, 0, len(order.Items))
	for i := range order.Items {
		line := &order.Items[i]
		items = append(items, LineItemDTO{
			ID:             line.ID,
			ProductID:      line.ProductID,
			VariantID:      line.VariantID,
			Name:           line.Name,
			VariantLabel:   line.VariantLabel,
			UnitPricePaise: line.UnitPricePaise,
			Qty:            line.Qty,
			TotalPaise:     line.TotalPaise,
		})
	}
	return OrderDTO{
		ID:                  order.ID,
		OrderNumber:         order.OrderNumber,
		Status:              order.Status,
		Items:               items,
		SubtotalPaise:       order.SubtotalPaise,
		DeliveryFeePaise:    order.DeliveryFeePaise,
		CouponCode:          order.CouponCode,
		CouponDiscountPaise: order.CouponDiscountPaise,
		CoinsUsed:           order.CoinsUsed,
		CoinDiscountPaise:   order.CoinDiscountPaise,
		TotalPaise:          order.TotalPaise,
		RewardCoins:         order.RewardCoins,
		ShippingAddress:     order.ShippingAddress,
		Notes:               order.Notes,
		DeliveredAt:         order.DeliveredAt,
		CancelledAt:         order.CancelledAt,
		CreatedAt:           order.CreatedAt,
	}
}
