package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/indiramart/storefront-backend/internal/orders"
	"github.com/indiramart/storefront-backend/internal/wallet"
	"github.com/indiramart/storefront-backend/pkg/db/models"
	"github.com/indiramart/storefront-backend/pkg/enums"
	pkgerrors "github.com/indiramart/storefront-backend/pkg/errors"
	"github.com/indiramart/storefront-backend/pkg/logger"
	"github.com/indiramart/storefront-backend/pkg/metrics"
)

const defaultRewardBatchSize = 50

// txRunner runs a function inside a database transaction.
type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RewardCreditJobParams configures the delivery reward crediting job.
type RewardCreditJobParams struct {
	Logger    *logger.Logger
	DB        txRunner
	Orders    *orders.Repository
	Wallet    wallet.Service
	Metrics   *metrics.JobMetrics
	BatchSize int
}

// NewRewardCreditJob constructs the job that pays out Indira Coins for
// delivered orders.
func NewRewardCreditJob(params RewardCreditJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Wallet == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultRewardBatchSize
	}
	return &rewardCreditJob{
		logg:    params.Logger,
		db:      params.DB,
		orders:  params.Orders,
		wallet:  params.Wallet,
		metrics: params.Metrics,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type rewardCreditJob struct {
	logg    *logger.Logger
	db      txRunner
	orders  *orders.Repository
	wallet  wallet.Service
	metrics *metrics.JobMetrics
	batch   int
	now     func() time.Time
}

func (j *rewardCreditJob) Name() string { return "reward_credit" }

// Run credits the reward coins for every delivered order that has not been
// paid yet. Each order is settled in its own transaction so one bad order
// cannot block the rest of the batch.
func (j *rewardCreditJob) Run(ctx context.Context) error {
	pending, err := j.orders.FindRewardPending(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("list pending rewards: %w", err)
	}

	var errs error
	credited := 0
	for i := range pending {
		order := &pending[i]
		if err := j.creditOrder(ctx, order); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			continue
		}
		credited++
	}
	if credited > 0 {
		logCtx := j.logg.WithField(ctx, "orders_credited", credited)
		j.logg.Info(logCtx, "delivery rewards credited")
	}
	return errs
}

func (j *rewardCreditJob) creditOrder(ctx context.Context, order *models.Order) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		marked, err := j.orders.WithTx(tx).MarkRewardCredited(ctx, order.ID, j.now().UTC())
		if err != nil {
			return fmt.Errorf("mark credited: %w", err)
		}
		if !marked {
			// Another worker settled this order between the scan and now.
			return nil
		}
		if order.RewardCoins <= 0 {
			return nil
		}
		note := fmt.Sprintf("reward for order #%d", order.OrderNumber)
		err = j.wallet.CreditInTx(ctx, tx, order.UserID, &order.ID, enums.WalletTxnOrderReward, order.RewardCoins, note)
		if err != nil {
			// A ledger row from a previous partial run means the coins were
			// already paid; stamping the order is the only repair needed.
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				return nil
			}
			return err
		}
		if j.metrics != nil {
			j.metrics.AddCoinsCredited(order.RewardCoins)
		}
		return nil
	})
}
