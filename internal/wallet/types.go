package wallet

import (
	"time"

	"github.com/google/uuid"

	"github.com/indiramart/storefront-backend/pkg/enums"
	"github.com/indiramart/storefront-backend/pkg/types"
)

// BalanceDTO is the public wallet projection.
type BalanceDTO struct {
	BalanceCoins     int `json:"balance"`
	TotalEarnedCoins int `json:"totalEarned"`
	TotalSpentCoins  int `json:"totalSpent"`
}

// CalculateDiscountInput carries the coin discount calculation request.
// OrderValuePaise is the current cart/order total before coin discount.
type CalculateDiscountInput struct {
	OrderValuePaise int  `json:"orderValue" validate:"required,gt=0"`
	CoinsToUse      *int `json:"coinsToUse,omitempty" validate:"omitempty,gte=0"`
}

// SuggestionsDTO offers the best and a lighter coin spend for the order.
type SuggestionsDTO struct {
	Optimal     *types.DiscountSuggestion `json:"optimal,omitempty"`
	Alternative *types.DiscountSuggestion `json:"alternative,omitempty"`
}

// CalculateDiscountDTO is the server-derived discount quote.
type CalculateDiscountDTO struct {
	CoinsUsed           int                  `json:"coinsUsed"`
	DiscountAmountPaise int                  `json:"discountAmount"`
	Suggestions         SuggestionsDTO       `json:"suggestions"`
	Limits              types.DiscountLimits `json:"limits"`
}

// RedeemInput requests an order-scoped coin debit.
type RedeemInput struct {
	OrderID         uuid.UUID `json:"orderId" validate:"required"`
	OrderValuePaise int       `json:"orderValue" validate:"required,gt=0"`
	CoinsToRedeem   int       `json:"coinsToRedeem" validate:"required,gt=0"`
}

// RedeemDTO reports the applied redemption.
type RedeemDTO struct {
	CoinsRedeemed       int        `json:"coinsRedeemed"`
	DiscountAmountPaise int        `json:"discountAmount"`
	Wallet              BalanceDTO `json:"wallet"`
}

// TransactionDTO is one ledger row in the public history.
type TransactionDTO struct {
	ID         uuid.UUID                   `json:"id"`
	Type       enums.WalletTransactionType `json:"type"`
	CoinsDelta int                         `json:"coins"`
	OrderID    *uuid.UUID                  `json:"orderId,omitempty"`
	Note       *string                     `json:"note,omitempty"`
	CreatedAt  time.Time                   `json:"createdAt"`
}

// TransactionsPageDTO is the cursor-paginated ledger history.
type TransactionsPageDTO struct {
	Items      []TransactionDTO `json:"items"`
	NextCursor string           `json:"nextCursor,omitempty"`
}
