package types

// CoinDiscountType is the only discount type the coin redemption flow emits.
const CoinDiscountType = "coins"

// CoinDiscount is the transient discount object a client applies at checkout.
// It is a claim, not a fact: the checkout service recomputes the discount
// from the coins requested and rejects mismatched amounts.
type CoinDiscount struct {
	CoinsUsed      int    `json:"coinsUsed"`
	DiscountAmount int    `json:"discountAmount"`
	Type           string `json:"type"`
}

// DiscountSuggestion pairs a coin amount with the discount it would yield.
type DiscountSuggestion struct {
	Coins          int `json:"coins"`
	DiscountAmount int `json:"discountAmount"`
}

// DiscountLimits tells clients the clamping bounds for the coin slider.
type DiscountLimits struct {
	MaxCoins       int `json:"maxCoins"`
	MaxDiscount    int `json:"maxDiscount"`
	CoinValuePaise int `json:"coinValuePaise"`
	Step           int `json:"step"`
}
