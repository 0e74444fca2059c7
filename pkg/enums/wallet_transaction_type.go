package enums

import "fmt"

// WalletTransactionType labels every Indira Coins ledger entry. Credits and
// debits are distinguished by the sign of the coin delta, not the type.
type WalletTransactionType string

const (
	WalletTxnReferralBonus  WalletTransactionType = "referral_bonus"
	WalletTxnOrderReward    WalletTransactionType = "order_reward"
	WalletTxnRedeem         WalletTransactionType = "redeem"
	WalletTxnRedeemReversal WalletTransactionType = "redeem_reversal"
	WalletTxnAdminAdjust    WalletTransactionType = "admin_adjust"
)

var validWalletTransactionTypes = []WalletTransactionType{
	WalletTxnReferralBonus,
	WalletTxnOrderReward,
	WalletTxnRedeem,
	WalletTxnRedeemReversal,
	WalletTxnAdminAdjust,
}

// String implements fmt.Stringer.
func (t WalletTransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known WalletTransactionType.
func (t WalletTransactionType) IsValid() bool {
	for _, candidate := range validWalletTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseWalletTransactionType converts raw input into a WalletTransactionType.
func ParseWalletTransactionType(value string) (WalletTransactionType, error) {
	for _, candidate := range validWalletTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid wallet transaction type %q", value)
}
