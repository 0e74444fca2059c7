package referrals

import (
	"github.com/google/uuid"
)

// MyCodeDTO is the signed-in user's referral panel: their code plus how the
// program has paid off so far.
type MyCodeDTO struct {
	ReferralCode    string `json:"referralCode"`
	ReferredCount   int    `json:"referredCount"`
	CoinsEarned     int    `json:"coinsEarned"`
	BonusPerReferral int   `json:"bonusPerReferral"`
}

// LeaderboardEntryDTO is one ranked row of the referral leaderboard.
type LeaderboardEntryDTO struct {
	Rank      int       `json:"rank"`
	UserID    uuid.UUID `json:"userId"`
	Name      string    `json:"name"`
	Referrals int       `json:"referrals"`
	Coins     int       `json:"coins"`
}
