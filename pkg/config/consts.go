package config

// EnvPrefix is intentionally empty: every variable carries the full
// INDIRA_-prefixed name in its envconfig tag.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "INDIRA_DB_DSN"
	EnvDBHost = "INDIRA_DB_HOST"
	EnvDBUser = "INDIRA_DB_USER"
	EnvDBName = "INDIRA_DB_NAME"

	EnvWalletCoinValue     = "INDIRA_WALLET_COIN_VALUE_PAISE"
	EnvWalletMaxDiscount   = "INDIRA_WALLET_MAX_DISCOUNT_PERCENT"
	EnvWalletCoinStep      = "INDIRA_WALLET_COIN_STEP"
	EnvWalletRewardPercent = "INDIRA_WALLET_REWARD_PERCENT"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
