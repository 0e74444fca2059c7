package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Wallet        WalletConfig
	Checkout      CheckoutConfig
	Referral      ReferralConfig
	Worker        WorkerConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Wallet.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"INDIRA_APP_ENV" required:"true"`
	Port         string `envconfig:"INDIRA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"INDIRA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"INDIRA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"INDIRA_DB_DSN"`
	Driver string `envconfig:"INDIRA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"INDIRA_DB_HOST"`
	Port     int    `envconfig:"INDIRA_DB_PORT" default:"5432"`
	User     string `envconfig:"INDIRA_DB_USER"`
	Password string `envconfig:"INDIRA_DB_PASSWORD"`
	Name     string `envconfig:"INDIRA_DB_NAME"`
	SSLMode  string `envconfig:"INDIRA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"INDIRA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"INDIRA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"INDIRA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"INDIRA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"INDIRA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"INDIRA_REDIS_ADDR"`
	Password     string        `envconfig:"INDIRA_REDIS_PASSWORD"`
	DB           int           `envconfig:"INDIRA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"INDIRA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"INDIRA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"INDIRA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"INDIRA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"INDIRA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"INDIRA_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"INDIRA_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"INDIRA_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"INDIRA_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"INDIRA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"INDIRA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"INDIRA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"INDIRA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"INDIRA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"INDIRA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"INDIRA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"INDIRA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"INDIRA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"INDIRA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"INDIRA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"INDIRA_AUTO_MIGRATE" default:"false"`
}

// WalletConfig drives the Indira Coins economics. One coin converts to
// CoinValuePaise paise; a single order's coin discount never exceeds
// MaxDiscountPercent of the order value.
type WalletConfig struct {
	CoinValuePaise     int `envconfig:"INDIRA_WALLET_COIN_VALUE_PAISE" default:"20"`
	MaxDiscountPercent int `envconfig:"INDIRA_WALLET_MAX_DISCOUNT_PERCENT" default:"10"`
	CoinStep           int `envconfig:"INDIRA_WALLET_COIN_STEP" default:"5"`
	RewardPercent      int `envconfig:"INDIRA_WALLET_REWARD_PERCENT" default:"2"`
}

func (w WalletConfig) validate() error {
	if w.CoinValuePaise <= 0 {
		return fmt.Errorf("%s must be positive", EnvWalletCoinValue)
	}
	if w.MaxDiscountPercent < 0 || w.MaxDiscountPercent > 100 {
		return fmt.Errorf("%s must be within [0,100]", EnvWalletMaxDiscount)
	}
	if w.CoinStep <= 0 {
		return fmt.Errorf("%s must be positive", EnvWalletCoinStep)
	}
	if w.RewardPercent < 0 || w.RewardPercent > 100 {
		return fmt.Errorf("%s must be within [0,100]", EnvWalletRewardPercent)
	}
	return nil
}

type CheckoutConfig struct {
	DeliveryFeePaise     int `envconfig:"INDIRA_CHECKOUT_DELIVERY_FEE_PAISE" default:"0"`
	FreeDeliveryMinPaise int `envconfig:"INDIRA_CHECKOUT_FREE_DELIVERY_MIN_PAISE" default:"50000"`
}

// DeliveryFeeFor returns the delivery fee applied to an order subtotal.
func (c CheckoutConfig) DeliveryFeeFor(subtotalPaise int) int {
	if c.FreeDeliveryMinPaise > 0 && subtotalPaise >= c.FreeDeliveryMinPaise {
		return 0
	}
	return c.DeliveryFeePaise
}

type ReferralConfig struct {
	BonusCoins int `envconfig:"INDIRA_REFERRAL_BONUS_COINS" default:"50"`
	CodeLength int `envconfig:"INDIRA_REFERRAL_CODE_LENGTH" default:"8"`
}

type WorkerConfig struct {
	RewardPollInterval time.Duration `envconfig:"INDIRA_WORKER_REWARD_POLL_INTERVAL" default:"1m"`
	RewardBatchSize    int           `envconfig:"INDIRA_WORKER_REWARD_BATCH_SIZE" default:"50"`
	LockTTL            time.Duration `envconfig:"INDIRA_WORKER_LOCK_TTL" default:"5m"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"INDIRA_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
