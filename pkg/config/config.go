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
	Catalog       CatalogConfig
	Checkout      CheckoutConfig
	Stripe        StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"READS_APP_ENV" required:"true"`
	Port         string `envconfig:"READS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"READS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"READS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"READS_DB_DSN"`
	Driver string `envconfig:"READS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"READS_DB_HOST"`
	LegacyPort     int    `envconfig:"READS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"READS_DB_USER"`
	LegacyPassword string `envconfig:"READS_DB_PASSWORD"`
	LegacyName     string `envconfig:"READS_DB_NAME"`
	LegacySSLMode  string `envconfig:"READS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"READS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"READS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"READS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"READS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"READS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"READS_REDIS_ADDR"`
	Password     string        `envconfig:"READS_REDIS_PASSWORD"`
	DB           int           `envconfig:"READS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"READS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"READS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"READS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"READS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"READS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"READS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"READS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"READS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"READS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"READS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"READS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"READS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"READS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"READS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"READS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"READS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"READS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"READS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"READS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"READS_AUTO_MIGRATE" default:"false"`
}

type CatalogConfig struct {
	// MaxPriceCents caps the list price and every tier price on a product.
	MaxPriceCents int `envconfig:"READS_CATALOG_MAX_PRICE_CENTS" default:"1000000"`
}

type CheckoutConfig struct {
	// PublicBaseURL is the externally reachable root used to build the
	// success/cancel redirect URLs handed to the payment provider.
	PublicBaseURL   string `envconfig:"READS_PUBLIC_BASE_URL" required:"true"`
	Currency        string `envconfig:"READS_CHECKOUT_CURRENCY" default:"usd"`
	PaymentTermDays int    `envconfig:"READS_CHECKOUT_PAYMENT_TERM_DAYS" default:"30"`
}

func (c CheckoutConfig) PaymentTerm() time.Duration {
	days := c.PaymentTermDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

type StripeConfig struct {
	APIKey string `envconfig:"READS_STRIPE_API_KEY"`
	Env    string `envconfig:"READS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
