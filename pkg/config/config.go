package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

const (
	EnvPrefix = "STOREFRONT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv             = "STOREFRONT_APP_ENV"
	EnvPort               = "STOREFRONT_APP_PORT"
	EnvRedisURL           = "STOREFRONT_REDIS_URL"
	EnvMarketplaceBaseURL = "STOREFRONT_MARKETPLACE_BASE_URL"
	EnvDeliveryBaseFee    = "STOREFRONT_CHECKOUT_DELIVERY_BASE_FEE"
	EnvOTPCooldown        = "STOREFRONT_OTP_RESEND_COOLDOWN"
)

type Config struct {
	App         AppConfig
	Redis       RedisConfig
	Marketplace MarketplaceConfig
	Session     SessionConfig
	Checkout    CheckoutConfig
	OTP         OTPConfig
	Upload      UploadConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Marketplace.validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.DeliveryFee(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string        `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	LogLevel     string        `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`
	ShutdownWait time.Duration `envconfig:"STOREFRONT_SHUTDOWN_WAIT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// MarketplaceConfig points the storefront at the marketplace REST API.
type MarketplaceConfig struct {
	BaseURL       string        `envconfig:"STOREFRONT_MARKETPLACE_BASE_URL" required:"true"`
	Timeout       time.Duration `envconfig:"STOREFRONT_MARKETPLACE_TIMEOUT" default:"15s"`
	RefreshLeeway time.Duration `envconfig:"STOREFRONT_MARKETPLACE_REFRESH_LEEWAY" default:"30s"`
}

func (m MarketplaceConfig) validate() error {
	trimmed := strings.TrimSpace(m.BaseURL)
	if trimmed == "" {
		return fmt.Errorf("%s is required", EnvMarketplaceBaseURL)
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", EnvMarketplaceBaseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) url", EnvMarketplaceBaseURL)
	}
	return nil
}

// SessionConfig controls the storefront session cookie and the lifetime of
// persisted client state.
type SessionConfig struct {
	CookieName   string        `envconfig:"STOREFRONT_SESSION_COOKIE" default:"sf_session"`
	CookieSecure bool          `envconfig:"STOREFRONT_SESSION_COOKIE_SECURE" default:"true"`
	PersistTTL   time.Duration `envconfig:"STOREFRONT_SESSION_PERSIST_TTL" default:"720h"`
	EphemeralTTL time.Duration `envconfig:"STOREFRONT_SESSION_EPHEMERAL_TTL" default:"1h"`
}

type CheckoutConfig struct {
	DeliveryBaseFee   string        `envconfig:"STOREFRONT_CHECKOUT_DELIVERY_BASE_FEE" default:"5.00"`
	ProcessingFlagTTL time.Duration `envconfig:"STOREFRONT_CHECKOUT_PROCESSING_TTL" default:"2m"`
}

// DeliveryFee parses the flat delivery fee.
func (c CheckoutConfig) DeliveryFee() (decimal.Decimal, error) {
	raw := strings.TrimSpace(c.DeliveryBaseFee)
	if raw == "" {
		return decimal.Zero, nil
	}
	fee, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %s: %w", EnvDeliveryBaseFee, err)
	}
	if fee.IsNegative() {
		return decimal.Zero, fmt.Errorf("%s must not be negative", EnvDeliveryBaseFee)
	}
	return fee, nil
}

type OTPConfig struct {
	ResendCooldown time.Duration `envconfig:"STOREFRONT_OTP_RESEND_COOLDOWN" default:"60s"`
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"STOREFRONT_MAX_UPLOAD_MB" default:"10"`
}

// MaxBytes returns the upload limit in bytes.
func (u UploadConfig) MaxBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(u.MaxUploadMB) << 20
}

type RateLimitConfig struct {
	LoginWindow       time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginSessionLimit int           `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_SESSION_LIMIT" default:"10"`
	LoginIPLimit      int           `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit   int           `envconfig:"STOREFRONT_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	OTPWindow         time.Duration `envconfig:"STOREFRONT_RATE_LIMIT_OTP_WINDOW" default:"10m"`
	OTPSessionLimit   int           `envconfig:"STOREFRONT_RATE_LIMIT_OTP_SESSION_LIMIT" default:"10"`
	OTPIPLimit        int           `envconfig:"STOREFRONT_RATE_LIMIT_OTP_IP_LIMIT" default:"30"`
	OTPEmailLimit     int           `envconfig:"STOREFRONT_RATE_LIMIT_OTP_EMAIL_LIMIT" default:"6"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"STOREFRONT_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}
