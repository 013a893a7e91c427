package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SHOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (SHOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	RedisURL    string `usage:"Redis URL for token revocation (SHOP_REDIS_URL or REDIS_URL); empty disables logout revocation" flag:"redis-url"`
	Auth        AuthConfig
	Stripe      StripeConfig
	Orders      OrdersConfig
	Uploads     UploadsConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// AuthConfig controls bearer tokens and API keys.
type AuthConfig struct {
	JWTSecret    string        `env:"JWT_SECRET" usage:"HMAC secret signing access tokens" flag:"jwt-secret"`
	TokenTTL     time.Duration `default:"720h" usage:"Access token lifetime" flag:"token-ttl"`
	CookieName   string        `default:"token" usage:"Cookie carrying the access token" flag:"cookie-name"`
	SecureCookie bool          `default:"false" usage:"Mark the token cookie Secure" flag:"secure-cookie"`
	APIKeyPepper string        `env:"API_KEY_PEPPER" usage:"HMAC pepper for API key hashing" flag:"api-key-pepper"`
}

// StripeConfig enables hosted card checkout when SecretKey is set.
type StripeConfig struct {
	SecretKey  string `usage:"Stripe secret key; empty disables checkout sessions" flag:"stripe-secret-key"`
	Currency   string `default:"usd" usage:"ISO currency of checkout sessions" flag:"stripe-currency"`
	SuccessURL string `usage:"Redirect after a successful payment" flag:"stripe-success-url"`
	CancelURL  string `usage:"Redirect after an abandoned payment" flag:"stripe-cancel-url"`
}

// OrdersConfig holds the flat charges added at checkout, as decimal strings.
type OrdersConfig struct {
	TaxPrice      string `default:"0" usage:"Tax added to every order" flag:"tax-price"`
	ShippingPrice string `default:"0" usage:"Shipping added to every order" flag:"shipping-price"`
}

// UploadsConfig controls where product images are written and served from.
type UploadsConfig struct {
	Dir      string `default:"uploads" usage:"Directory for uploaded images" flag:"uploads-dir"`
	BaseURL  string `default:"/uploads" usage:"Public URL prefix of uploaded images" flag:"uploads-base-url"`
	MaxBytes int64  `default:"20971520" usage:"Maximum multipart upload size" flag:"uploads-max-bytes"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config files,
// and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "SHOP",
		Files:     []string{"config.yaml", "/etc/shop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults(os.Getenv)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("database URL is required: set SHOP_DATABASE_URL or DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("jwt secret is required: set SHOP_AUTH_JWT_SECRET")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if _, _, err := c.Orders.prices(); err != nil {
		return err
	}
	if c.Stripe.SecretKey != "" && (c.Stripe.SuccessURL == "" || c.Stripe.CancelURL == "") {
		return errors.New("stripe success and cancel urls are required with a secret key")
	}
	return nil
}

func (o OrdersConfig) prices() (tax, shipping decimal.Decimal, err error) {
	if tax, err = decimal.NewFromString(o.TaxPrice); err != nil || tax.IsNegative() {
		return tax, shipping, errors.Errorf("invalid tax price %q", o.TaxPrice)
	}
	if shipping, err = decimal.NewFromString(o.ShippingPrice); err != nil || shipping.IsNegative() {
		return tax, shipping, errors.Errorf("invalid shipping price %q", o.ShippingPrice)
	}
	return tax, shipping, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's SHOP_-prefixed configuration.
func (c *Config) applyPlatformDefaults(getenv func(string) string) {
	if c.DatabaseURL == "" {
		c.DatabaseURL = getenv("DATABASE_URL")
	}
	if c.RedisURL == "" {
		c.RedisURL = getenv("REDIS_URL")
	}
	if port := getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
