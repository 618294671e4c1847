package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"

	"github.com/oatandmatcha/storefront/internal/sumup"
)

// Config holds the complete application configuration, loadable from
// environment variables (OAT_ prefix), flags, or YAML config files.
type Config struct {
	Addr          string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL   string `usage:"PostgreSQL connection URL (OAT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	BaseURL       string `default:"https://oatandmatcha.co.uk" usage:"Public site base URL used in payment redirects" flag:"base-url"`
	AdminPassword string `usage:"Password guarding the admin endpoints (OAT_ADMIN_PASSWORD)" flag:"admin-password"`
	SumUp         SumUpConfig
	Poll          PollConfig
	RateLimit     RateLimitConfig
	CORS          CORSConfig
	Graceful      GracefulConfig
}

// SumUpConfig holds the payment provider credentials.
type SumUpConfig struct {
	APIKey       string `usage:"SumUp API key (OAT_SUMUP_API_KEY)" flag:"sumup-api-key"`
	MerchantCode string `usage:"SumUp merchant code (OAT_SUMUP_MERCHANT_CODE)" flag:"sumup-merchant-code"`
	APIBase      string `usage:"SumUp API base URL override (sandbox/testing)" flag:"sumup-api-base"`
}

// PollConfig controls the background pending-order reconciliation loop.
type PollConfig struct {
	Interval   time.Duration `default:"2m"  usage:"How often pending orders are re-verified"`
	PendingAge time.Duration `default:"5m"  usage:"Minimum age before a pending order is polled" flag:"pending-age"`
	BatchLimit int           `default:"50"  usage:"Max pending orders verified per poll cycle" flag:"batch-limit"`
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
// and applies platform-specific defaults. Missing required secrets fail the
// startup instead of surfacing later as provider errors.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "OAT",
		Files:     []string{"config.yaml", "/etc/oat/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set OAT_DATABASE_URL or DATABASE_URL")
	}
	if cfg.SumUp.APIKey == "" {
		return nil, errors.New("SumUp API key is required: set OAT_SUMUP_API_KEY")
	}
	if cfg.SumUp.MerchantCode == "" {
		return nil, errors.New("SumUp merchant code is required: set OAT_SUMUP_MERCHANT_CODE")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables (Railway,
// Render, etc.) that use standard names like DATABASE_URL and PORT to the
// application's OAT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.SumUp.APIBase == "" {
		c.SumUp.APIBase = sumup.DefaultAPIBase
	}
}
