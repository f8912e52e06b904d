package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

const defaultAddr = "0.0.0.0:8080"

// Config holds the complete application configuration, loadable from
// environment variables (SCOOP_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string `usage:"PostgreSQL connection URL (SCOOP_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	ImageBaseURL string `default:"" usage:"Base URL for relative flavor images" flag:"image-base-url"`
	APIKeyPepper string `usage:"HMAC pepper for admin API key hashing" flag:"api-key-pepper"`
	Token        TokenConfig
	Order        OrderConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// TokenConfig controls customer session tokens.
type TokenConfig struct {
	Secret string        `usage:"HS256 signing secret for customer tokens" flag:"token-secret"`
	TTL    time.Duration `default:"24h" usage:"Customer token lifetime" flag:"token-ttl"`
}

// OrderConfig tunes the order workflow.
type OrderConfig struct {
	TxTimeout       time.Duration `default:"5s" usage:"Upper bound for the order creation transaction" flag:"order-tx-timeout"`
	DefaultPageSize int           `default:"50" usage:"Default page size of the admin order listing"`
	MaxPageSize     int           `default:"200" usage:"Maximum page size of the admin order listing"`
}

// RateLimitConfig controls the per-client token bucket limiter. RPS 0
// disables it.
type RateLimitConfig struct {
	RPS   float64 `default:"20" usage:"Sustained requests per second per client"`
	Burst int     `default:"40" usage:"Burst size per client"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"http://localhost:3000,http://127.0.0.1:3000,http://localhost:5500,http://127.0.0.1:5500" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"true" usage:"Allow credentials (auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, flags and YAML
// config files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	return loadConfig(aconfig.Config{
		EnvPrefix: "SCOOP",
		Files:     []string{"config.yaml", "/etc/scoop/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
}

func loadConfig(ac aconfig.Config) (*Config, error) {
	var cfg Config
	if err := aconfig.LoaderFor(&cfg, ac).Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.DatabaseURL == "":
		return errors.New("database URL is required: set SCOOP_DATABASE_URL or DATABASE_URL")
	case c.Token.Secret == "":
		return errors.New("token secret is required: set SCOOP_TOKEN_SECRET")
	case c.Token.TTL <= 0:
		return errors.Errorf("token TTL must be positive, got %s", c.Token.TTL)
	case c.Order.MaxPageSize < c.Order.DefaultPageSize:
		return errors.Errorf("order max page size %d is below default %d", c.Order.MaxPageSize, c.Order.DefaultPageSize)
	}
	return nil
}

// applyPlatformDefaults maps platform-provided variables such as
// DATABASE_URL and PORT onto the SCOOP_ configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		c.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == defaultAddr {
		c.Addr = "0.0.0.0:" + port
	}
}
