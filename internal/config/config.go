package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from MERCABRIDGE_* environment variables, optionally seeded
// from a .env file.
type Config struct {
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	DefaultPostcode   string `envconfig:"DEFAULT_POSTCODE" default:"28001"`
	DefaultLimit      int    `envconfig:"DEFAULT_LIMIT" default:"20"`
	FallbackWarehouse string `envconfig:"FALLBACK_WAREHOUSE" default:"mad1"`
	ExposeDetails     bool   `envconfig:"EXPOSE_DETAILS" default:"true"`

	Supplier Supplier

	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	RedisURL    string        `envconfig:"REDIS_URL"`
	CacheTTL    time.Duration `envconfig:"CACHE_TTL" default:"15m"`
	DatabaseURL string        `envconfig:"DATABASE_URL"`

	RefreshWorkers int `envconfig:"REFRESH_WORKERS" default:"4"`
}

// Supplier configures the store client.
type Supplier struct {
	BaseURL            string        `envconfig:"BASE_URL" default:"https://tienda.mercadona.es/"`
	Language           string        `envconfig:"LANGUAGE" default:"es"`
	AlgoliaAppID       string        `envconfig:"ALGOLIA_APP_ID" default:"7UZJKL1DJ0"`
	AlgoliaAPIKey      string        `envconfig:"ALGOLIA_API_KEY"`
	AlgoliaURL         string        `envconfig:"ALGOLIA_URL"`
	Timeout            time.Duration `envconfig:"TIMEOUT" default:"30s"`
	MinRequestInterval time.Duration `envconfig:"MIN_REQUEST_INTERVAL" default:"500ms"`
}

const prefix = "MERCABRIDGE"

// DefaultExposeDetails applies when no configuration could be read.
const DefaultExposeDetails = true

func Load() (*Config, error) {
	// .env at the repository root when run from cmd/<name>, then the working dir
	_ = godotenv.Load("../../.env")
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return nil, fmt.Errorf("process environment: %w", err)
	}
	if cfg.DefaultLimit <= 0 {
		return nil, fmt.Errorf("%s_DEFAULT_LIMIT must be positive, got %d", prefix, cfg.DefaultLimit)
	}
	return &cfg, nil
}

// IsProduction reports whether logs should be emitted as JSON.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
