// Package app assembles the service from explicit configuration.
package app

import (
	"fmt"
	"time"

	"github.com/santoshpalla27/cloud-economics/db/clickhouse"
	"github.com/santoshpalla27/cloud-economics/internal/pricing"
	"github.com/santoshpalla27/cloud-economics/pkg/platform"
)

// Catalog backends.
const (
	BackendAWS        = "aws"
	BackendClickHouse = "clickhouse"
)

// Config is built once at start-up and passed down explicitly.
type Config struct {
	Addr     string
	Env      string
	LogLevel string
	Version  string

	AWSRegion        string
	AWSProfile       string
	PricingAPIRegion string

	CatalogBackend string
	ClickHouse     clickhouse.Config

	CalibrationFile string
	PricingPolicy   string
	PricingCurrency string
	CallTimeout     time.Duration

	CORSOrigins []string
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Addr:             ":8000",
		Env:              "production",
		LogLevel:         "info",
		Version:          "dev",
		AWSRegion:        "us-east-1",
		PricingAPIRegion: pricing.PricingAPIRegion,
		CatalogBackend:   BackendAWS,
		ClickHouse:       *clickhouse.DefaultConfig(),
		PricingPolicy:    string(pricing.PolicySum),
		PricingCurrency:  "USD",
		CallTimeout:      10 * time.Second,
		CORSOrigins:      []string{"http://localhost:3000"},
	}
}

// LoadConfigFromEnv overlays environment variables on DefaultConfig.
func LoadConfigFromEnv() Config {
	cfg := DefaultConfig()

	if port := platform.GetEnv("PORT", ""); port != "" {
		cfg.Addr = ":" + port
	}
	cfg.Env = platform.GetEnv("ENV", cfg.Env)
	cfg.LogLevel = platform.GetEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.AWSRegion = platform.GetEnv("AWS_DEFAULT_REGION", cfg.AWSRegion)
	cfg.AWSProfile = platform.GetEnv("AWS_PROFILE", cfg.AWSProfile)
	cfg.PricingAPIRegion = platform.GetEnv("PRICING_API_REGION", cfg.PricingAPIRegion)

	cfg.CatalogBackend = platform.GetEnv("CATALOG_BACKEND", cfg.CatalogBackend)
	cfg.ClickHouse.Host = platform.GetEnv("CLICKHOUSE_HOST", cfg.ClickHouse.Host)
	cfg.ClickHouse.Port = platform.GetEnvInt("CLICKHOUSE_PORT", cfg.ClickHouse.Port)
	cfg.ClickHouse.Database = platform.GetEnv("CLICKHOUSE_DATABASE", cfg.ClickHouse.Database)
	cfg.ClickHouse.Username = platform.GetEnv("CLICKHOUSE_USER", cfg.ClickHouse.Username)
	cfg.ClickHouse.Password = platform.GetEnv("CLICKHOUSE_PASSWORD", cfg.ClickHouse.Password)
	cfg.ClickHouse.Debug = platform.GetEnvBool("CLICKHOUSE_DEBUG", cfg.ClickHouse.Debug)

	cfg.CalibrationFile = platform.GetEnv("CALIBRATION_FILE", cfg.CalibrationFile)
	cfg.PricingPolicy = platform.GetEnv("PRICING_POLICY", cfg.PricingPolicy)
	cfg.PricingCurrency = platform.GetEnv("PRICING_CURRENCY", cfg.PricingCurrency)
	cfg.CallTimeout = platform.GetEnvDuration("CALL_TIMEOUT", cfg.CallTimeout)

	cfg.CORSOrigins = platform.GetEnvList("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)

	return cfg
}

// Development reports whether human-readable logging should be used.
func (c Config) Development() bool {
	return c.Env == "development"
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	switch c.CatalogBackend {
	case BackendAWS, BackendClickHouse:
	default:
		return fmt.Errorf("unknown catalog backend %q (want %s or %s)", c.CatalogBackend, BackendAWS, BackendClickHouse)
	}
	if _, err := pricing.ParsePolicy(c.PricingPolicy); err != nil {
		return err
	}
	if c.PricingCurrency == "" {
		return fmt.Errorf("pricing currency must not be empty")
	}
	if c.CallTimeout <= 0 {
		return fmt.Errorf("call timeout must be positive, got %s", c.CallTimeout)
	}
	return nil
}
