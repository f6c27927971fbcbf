// Package config loads engine configuration from environment variables
// (with optional .env file), mapped onto a struct via envconfig tags.
package config

import (
	"fmt"

	"daily-sma/internal/model"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration. Immutable after Load — a
// parameter change means restarting the engine.
type Config struct {
	// Indicator surface
	Symbol          string `envconfig:"SYMBOL" default:"SPY"`
	Period          int    `envconfig:"SMA_PERIOD" default:"20"`
	PriceField      string `envconfig:"SMA_PRICE_FIELD" default:"close"`
	LiveSample      bool   `envconfig:"SMA_LIVE_SAMPLE" default:"true"`
	MaxLoadAttempts int    `envconfig:"LOAD_MAX_ATTEMPTS" default:"5"`

	// History source: "sqlite" or "smartapi"
	HistorySource string `envconfig:"HISTORY_SOURCE" default:"sqlite"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"data/bars.db"`

	// Infrastructure
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	MetricsAddr   string `envconfig:"METRICS_ADDR" default:":9090"`
	WSAddr        string `envconfig:"WS_ADDR" default:":8085"`
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`

	// SmartAPI credentials (required only when HISTORY_SOURCE=smartapi)
	SmartAPIKey        string `envconfig:"SMARTAPI_KEY" default:""`
	SmartAPIClientCode string `envconfig:"SMARTAPI_CLIENT_CODE" default:""`
	SmartAPIPassword   string `envconfig:"SMARTAPI_PASSWORD" default:""`
	SmartAPITOTPSecret string `envconfig:"SMARTAPI_TOTP_SECRET" default:""`
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	// .env is optional — absent in production deployments.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if _, err := model.ParsePriceField(cfg.PriceField); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if cfg.HistorySource != "sqlite" && cfg.HistorySource != "smartapi" {
		return nil, fmt.Errorf("config: unknown HISTORY_SOURCE %q", cfg.HistorySource)
	}
	if cfg.HistorySource == "smartapi" && (cfg.SmartAPIKey == "" || cfg.SmartAPIClientCode == "") {
		return nil, fmt.Errorf("config: smartapi source requires SMARTAPI_KEY and SMARTAPI_CLIENT_CODE")
	}
	return &cfg, nil
}

// Field returns the parsed price field. Valid after a successful Load.
func (c *Config) Field() model.PriceField {
	f, _ := model.ParsePriceField(c.PriceField)
	return f
}
