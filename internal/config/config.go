package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Config holds all sync settings, populated from environment variables.
type Config struct {
	// Kobo connection.
	BaseURL    string `env:"KOBO_BASE_URL" envDefault:"https://kf.kobotoolbox.org"`
	Token      string `env:"KOBO_TOKEN"`
	AssetUID   string `env:"KOBO_ASSET_UID"`
	ExportName string `env:"KOBO_EXPORT_NAME" envDefault:"portal_csv"`

	// Output documents consumed by the portal frontend.
	OutGeoJSON string `env:"OUT_GEOJSON" envDefault:"data/puntos.geojson"`
	OutResumen string `env:"OUT_RESUMEN" envDefault:"data/resumen.json"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	// The listing endpoint answers quickly; rendering the CSV can take
	// minutes on large forms, hence the separate budgets.
	ListTimeout time.Duration `env:"HTTP_TIMEOUT_LIST" envDefault:"120s"`
	DataTimeout time.Duration `env:"HTTP_TIMEOUT_DATA" envDefault:"240s"`

	// Pushgateway metrics delivery. Empty URL disables the push.
	PushgatewayURL string `env:"PUSHGATEWAY_URL"`
	PushgatewayJob string `env:"PUSHGATEWAY_JOB" envDefault:"kobo-portal-etl"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	if cfg.BaseURL == "" {
		return nil, errors.New("KOBO_BASE_URL is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("KOBO_TOKEN is required")
	}
	if cfg.AssetUID == "" {
		return nil, errors.New("KOBO_ASSET_UID is required")
	}
	if cfg.ExportName == "" {
		return nil, errors.New("KOBO_EXPORT_NAME is required")
	}
	if cfg.ListTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT_LIST must be positive")
	}
	if cfg.DataTimeout <= 0 {
		return nil, errors.New("HTTP_TIMEOUT_DATA must be positive")
	}

	return cfg, nil
}
