// Package config loads and validates the trader's YAML configuration. All
// runtime behavior is driven from here; nothing in the core reads
// environment variables or flags directly.
package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Mode selects how the runtime consumes bars.
type Mode string

const (
	ModeBacktest Mode = "backtest"
	ModeLive     Mode = "live"
)

// AdapterKind selects the market backend.
type AdapterKind string

const (
	AdapterPaper   AdapterKind = "paper"
	AdapterDataset AdapterKind = "dataset"
	AdapterBinance AdapterKind = "binance"
	AdapterPolygon AdapterKind = "polygon"
)

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name string `yaml:"name" validate:"required"`
	// Params are strategy-specific; unknown keys are rejected by the
	// strategy constructor, not here.
	Params map[string]float64 `yaml:"params"`
}

// BinanceConfig holds Binance credentials.
type BinanceConfig struct {
	APIKey     string `yaml:"api_key"`
	SecretKey  string `yaml:"secret_key"`
	BaseURL    string `yaml:"base_url"`
	UseTestnet bool   `yaml:"use_testnet"`
}

// PolygonConfig holds the Polygon API key.
type PolygonConfig struct {
	APIKey string `yaml:"api_key"`
}

// NotifyConfig configures event delivery.
type NotifyConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// JournalConfig configures order event journaling.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Config is the full trader configuration.
type Config struct {
	Mode    Mode        `yaml:"mode" validate:"required,oneof=backtest live"`
	Adapter AdapterKind `yaml:"adapter" validate:"required,oneof=paper dataset binance polygon"`

	Symbol        string          `yaml:"symbol" validate:"required"`
	Timeframe     types.Timeframe `yaml:"timeframe" validate:"required,oneof=1m 5m 15m 1h 4h 1d"`
	InitialEquity float64         `yaml:"initial_equity" validate:"required,gt=0"`

	// DataFile feeds the dataset adapter (parquet or CSV).
	DataFile string `yaml:"data_file"`

	Risk     types.RiskConfig   `yaml:"risk"`
	Safety   types.SafetyLimits `yaml:"safety"`
	Strategy StrategyConfig     `yaml:"strategy"`

	Binance BinanceConfig `yaml:"binance"`
	Polygon PolygonConfig `yaml:"polygon"`

	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
	Journal JournalConfig `yaml:"journal"`

	Debug bool `yaml:"debug"`
}

// Load reads and validates a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read config file %s", path)
	}

	return Parse(data)
}

// Parse decodes and validates raw YAML config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the config's cross-field invariants.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := c.Risk.Validate(); err != nil {
		return err
	}

	if err := c.Safety.Validate(); err != nil {
		return err
	}

	if c.Adapter == AdapterDataset && c.DataFile == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "dataset adapter requires data_file")
	}

	if c.Adapter == AdapterBinance && c.Mode == ModeLive && c.Binance.APIKey == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "live binance trading requires api_key")
	}

	if c.Adapter == AdapterPolygon {
		if c.Polygon.APIKey == "" {
			return errors.New(errors.ErrCodeInvalidConfiguration, "polygon adapter requires api_key")
		}

		if c.Mode == ModeLive {
			return errors.New(errors.ErrCodeInvalidConfiguration, "polygon adapter is backtest-only, it does not stream live bars")
		}
	}

	return nil
}
