package types

import (
	"github.com/go-playground/validator/v10"
	"github.com/quantrail/quantrail/pkg/errors"
)

// SizingPolicy selects how the risk engine converts equity into a share count.
type SizingPolicy string

const (
	// SizingFixedFraction sizes a fixed fraction of equity divided by price.
	// This is a deliberate approximation; callers needing true risk-based
	// sizing should select SizingRiskBased.
	SizingFixedFraction SizingPolicy = "fixed_fraction"
	// SizingRiskBased sizes from risk_percent * equity / (entry - stop).
	SizingRiskBased SizingPolicy = "risk_based"
)

// RiskConfig holds the per-strategy risk parameters. It is immutable after
// construction; strategy subtypes may supply different values but never
// mutate a live instance.
type RiskConfig struct {
	// RiskPercent is the fraction of equity put at risk per trade, in (0, 1].
	RiskPercent float64 `yaml:"risk_percent" json:"risk_percent" validate:"required,gt=0,lte=1"`
	// StopLossPct sets the initial stop distance from entry, e.g. 0.02 for 2%.
	StopLossPct float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"required,gt=0,lt=1"`
	// TakeProfitPct sets the take-profit distance from entry.
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"required,gt=0"`
	// TrailingStopPct enables a ratcheting stop when non-zero.
	TrailingStopPct float64 `yaml:"trailing_stop_pct" json:"trailing_stop_pct" validate:"gte=0,lt=1"`
	// Sizing selects the position sizing policy. Defaults to fixed_fraction.
	Sizing SizingPolicy `yaml:"sizing" json:"sizing" validate:"omitempty,oneof=fixed_fraction risk_based"`
}

// Validate fails fast on malformed risk parameters.
func (c *RiskConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid risk config", err)
	}

	return nil
}

// SafetyLimits is the process-wide fat-finger configuration. Loaded once at
// startup and read-only thereafter; safe to share across runtimes.
type SafetyLimits struct {
	MaxSharesPerOrder    int64   `yaml:"max_shares_per_order" json:"max_shares_per_order" validate:"required,gt=0"`
	MaxDollarValue       float64 `yaml:"max_dollar_value" json:"max_dollar_value" validate:"required,gt=0"`
	MaxPriceDeviationPct float64 `yaml:"max_price_deviation_pct" json:"max_price_deviation_pct" validate:"required,gt=0"`
}

// Validate fails fast on malformed limits.
func (l *SafetyLimits) Validate() error {
	validate := validator.New()
	if err := validate.Struct(l); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid safety limits", err)
	}

	return nil
}
