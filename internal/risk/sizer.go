package risk

import (
	"math"

	"github.com/quantrail/quantrail/internal/types"
)

// PositionSizer converts account equity into an integer share count for a
// new entry. Implementations must be pure: same inputs, same output.
type PositionSizer interface {
	// Quantity returns the share count for an entry at entryPrice with the
	// initial stop at stopPrice. Returns 0 when no affordable size exists.
	Quantity(equity, entryPrice, stopPrice float64) int64
}

// FixedFractionSizer allocates a fixed fraction of equity divided by price.
// This is a deliberate approximation of risk-based sizing; it ignores the
// stop distance entirely.
type FixedFractionSizer struct {
	Fraction float64
}

// Quantity implements PositionSizer.
func (s FixedFractionSizer) Quantity(equity, entryPrice, _ float64) int64 {
	if equity <= 0 || entryPrice <= 0 || s.Fraction <= 0 {
		return 0
	}

	return int64(math.Floor(equity * s.Fraction / entryPrice))
}

// RiskBasedSizer sizes so that a stop-out loses at most RiskPercent of
// equity: quantity = equity * risk / |entry - stop|.
type RiskBasedSizer struct {
	RiskPercent float64
}

// Quantity implements PositionSizer.
func (s RiskBasedSizer) Quantity(equity, entryPrice, stopPrice float64) int64 {
	distance := math.Abs(entryPrice - stopPrice)
	if equity <= 0 || distance <= 0 || s.RiskPercent <= 0 {
		return 0
	}

	return int64(math.Floor(equity * s.RiskPercent / distance))
}

// SizerFor returns the sizer selected by the risk config.
func SizerFor(cfg types.RiskConfig) PositionSizer {
	if cfg.Sizing == types.SizingRiskBased {
		return RiskBasedSizer{RiskPercent: cfg.RiskPercent}
	}

	return FixedFractionSizer{Fraction: cfg.RiskPercent}
}
