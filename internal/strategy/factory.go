package strategy

import (
	"github.com/quantrail/quantrail/pkg/errors"
)

// New builds a named strategy from its parameter map. Missing parameters
// fall back to conventional defaults; invalid values fail construction.
func New(name string, params map[string]float64) (Strategy, error) {
	switch name {
	case "sma_crossover":
		return NewSMACrossover(
			intParam(params, "short_period", 10),
			intParam(params, "long_period", 20),
		)
	case "rsi_mean_reversion":
		return NewRSIMeanReversion(
			intParam(params, "period", 14),
			floatParam(params, "oversold", 30),
			floatParam(params, "overbought", 70),
		)
	default:
		return nil, errors.Newf(errors.ErrCodeStrategyNotFound, "unknown strategy %q", name)
	}
}

func intParam(params map[string]float64, key string, fallback int) int {
	if v, ok := params[key]; ok {
		return int(v)
	}

	return fallback
}

func floatParam(params map[string]float64, key string, fallback float64) float64 {
	if v, ok := params[key]; ok {
		return v
	}

	return fallback
}
