package strategy

import (
	"fmt"

	"github.com/quantrail/quantrail/internal/indicator"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
)

// RSIMeanReversion trades the thesis that price returns toward its rolling
// center after extreme deviation: buy when RSI drops below the oversold
// threshold, sell when it rises above the overbought threshold.
type RSIMeanReversion struct {
	period     int
	oversold   float64
	overbought float64
}

// NewRSIMeanReversion creates the strategy with the given RSI window and
// thresholds. Typical values are period 14, oversold 30, overbought 70.
func NewRSIMeanReversion(period int, oversold, overbought float64) (*RSIMeanReversion, error) {
	if period <= 0 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "period must be positive, got %d", period)
	}

	if oversold <= 0 || overbought >= 100 || oversold >= overbought {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "thresholds must satisfy 0 < oversold < overbought < 100, got %.1f/%.1f", oversold, overbought)
	}

	return &RSIMeanReversion{
		period:     period,
		oversold:   oversold,
		overbought: overbought,
	}, nil
}

// Name implements Strategy.
func (s *RSIMeanReversion) Name() string {
	return fmt.Sprintf("rsi_reversion_%d", s.period)
}

// APIVersion implements Strategy.
func (s *RSIMeanReversion) APIVersion() string {
	return "1.0.0"
}

// WarmupPeriod implements Strategy.
func (s *RSIMeanReversion) WarmupPeriod() int {
	return s.period + 1
}

// Signal implements Strategy.
func (s *RSIMeanReversion) Signal(history []types.MarketData, bar types.MarketData, position types.Position) (types.Signal, error) {
	if len(history) < s.WarmupPeriod() {
		return holdSignal(s.Name(), bar, "warming up"), nil
	}

	rsi, err := indicator.RSI(history, s.period)
	if err != nil {
		return types.Signal{}, err
	}

	switch {
	case rsi <= s.oversold && position.Side != types.PositionSideLong:
		return types.Signal{
			Time:   bar.Time,
			Type:   types.SignalTypeBuy,
			Name:   s.Name(),
			Reason: fmt.Sprintf("RSI %.2f below oversold threshold %.1f", rsi, s.oversold),
			Symbol: bar.Symbol,
		}, nil
	case rsi >= s.overbought && position.Side != types.PositionSideShort:
		return types.Signal{
			Time:   bar.Time,
			Type:   types.SignalTypeSell,
			Name:   s.Name(),
			Reason: fmt.Sprintf("RSI %.2f above overbought threshold %.1f", rsi, s.overbought),
			Symbol: bar.Symbol,
		}, nil
	default:
		return holdSignal(s.Name(), bar, fmt.Sprintf("RSI %.2f inside neutral band", rsi)), nil
	}
}
