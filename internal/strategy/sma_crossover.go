package strategy

import (
	"fmt"

	"github.com/quantrail/quantrail/internal/indicator"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
)

// SMACrossover buys when the short moving average crosses above the long one
// and sells when it crosses below.
type SMACrossover struct {
	shortPeriod int
	longPeriod  int
}

// NewSMACrossover creates an SMA crossover strategy with the given windows.
func NewSMACrossover(shortPeriod, longPeriod int) (*SMACrossover, error) {
	if shortPeriod <= 0 || longPeriod <= 0 {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "periods must be positive, got short=%d long=%d", shortPeriod, longPeriod)
	}

	if shortPeriod >= longPeriod {
		return nil, errors.Newf(errors.ErrCodeStrategyConfigError, "short period %d must be below long period %d", shortPeriod, longPeriod)
	}

	return &SMACrossover{
		shortPeriod: shortPeriod,
		longPeriod:  longPeriod,
	}, nil
}

// Name implements Strategy.
func (s *SMACrossover) Name() string {
	return fmt.Sprintf("sma_cross_%d_%d", s.shortPeriod, s.longPeriod)
}

// APIVersion implements Strategy.
func (s *SMACrossover) APIVersion() string {
	return "1.0.0"
}

// WarmupPeriod implements Strategy.
// One extra bar beyond the long window so the previous averages exist.
func (s *SMACrossover) WarmupPeriod() int {
	return s.longPeriod + 1
}

// Signal implements Strategy.
func (s *SMACrossover) Signal(history []types.MarketData, bar types.MarketData, _ types.Position) (types.Signal, error) {
	if len(history) < s.WarmupPeriod() {
		return holdSignal(s.Name(), bar, "warming up"), nil
	}

	shortMA, err := indicator.SMA(history, s.shortPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	longMA, err := indicator.SMA(history, s.longPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	previous := history[:len(history)-1]

	prevShortMA, err := indicator.SMA(previous, s.shortPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	prevLongMA, err := indicator.SMA(previous, s.longPeriod)
	if err != nil {
		return types.Signal{}, err
	}

	switch {
	case shortMA > longMA && prevShortMA <= prevLongMA:
		return types.Signal{
			Time:   bar.Time,
			Type:   types.SignalTypeBuy,
			Name:   s.Name(),
			Reason: fmt.Sprintf("short MA %.4f crossed above long MA %.4f", shortMA, longMA),
			Symbol: bar.Symbol,
		}, nil
	case shortMA < longMA && prevShortMA >= prevLongMA:
		return types.Signal{
			Time:   bar.Time,
			Type:   types.SignalTypeSell,
			Name:   s.Name(),
			Reason: fmt.Sprintf("short MA %.4f crossed below long MA %.4f", shortMA, longMA),
			Symbol: bar.Symbol,
		}, nil
	default:
		return holdSignal(s.Name(), bar, "no crossover"), nil
	}
}
