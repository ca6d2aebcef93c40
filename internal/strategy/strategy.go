// Package strategy defines the trading strategy contract and the reference
// strategies shipped with the runtime.
package strategy

import (
	"github.com/quantrail/quantrail/internal/types"
)

// Strategy turns market data into directional signals. Strategies must be
// stateless: position and order management is handled entirely by the risk
// engine, and risk parameters live in a shared RiskConfig value rather than
// in the strategy itself. The same history in always yields the same
// signal out.
type Strategy interface {
	// Name returns the name of the strategy.
	Name() string
	// APIVersion returns the strategy API version the implementation was
	// written against. The runtime rejects incompatible strategies at load.
	APIVersion() string
	// WarmupPeriod returns the number of bars required before Signal can
	// produce meaningful output. The runtime feeds Hold for earlier bars.
	WarmupPeriod() int
	// Signal computes the directional signal for the latest bar. history
	// contains every bar seen so far in timestamp order, ending with bar
	// itself. position is a read-only copy of the current position.
	Signal(history []types.MarketData, bar types.MarketData, position types.Position) (types.Signal, error)
}

func holdSignal(name string, bar types.MarketData, reason string) types.Signal {
	return types.Signal{
		Time:   bar.Time,
		Type:   types.SignalTypeHold,
		Name:   name,
		Reason: reason,
		Symbol: bar.Symbol,
	}
}
