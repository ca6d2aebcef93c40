// Package risk implements the signal-to-order state machine. For each bar it
// converts the strategy signal and the live price into position transitions:
// stop-loss and take-profit exits, trailing-stop ratcheting, reversals, and
// new entries. Every emitted order passes the safety gate before it reaches
// the execution handler.
package risk

import (
	"context"

	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/market"
	"github.com/quantrail/quantrail/internal/safety"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// OrderEventKind tags whether an emitted order opened or closed a position.
type OrderEventKind string

const (
	OrderEventOpen  OrderEventKind = "open"
	OrderEventClose OrderEventKind = "close"
)

// OrderEvent records one order the engine emitted during a step, together
// with the position state before and after the transition it realized.
type OrderEvent struct {
	Kind   OrderEventKind
	Order  types.OrderRequest
	Handle types.OrderHandle
	// Prev is the position before the transition, Position the one after.
	Prev     types.Position
	Position types.Position
}

// transition is one planned sub-step: an optional order plus the position
// state that takes effect once the order is accepted. A transition without
// an order is a pure state change (trailing-stop ratchet).
type transition struct {
	kind  OrderEventKind
	order *types.OrderRequest
	next  types.Position
}

// Engine owns the single position of one strategy instance on one
// instrument. Step must never be called concurrently for the same engine;
// the strategy runtime guarantees sequential per-instrument stepping.
type Engine struct {
	symbol       string
	strategyName string
	cfg          types.RiskConfig
	gate         *safety.Gate
	exec         market.ExecutionHandler
	sizer        PositionSizer
	log          *logger.Logger

	position types.Position
	equity   float64
	trailed  bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithSizer overrides the sizing policy selected by the risk config.
func WithSizer(sizer PositionSizer) Option {
	return func(e *Engine) { e.sizer = sizer }
}

// WithLogger sets the engine logger.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithStrategyName tags emitted orders with the producing strategy.
func WithStrategyName(name string) Option {
	return func(e *Engine) { e.strategyName = name }
}

// NewEngine creates a risk engine. The gate and execution handler are
// required; the engine is the only component that may submit orders, which
// keeps the gate impossible to bypass.
func NewEngine(symbol string, cfg types.RiskConfig, gate *safety.Gate, exec market.ExecutionHandler, initialEquity float64, opts ...Option) (*Engine, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "symbol is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if gate == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "safety gate is required")
	}

	if exec == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "execution handler is required")
	}

	if initialEquity <= 0 {
		return nil, errors.Newf(errors.ErrCodeInvalidConfiguration, "initial equity must be positive, got %f", initialEquity)
	}

	engine := &Engine{
		symbol:       symbol,
		strategyName: "",
		cfg:          cfg,
		gate:         gate,
		exec:         exec,
		sizer:        SizerFor(cfg),
		log:          logger.NewNopLogger(),
		position:     types.Position{Symbol: symbol, Side: types.PositionSideFlat},
		equity:       initialEquity,
		trailed:      false,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine, nil
}

// Position returns a copy of the current position.
func (e *Engine) Position() types.Position {
	return e.position
}

// Equity returns the equity the engine currently sizes against.
func (e *Engine) Equity() float64 {
	return e.equity
}

// SetEquity updates the equity used for position sizing. The runtime calls
// this as account value changes; the engine never computes equity itself.
func (e *Engine) SetEquity(equity float64) {
	e.equity = equity
}

// Step processes one bar. Transition priority: exit checks run before the
// reversal close, which runs before any new entry, so a reversal always
// closes the open position first and never leaves two opposing positions.
//
// The step is planned without mutating state, then every planned order is
// validated by the safety gate; a rejection rolls the whole step back (no
// state change, nothing submitted) and surfaces the violation. Submission
// failures are per-transition: state already advanced by an accepted close
// stays, the failed transition is not applied, and the error is surfaced —
// the engine never assumes an unconfirmed fill.
func (e *Engine) Step(ctx context.Context, signal types.SignalType, bar types.MarketData) ([]OrderEvent, error) {
	if bar.Symbol != "" && bar.Symbol != e.symbol {
		return nil, errors.Newf(errors.ErrCodeInvalidSymbol, "bar symbol %s does not match engine symbol %s", bar.Symbol, e.symbol)
	}

	plan := e.plan(signal, bar)

	for _, t := range plan {
		if t.order == nil {
			continue
		}

		if err := e.gate.Validate(*t.order); err != nil {
			e.log.Warn("order rejected by safety gate",
				zap.String("symbol", e.symbol),
				zap.String("reason", t.order.Reason.Reason),
				zap.Error(err),
			)

			return nil, err
		}
	}

	var events []OrderEvent

	prev := e.position

	for _, t := range plan {
		if t.order == nil {
			// Pure state change (trailing ratchet), no broker interaction.
			e.position = t.next
			e.trailed = true

			continue
		}

		handle, err := e.exec.Submit(ctx, *t.order)
		if err != nil {
			return events, errors.Wrap(errors.ErrCodeOrderExecutionFailed, "order submission failed", err)
		}

		event := OrderEvent{
			Kind:     t.kind,
			Order:    *t.order,
			Handle:   handle,
			Prev:     prev,
			Position: t.next,
		}

		e.position = t.next
		if t.kind == OrderEventClose {
			e.trailed = false
		}

		prev = t.next
		events = append(events, event)
	}

	return events, nil
}

// plan computes the ordered list of transitions for this step without
// touching engine state.
func (e *Engine) plan(signal types.SignalType, bar types.MarketData) []transition {
	var steps []transition

	pos := e.position
	price := bar.Close

	// 1. Exit check: stop, take-profit, or ratcheted trailing stop.
	if pos.IsOpen() {
		if reason, breached := e.exitReason(pos, price); breached {
			steps = append(steps, e.closeTransition(pos, bar, reason))
			pos = e.flat()
		} else if next, moved := e.ratchet(pos, price); moved {
			steps = append(steps, transition{kind: "", order: nil, next: next})
			pos = next
		}
	}

	// 2. Reversal check: an opposite signal closes first, then the entry
	// check below runs against the now-flat state.
	if pos.IsOpen() {
		reversal := (pos.Side == types.PositionSideLong && signal == types.SignalTypeSell) ||
			(pos.Side == types.PositionSideShort && signal == types.SignalTypeBuy)
		if reversal {
			steps = append(steps, e.closeTransition(pos, bar, types.OrderReasonReversal))
			pos = e.flat()
		}
	}

	// 3. Entry check.
	if !pos.IsOpen() && (signal == types.SignalTypeBuy || signal == types.SignalTypeSell) {
		if t, ok := e.entryTransition(signal, bar); ok {
			steps = append(steps, t)
		}
	}

	// 4. Hold / flat with no exit condition: nothing planned.
	return steps
}

// exitReason reports whether the close price breaches the position's stop or
// take-profit level.
func (e *Engine) exitReason(pos types.Position, price float64) (string, bool) {
	switch pos.Side {
	case types.PositionSideLong:
		if price <= pos.StopPrice {
			if e.trailed {
				return types.OrderReasonTrailingStop, true
			}

			return types.OrderReasonStopLoss, true
		}

		if price >= pos.TakeProfitPrice {
			return types.OrderReasonTakeProfit, true
		}
	case types.PositionSideShort:
		if price >= pos.StopPrice {
			if e.trailed {
				return types.OrderReasonTrailingStop, true
			}

			return types.OrderReasonStopLoss, true
		}

		if price <= pos.TakeProfitPrice {
			return types.OrderReasonTakeProfit, true
		}
	}

	return "", false
}

// ratchet moves the trailing stop favorably with price. For a long position
// the stop is monotonically non-decreasing; for a short it is a
// monotonically non-increasing ceiling. It never loosens.
func (e *Engine) ratchet(pos types.Position, price float64) (types.Position, bool) {
	if e.cfg.TrailingStopPct <= 0 {
		return pos, false
	}

	switch pos.Side {
	case types.PositionSideLong:
		candidate := price * (1 - e.cfg.TrailingStopPct)
		if candidate > pos.StopPrice {
			pos.StopPrice = candidate

			return pos, true
		}
	case types.PositionSideShort:
		candidate := price * (1 + e.cfg.TrailingStopPct)
		if candidate < pos.StopPrice {
			pos.StopPrice = candidate

			return pos, true
		}
	}

	return pos, false
}

func (e *Engine) flat() types.Position {
	return types.Position{Symbol: e.symbol, Side: types.PositionSideFlat}
}

func (e *Engine) closeTransition(pos types.Position, bar types.MarketData, reason string) transition {
	order := types.OrderRequest{
		Symbol:         e.symbol,
		Side:           pos.ExitSide(),
		Quantity:       pos.Quantity,
		OrderType:      types.OrderTypeMarket,
		ReferencePrice: bar.Close,
		Reason:         types.Reason{Reason: reason, Message: "closing " + string(pos.Side) + " position"},
		StrategyName:   e.strategyName,
		Timestamp:      bar.Time,
	}

	return transition{kind: OrderEventClose, order: &order, next: e.flat()}
}

func (e *Engine) entryTransition(signal types.SignalType, bar types.MarketData) (transition, bool) {
	price := bar.Close

	var side types.Side

	var posSide types.PositionSide

	var stopPrice, takeProfitPrice float64

	if signal == types.SignalTypeBuy {
		side = types.SideBuy
		posSide = types.PositionSideLong
		stopPrice = price * (1 - e.cfg.StopLossPct)
		takeProfitPrice = price * (1 + e.cfg.TakeProfitPct)
	} else {
		side = types.SideSell
		posSide = types.PositionSideShort
		stopPrice = price * (1 + e.cfg.StopLossPct)
		takeProfitPrice = price * (1 - e.cfg.TakeProfitPct)
	}

	quantity := e.sizer.Quantity(e.equity, price, stopPrice)
	if quantity <= 0 {
		e.log.Warn("entry skipped, no affordable size",
			zap.String("symbol", e.symbol),
			zap.Float64("equity", e.equity),
			zap.Float64("price", price),
		)

		return transition{}, false
	}

	order := types.OrderRequest{
		Symbol:         e.symbol,
		Side:           side,
		Quantity:       quantity,
		OrderType:      types.OrderTypeMarket,
		ReferencePrice: price,
		Reason:         types.Reason{Reason: types.OrderReasonEntrySignal, Message: "opening " + string(posSide) + " position"},
		StrategyName:   e.strategyName,
		Timestamp:      bar.Time,
	}

	next := types.Position{
		Symbol:          e.symbol,
		Side:            posSide,
		Quantity:        quantity,
		EntryPrice:      price,
		StopPrice:       stopPrice,
		TakeProfitPrice: takeProfitPrice,
		OpenedAt:        bar.Time,
	}

	return transition{kind: OrderEventOpen, order: &order, next: next}, true
}
