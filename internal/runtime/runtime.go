// Package runtime drives one strategy instance against one market adapter.
// It owns the bar loop: accumulate history, ask the strategy for a signal,
// hand the signal to the risk engine, and fan resulting order events out to
// the journal, metrics, and notifier.
package runtime

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/market"
	"github.com/quantrail/quantrail/internal/metrics"
	"github.com/quantrail/quantrail/internal/notify"
	"github.com/quantrail/quantrail/internal/risk"
	"github.com/quantrail/quantrail/internal/safety"
	"github.com/quantrail/quantrail/internal/strategy"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/internal/version"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Journal persists order events. The runtime treats journaling as best
// effort: a write failure is logged and reported but never halts trading.
type Journal interface {
	RecordEvent(event risk.OrderEvent) error
}

// Config holds the per-instance runtime parameters.
type Config struct {
	Symbol    string          `yaml:"symbol" validate:"required"`
	Timeframe types.Timeframe `yaml:"timeframe" validate:"required"`
	// InitialEquity seeds position sizing. Required in both modes.
	InitialEquity float64 `yaml:"initial_equity" validate:"required,gt=0"`
	Risk          types.RiskConfig
	Safety        types.SafetyLimits
}

// Runtime is the per-instrument trading loop. It is not safe for concurrent
// use; run one Runtime per goroutine.
type Runtime struct {
	cfg      Config
	adapter  market.Adapter
	strat    strategy.Strategy
	engine   *risk.Engine
	log      *logger.Logger
	notifier notify.Notifier
	met      *metrics.Metrics
	journal  Journal
	progress bool

	history []types.MarketData
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the runtime logger.
func WithLogger(log *logger.Logger) Option {
	return func(r *Runtime) { r.log = log }
}

// WithNotifier routes runtime events to the given notifier.
func WithNotifier(n notify.Notifier) Option {
	return func(r *Runtime) { r.notifier = n }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Runtime) { r.met = m }
}

// WithJournal attaches an order event journal.
func WithJournal(j Journal) Option {
	return func(r *Runtime) { r.journal = j }
}

// WithProgressBar renders a progress bar during backtests.
func WithProgressBar(enabled bool) Option {
	return func(r *Runtime) { r.progress = enabled }
}

// New wires a runtime from its parts. The strategy's API version is checked
// here so an incompatible strategy fails at load, not mid-run.
func New(cfg Config, adapter market.Adapter, strat strategy.Strategy, opts ...Option) (*Runtime, error) {
	if strat == nil {
		return nil, errors.New(errors.ErrCodeStrategyNotFound, "strategy is required")
	}

	if err := version.CheckStrategyAPI(strat.APIVersion()); err != nil {
		return nil, err
	}

	r := &Runtime{
		cfg:      cfg,
		adapter:  adapter,
		strat:    strat,
		log:      logger.NewNopLogger(),
		notifier: notify.NopNotifier{},
		met:      metrics.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	gate, err := safety.NewGate(cfg.Safety)
	if err != nil {
		return nil, err
	}

	engine, err := risk.NewEngine(
		cfg.Symbol,
		cfg.Risk,
		gate,
		adapter.Execution,
		cfg.InitialEquity,
		risk.WithLogger(r.log),
		risk.WithStrategyName(strat.Name()),
	)
	if err != nil {
		return nil, err
	}

	r.engine = engine
	r.met.Equity.Set(cfg.InitialEquity)

	return r, nil
}

// Position returns the current position.
func (r *Runtime) Position() types.Position {
	return r.engine.Position()
}

// Equity returns the current equity snapshot.
func (r *Runtime) Equity() float64 {
	return r.engine.Equity()
}

// Backtest replays the adapter's full historical series through the
// strategy and returns the aggregate result. The same series and config
// always produce the same result. A backtest aborts on the first hard
// error, returning the coded error alongside the partial result.
func (r *Runtime) Backtest(ctx context.Context) (*Result, error) {
	if err := r.adapter.Connection.Connect(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConnectionFailed, "backtest connect failed", err)
	}
	defer r.adapter.Connection.Disconnect()

	bars, err := r.adapter.Data.HistoricalBars(ctx, r.cfg.Symbol, r.cfg.Timeframe, 0)
	if err != nil {
		return nil, err
	}

	result := newResult(r.cfg.Symbol, r.strat.Name(), r.cfg.InitialEquity)

	var bar *progressbar.ProgressBar
	if r.progress {
		bar = progressbar.Default(int64(len(bars)), "backtesting")
	}

	for _, md := range bars {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrCodeRuntimeHalted, "backtest cancelled", ctx.Err())
		}

		if err := r.step(ctx, md, result); err != nil {
			// Abort on the first hard error so a broken config or strategy is
			// reported, not averaged away across the remaining bars.
			switch errors.GetCode(err) {
			case errors.ErrCodeSafetyViolation, errors.ErrCodeOrderExecutionFailed:
				result.RejectedOrders++
			}

			result.finalize(r.engine.Position(), r.lastClose(), r.engine.Equity())

			r.log.Error("backtest aborted",
				zap.String("symbol", r.cfg.Symbol),
				zap.Time("bar", md.Time),
				zap.Error(err),
			)

			return result, err
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	result.finalize(r.engine.Position(), r.lastClose(), r.engine.Equity())

	r.log.Info("backtest complete",
		zap.String("symbol", r.cfg.Symbol),
		zap.String("strategy", r.strat.Name()),
		zap.Int("bars", len(bars)),
		zap.Int("trades", len(result.Trades)),
		zap.Float64("final_equity", result.FinalEquity),
	)

	return result, nil
}

// Live connects with exponential backoff and consumes the adapter's bar
// stream until the context is cancelled. Per-bar failures are reported and
// skipped; only context cancellation ends the loop.
func (r *Runtime) Live(ctx context.Context) error {
	if err := r.connectWithRetry(ctx); err != nil {
		return err
	}
	defer r.adapter.Connection.Disconnect()

	if err := r.seedHistory(ctx); err != nil {
		return err
	}

	r.notify(ctx, notify.SeverityInfo, fmt.Sprintf("live trading started: %s %s on %s",
		r.strat.Name(), r.cfg.Symbol, r.cfg.Timeframe), nil)

	for {
		streamErr := r.consumeStream(ctx)
		if ctx.Err() != nil {
			r.notify(ctx, notify.SeverityInfo, "live trading stopped", nil)
			return nil
		}

		// The stream ended without cancellation: treat as connection loss,
		// reconnect with backoff, and resume.
		r.notify(ctx, notify.SeverityError, "market data stream lost, reconnecting", map[string]string{
			"symbol": r.cfg.Symbol,
		})
		r.log.Error("stream ended, reconnecting", zap.Error(streamErr))

		if err := r.connectWithRetry(ctx); err != nil {
			return err
		}
	}
}

func (r *Runtime) connectWithRetry(ctx context.Context) error {
	policy := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)

	err := backoff.Retry(func() error {
		if err := r.adapter.Connection.Connect(ctx); err != nil {
			r.log.Warn("connect attempt failed", zap.Error(err))
			return err
		}

		return nil
	}, policy)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed, "could not establish market connection", err)
	}

	return nil
}

// seedHistory pre-loads the strategy warmup window so the first live bar
// can already produce a real signal.
func (r *Runtime) seedHistory(ctx context.Context) error {
	// The first live bar itself counts toward the warmup window, so only
	// warmup-1 bars need to come from history.
	needed := r.strat.WarmupPeriod() - 1
	if needed <= 0 || len(r.history) >= needed {
		return nil
	}

	bars, err := r.adapter.Data.HistoricalBars(ctx, r.cfg.Symbol, r.cfg.Timeframe, needed)
	if err != nil {
		// Missing history is not fatal; the loop warms up on live bars instead.
		r.log.Warn("history seed unavailable, warming up live", zap.Error(err))
		return nil
	}

	r.history = append(r.history, bars...)

	return nil
}

// consumeStream drains the live bar iterator. Returns the last stream error
// once the iterator stops.
func (r *Runtime) consumeStream(ctx context.Context) error {
	var lastErr error

	for md, err := range r.adapter.Data.SubscribeBars(ctx, r.cfg.Symbol, r.cfg.Timeframe) {
		if err != nil {
			lastErr = err
			r.log.Warn("bad bar on stream", zap.Error(err))

			continue
		}

		if err := r.step(ctx, md, nil); err != nil {
			// step already classified and reported the failure; keep trading.
			lastErr = err
		}
	}

	return lastErr
}

// liveHistoryLimit bounds the bar history kept in live mode. Strategies
// only look back over their warmup window; a backtest keeps the full
// series for its result statistics.
const liveHistoryLimit = 1024

// step runs one bar through strategy, risk engine, and the fan-out sinks.
// result is nil in live mode.
func (r *Runtime) step(ctx context.Context, md types.MarketData, result *Result) error {
	r.history = append(r.history, md)

	if result == nil {
		if limit := max(r.strat.WarmupPeriod(), liveHistoryLimit); len(r.history) > limit {
			r.history = r.history[len(r.history)-limit:]
		}
	}

	signal := types.Signal{Type: types.SignalTypeHold, Time: md.Time, Symbol: md.Symbol}

	if len(r.history) >= r.strat.WarmupPeriod() {
		var err error

		signal, err = r.strat.Signal(r.history, md, r.engine.Position())
		if err != nil {
			if errors.IsInsufficientDataError(err) {
				signal = types.Signal{Type: types.SignalTypeHold, Time: md.Time, Symbol: md.Symbol}
			} else {
				r.log.Error("strategy signal failed", zap.Error(err))
				return err
			}
		}
	}

	r.met.Signals.WithLabelValues(string(signal.Type)).Inc()

	events, err := r.engine.Step(ctx, signal.Type, md)

	for _, event := range events {
		r.handleEvent(ctx, event, result)
	}

	if err != nil {
		r.reportStepError(ctx, md, err)
		return err
	}

	r.met.Equity.Set(r.engine.Equity())

	if r.engine.Position().IsOpen() {
		r.met.OpenPositions.Set(1)
	} else {
		r.met.OpenPositions.Set(0)
	}

	return nil
}

// handleEvent applies one accepted order event to equity, journal, metrics,
// and the notifier.
func (r *Runtime) handleEvent(ctx context.Context, event risk.OrderEvent, result *Result) {
	r.met.OrdersSubmitted.WithLabelValues(event.Order.Symbol, string(event.Order.Side)).Inc()

	if event.Kind == risk.OrderEventClose {
		pnl := event.Prev.UnrealizedPnL(event.Order.ReferencePrice)
		r.engine.SetEquity(r.engine.Equity() + pnl)
		r.met.ExitReasons.WithLabelValues(event.Order.Reason.Reason).Inc()

		if result != nil {
			result.recordClose(event, pnl)
		}

		r.notify(ctx, notify.SeverityInfo,
			fmt.Sprintf("closed %s %d %s at %.2f (%s, pnl %.2f)",
				event.Prev.Side, event.Prev.Quantity, event.Order.Symbol,
				event.Order.ReferencePrice, event.Order.Reason.Reason, pnl),
			map[string]string{
				"symbol":   event.Order.Symbol,
				"order_id": event.Handle.ID,
				"reason":   event.Order.Reason.Reason,
			})
	} else {
		r.notify(ctx, notify.SeverityInfo,
			fmt.Sprintf("opened %s %d %s at %.2f",
				event.Position.Side, event.Order.Quantity, event.Order.Symbol,
				event.Order.ReferencePrice),
			map[string]string{
				"symbol":   event.Order.Symbol,
				"order_id": event.Handle.ID,
			})
	}

	if r.journal != nil {
		if err := r.journal.RecordEvent(event); err != nil {
			r.log.Error("journal write failed", zap.Error(err))
			r.notify(ctx, notify.SeverityError, "journal write failed: "+err.Error(), nil)
		}
	}
}

// reportStepError classifies a step failure. Safety rejections and broker
// failures are critical: an operator must know every time an order was
// blocked or lost.
func (r *Runtime) reportStepError(ctx context.Context, md types.MarketData, err error) {
	switch errors.GetCode(err) {
	case errors.ErrCodeSafetyViolation:
		r.met.SafetyViolations.Inc()
		r.met.OrdersRejected.WithLabelValues(r.cfg.Symbol, "safety").Inc()
		r.notify(ctx, notify.SeverityCritical, "order blocked by safety gate: "+err.Error(), map[string]string{
			"symbol": r.cfg.Symbol,
		})
	case errors.ErrCodeOrderExecutionFailed:
		r.met.ExecutionErrors.Inc()
		r.met.OrdersRejected.WithLabelValues(r.cfg.Symbol, "execution").Inc()
		r.notify(ctx, notify.SeverityCritical, "order submission failed: "+err.Error(), map[string]string{
			"symbol": r.cfg.Symbol,
		})
	default:
		r.log.Error("bar processing failed",
			zap.String("symbol", r.cfg.Symbol),
			zap.Time("bar", md.Time),
			zap.Error(err),
		)
	}
}

func (r *Runtime) notify(ctx context.Context, severity notify.Severity, message string, kv map[string]string) {
	event := notify.Event{
		Severity: severity,
		Message:  message,
		Context:  kv,
		Time:     time.Now(),
	}

	if err := r.notifier.Notify(ctx, event); err != nil {
		r.log.Warn("notification delivery failed", zap.Error(err))
	}
}

func (r *Runtime) lastClose() float64 {
	if len(r.history) == 0 {
		return 0
	}

	return r.history[len(r.history)-1].Close
}
