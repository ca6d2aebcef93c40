package runtime

import (
	"context"
	"iter"
	"sync"
	"testing"
	"time"

	"github.com/quantrail/quantrail/internal/market"
	"github.com/quantrail/quantrail/internal/market/paper"
	"github.com/quantrail/quantrail/internal/notify"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedStrategy replays a fixed signal sequence indexed by bar count.
type scriptedStrategy struct {
	signals []types.SignalType
	api     string
}

func (s *scriptedStrategy) Name() string { return "scripted" }

func (s *scriptedStrategy) APIVersion() string {
	if s.api != "" {
		return s.api
	}

	return "1.0.0"
}

func (s *scriptedStrategy) WarmupPeriod() int { return 1 }

func (s *scriptedStrategy) Signal(history []types.MarketData, bar types.MarketData, position types.Position) (types.Signal, error) {
	idx := len(history) - 1

	sig := types.SignalTypeHold
	if idx < len(s.signals) {
		sig = s.signals[idx]
	}

	return types.Signal{Time: bar.Time, Type: sig, Name: s.Name(), Symbol: bar.Symbol}, nil
}

// capturingNotifier records every event it receives.
type capturingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (c *capturingNotifier) Notify(ctx context.Context, event notify.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)

	return nil
}

func (c *capturingNotifier) bySeverity(s notify.Severity) []notify.Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []notify.Event

	for _, e := range c.events {
		if e.Severity == s {
			out = append(out, e)
		}
	}

	return out
}

func barsWithCloses(symbol string, closes ...float64) []types.MarketData {
	base := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	bars := make([]types.MarketData, 0, len(closes))

	for i, close := range closes {
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: 5000,
		})
	}

	return bars
}

func testConfig() Config {
	return Config{
		Symbol:        "AAPL",
		Timeframe:     types.TimeframeOneMinute,
		InitialEquity: 100000,
		Risk: types.RiskConfig{
			RiskPercent:   0.01,
			StopLossPct:   0.02,
			TakeProfitPct: 0.04,
			Sizing:        types.SizingFixedFraction,
		},
		Safety: types.SafetyLimits{
			MaxSharesPerOrder:    100,
			MaxDollarValue:       5000,
			MaxPriceDeviationPct: 0.05,
		},
	}
}

func newPaperRuntime(t *testing.T, cfg Config, closes []float64, signals []types.SignalType, opts ...Option) (*Runtime, *paper.Adapter) {
	t.Helper()

	adapter, err := paper.NewAdapter(cfg.Symbol, barsWithCloses(cfg.Symbol, closes...), nil)
	require.NoError(t, err)

	rt, err := New(cfg, adapter.Adapter(), &scriptedStrategy{signals: signals}, opts...)
	require.NoError(t, err)

	return rt, adapter
}

func TestNewRejectsIncompatibleStrategy(t *testing.T) {
	adapter, err := paper.NewAdapter("AAPL", barsWithCloses("AAPL", 100), nil)
	require.NoError(t, err)

	_, err = New(testConfig(), adapter.Adapter(), &scriptedStrategy{api: "2.0.0"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeVersionMismatch, errors.GetCode(err))
}

func TestBacktestRoundTrip(t *testing.T) {
	closes := []float64{100, 100, 100, 101, 102, 102, 102}
	signals := []types.SignalType{
		types.SignalTypeHold, types.SignalTypeHold, types.SignalTypeBuy,
		types.SignalTypeHold, types.SignalTypeHold, types.SignalTypeSell,
		types.SignalTypeHold,
	}

	notifier := &capturingNotifier{}
	rt, adapter := newPaperRuntime(t, testConfig(), closes, signals, WithNotifier(notifier))

	result, err := rt.Backtest(context.Background())
	require.NoError(t, err)

	// Entry at 100 sizes floor(100000 * 0.01 / 100) = 10 shares; the sell at
	// 102 closes the long for +20 and reverses into a short.
	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, types.PositionSideLong, trade.Side)
	assert.Equal(t, int64(10), trade.Quantity)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 102.0, trade.ExitPrice)
	assert.Equal(t, types.OrderReasonReversal, trade.ExitReason)
	assert.InDelta(t, 20.0, trade.PnL, 1e-9)

	assert.InDelta(t, 100020.0, result.FinalEquity, 1e-9)
	assert.InDelta(t, 20.0, result.RealizedPnL, 1e-9)
	assert.Equal(t, 1.0, result.WinRate)
	assert.Equal(t, 0, result.RejectedOrders)

	// The reversal leaves a short open at 102; flat price means no
	// unrealized PnL.
	assert.Equal(t, types.PositionSideShort, result.OpenPosition.Side)
	assert.InDelta(t, 0.0, result.UnrealizedPnL, 1e-9)

	// Three fills hit the paper market: open long, close long, open short.
	assert.Len(t, adapter.Fills(), 3)

	// Every open and close produced an info event.
	assert.Len(t, notifier.bySeverity(notify.SeverityInfo), 3)
}

func TestBacktestIsDeterministic(t *testing.T) {
	closes := []float64{100, 101, 99, 100, 103, 102, 98, 100}
	signals := []types.SignalType{
		types.SignalTypeHold, types.SignalTypeBuy, types.SignalTypeHold,
		types.SignalTypeHold, types.SignalTypeSell, types.SignalTypeHold,
		types.SignalTypeBuy, types.SignalTypeHold,
	}

	run := func() (*Result, []paper.Fill) {
		rt, adapter := newPaperRuntime(t, testConfig(), closes, signals)
		result, err := rt.Backtest(context.Background())
		require.NoError(t, err)

		return result, adapter.Fills()
	}

	first, firstFills := run()
	second, secondFills := run()

	assert.Equal(t, first.FinalEquity, second.FinalEquity)
	assert.Equal(t, first.Trades, second.Trades)
	require.Equal(t, len(firstFills), len(secondFills))

	for i := range firstFills {
		assert.Equal(t, firstFills[i].Order, secondFills[i].Order)
		assert.Equal(t, firstFills[i].Price, secondFills[i].Price)
	}
}

func TestBacktestAbortsOnSafetyRejection(t *testing.T) {
	cfg := testConfig()
	cfg.Safety.MaxSharesPerOrder = 5 // entry would be 10 shares

	closes := []float64{100, 100, 100}
	signals := []types.SignalType{types.SignalTypeHold, types.SignalTypeBuy, types.SignalTypeHold}

	notifier := &capturingNotifier{}
	rt, adapter := newPaperRuntime(t, cfg, closes, signals, WithNotifier(notifier))

	result, err := rt.Backtest(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSafetyViolation, errors.GetCode(err))

	// The partial result up to the aborting bar is still returned.
	require.NotNil(t, result)
	assert.Equal(t, 1, result.RejectedOrders)
	assert.Empty(t, result.Trades)
	assert.Empty(t, adapter.Fills())
	assert.False(t, rt.Position().IsOpen())

	critical := notifier.bySeverity(notify.SeverityCritical)
	require.Len(t, critical, 1)
	assert.Contains(t, critical[0].Message, "safety gate")
}

// erroringStrategy fails on the bar at the given index.
type erroringStrategy struct {
	scriptedStrategy
	failAt int
}

func (s *erroringStrategy) Signal(history []types.MarketData, bar types.MarketData, position types.Position) (types.Signal, error) {
	if len(history)-1 == s.failAt {
		return types.Signal{}, errors.New(errors.ErrCodeStrategyConfigError, "bad indicator window")
	}

	return s.scriptedStrategy.Signal(history, bar, position)
}

func TestBacktestAbortsOnStrategyError(t *testing.T) {
	cfg := testConfig()

	adapter, err := paper.NewAdapter(cfg.Symbol, barsWithCloses(cfg.Symbol, 100, 100, 100), nil)
	require.NoError(t, err)

	rt, err := New(cfg, adapter.Adapter(), &erroringStrategy{failAt: 1})
	require.NoError(t, err)

	result, err := rt.Backtest(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStrategyConfigError, errors.GetCode(err))

	// A strategy failure is not an order rejection.
	require.NotNil(t, result)
	assert.Equal(t, 0, result.RejectedOrders)
	assert.Empty(t, adapter.Fills())
}

func TestBacktestStopLossUpdatesEquity(t *testing.T) {
	// Entry at 100 with a 2% stop; the drop to 97 breaches it.
	closes := []float64{100, 100, 99, 97, 97}
	signals := []types.SignalType{types.SignalTypeHold, types.SignalTypeBuy}

	rt, _ := newPaperRuntime(t, testConfig(), closes, signals)

	result, err := rt.Backtest(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Trades, 1)
	assert.Equal(t, types.OrderReasonStopLoss, result.Trades[0].ExitReason)
	assert.InDelta(t, -30.0, result.Trades[0].PnL, 1e-9)
	assert.InDelta(t, 99970.0, result.FinalEquity, 1e-9)
	assert.Equal(t, 0.0, result.WinRate)
	assert.Greater(t, result.MaxDrawdown, 0.0)
}

// streamEndCanceller wraps a data loader and cancels the given context once
// the underlying live stream is exhausted, simulating an orderly shutdown.
type streamEndCanceller struct {
	market.DataLoader
	cancel context.CancelFunc
}

func (s streamEndCanceller) SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		for bar, err := range s.DataLoader.SubscribeBars(ctx, symbol, timeframe) {
			if !yield(bar, err) {
				return
			}
		}

		s.cancel()
	}
}

func TestLiveTradesStreamedBars(t *testing.T) {
	cfg := testConfig()
	closes := []float64{100, 100, 100, 102, 102}
	signals := []types.SignalType{
		types.SignalTypeHold, types.SignalTypeBuy, types.SignalTypeHold,
		types.SignalTypeSell, types.SignalTypeHold,
	}

	adapter, err := paper.NewAdapter(cfg.Symbol, barsWithCloses(cfg.Symbol, closes...), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bundle := adapter.Adapter()
	bundle.Data = streamEndCanceller{DataLoader: bundle.Data, cancel: cancel}

	notifier := &capturingNotifier{}

	rt, err := New(cfg, bundle, &scriptedStrategy{signals: signals}, WithNotifier(notifier))
	require.NoError(t, err)

	require.NoError(t, rt.Live(ctx))

	// The live loop trades the same way the backtest would: open long at
	// 100, reversal close plus short entry at 102.
	fills := adapter.Fills()
	require.Len(t, fills, 3)
	assert.Equal(t, types.SideBuy, fills[0].Order.Side)
	assert.Equal(t, types.OrderReasonReversal, fills[1].Order.Reason.Reason)

	assert.False(t, adapter.IsConnected())
	assert.NotEmpty(t, notifier.bySeverity(notify.SeverityInfo))
}

func TestLiveHistoryIsBounded(t *testing.T) {
	cfg := testConfig()

	closes := make([]float64, liveHistoryLimit+200)
	for i := range closes {
		closes[i] = 100
	}

	adapter, err := paper.NewAdapter(cfg.Symbol, barsWithCloses(cfg.Symbol, closes...), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bundle := adapter.Adapter()
	bundle.Data = streamEndCanceller{DataLoader: bundle.Data, cancel: cancel}

	rt, err := New(cfg, bundle, &scriptedStrategy{})
	require.NoError(t, err)

	require.NoError(t, rt.Live(ctx))

	assert.Len(t, rt.history, liveHistoryLimit)
}
