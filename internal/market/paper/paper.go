// Package paper provides an in-process market adapter for backtests and
// dry runs. Historical and live data replay a fixed bar series, and
// execution fills every market order immediately at its reference price.
package paper

import (
	"context"
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/market"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// Fill records an executed paper order.
type Fill struct {
	Handle types.OrderHandle
	Order  types.OrderRequest
	Price  float64
}

// Adapter implements all three market capabilities against an in-memory
// bar series. One Adapter serves one symbol.
type Adapter struct {
	mu        sync.Mutex
	connected bool
	symbol    string
	bars      []types.MarketData
	fills     []Fill
	statuses  map[string]types.OrderStatus
	log       *logger.Logger
}

// NewAdapter creates a paper adapter replaying the given bars for symbol.
func NewAdapter(symbol string, bars []types.MarketData, log *logger.Logger) (*Adapter, error) {
	if symbol == "" {
		return nil, errors.New(errors.ErrCodeInvalidSymbol, "paper adapter requires a symbol")
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Adapter{
		symbol:   symbol,
		bars:     bars,
		statuses: make(map[string]types.OrderStatus),
		log:      log,
	}, nil
}

// Adapter returns the capability bundle backed by this paper market.
func (a *Adapter) Adapter() market.Adapter {
	return market.Adapter{
		Connection: a,
		Data:       a,
		Execution:  a,
	}
}

// Connect implements market.Connection. Repeated calls are no-ops.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	a.connected = true
	a.log.Debug("paper market connected", zap.String("symbol", a.symbol))

	return nil
}

// Disconnect implements market.Connection.
func (a *Adapter) Disconnect() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = false
}

// IsConnected implements market.Connection.
func (a *Adapter) IsConnected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.connected
}

// HistoricalBars implements market.DataLoader. It returns the most recent
// lookback bars of the replay series.
func (a *Adapter) HistoricalBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookback int) ([]types.MarketData, error) {
	if symbol != a.symbol {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "paper market holds %s, not %s", a.symbol, symbol)
	}

	if len(a.bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no bars loaded for %s", symbol)
	}

	start := 0
	if lookback > 0 && lookback < len(a.bars) {
		start = len(a.bars) - lookback
	}

	out := make([]types.MarketData, len(a.bars)-start)
	copy(out, a.bars[start:])

	return out, nil
}

// SubscribeBars implements market.DataLoader by replaying the bar series.
// The iterator stops when the series is exhausted or the context is
// cancelled, whichever comes first.
func (a *Adapter) SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		if symbol != a.symbol {
			yield(types.MarketData{}, errors.Newf(errors.ErrCodeDataUnavailable, "paper market holds %s, not %s", a.symbol, symbol))
			return
		}

		for _, bar := range a.bars {
			if ctx.Err() != nil {
				return
			}

			if !yield(bar, nil) {
				return
			}
		}
	}
}

// Submit implements market.ExecutionHandler. Market orders fill at once at
// the order's reference price; limit orders fill at the limit price.
func (a *Adapter) Submit(ctx context.Context, order types.OrderRequest) (types.OrderHandle, error) {
	if err := order.Validate(); err != nil {
		return types.OrderHandle{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.connected {
		return types.OrderHandle{}, errors.New(errors.ErrCodeNotConnected, "paper market is not connected")
	}

	price := order.ReferencePrice
	if order.OrderType == types.OrderTypeLimit {
		price = order.LimitPrice.Unwrap()
	}

	handle := types.OrderHandle{
		ID:     uuid.New().String(),
		Symbol: order.Symbol,
	}

	a.fills = append(a.fills, Fill{
		Handle: handle,
		Order:  order,
		Price:  price,
	})
	a.statuses[handle.ID] = types.OrderStatusFilled

	a.log.Debug("paper fill",
		zap.String("order_id", handle.ID),
		zap.String("side", string(order.Side)),
		zap.Int64("quantity", order.Quantity),
		zap.Float64("price", price))

	return handle, nil
}

// Cancel implements market.ExecutionHandler. Paper orders fill instantly,
// so cancellation only succeeds for orders that were never filled.
func (a *Adapter) Cancel(ctx context.Context, handle types.OrderHandle) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	status, ok := a.statuses[handle.ID]
	if !ok {
		return errors.Newf(errors.ErrCodeOrderNotFound, "unknown order %s", handle.ID)
	}

	if status == types.OrderStatusFilled {
		return errors.Newf(errors.ErrCodeOrderCancelFailed, "order %s already filled", handle.ID)
	}

	a.statuses[handle.ID] = types.OrderStatusCancelled

	return nil
}

// Status implements market.ExecutionHandler.
func (a *Adapter) Status(ctx context.Context, handle types.OrderHandle) (types.OrderStatus, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	status, ok := a.statuses[handle.ID]
	if !ok {
		return "", errors.Newf(errors.ErrCodeOrderNotFound, "unknown order %s", handle.ID)
	}

	return status, nil
}

// Fills returns a copy of all executed orders in submission order.
func (a *Adapter) Fills() []Fill {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]Fill, len(a.fills))
	copy(out, a.fills)

	return out
}
