// Package market defines the capability interfaces a broker or exchange
// integration must provide. An Adapter is the product of one implementation
// of each capability; the strategy runtime and risk engine never inspect
// which concrete implementation they hold.
package market

import (
	"context"
	"iter"

	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
)

// Connection manages the session with a market backend.
type Connection interface {
	// Connect establishes the session. It is idempotent: calling it while
	// already connected is a no-op success.
	Connect(ctx context.Context) error
	// Disconnect tears the session down. Safe to call when not connected.
	Disconnect()
	// IsConnected reports whether the session is active.
	IsConnected() bool
}

// DataLoader fetches historical bars and streams live ones.
type DataLoader interface {
	// HistoricalBars returns up to lookback bars for the symbol at the given
	// timeframe, ordered by strictly increasing timestamp. Returns an error
	// with code ErrCodeDataUnavailable when the backend has no data for the
	// range. Callers apply their own deadline via ctx.
	HistoricalBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookback int) ([]types.MarketData, error)
	// SubscribeBars returns an iterator that yields live bars until the
	// context is cancelled. The iterator yields bar and error pairs; a
	// non-nil error does not necessarily end the stream.
	SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error]
}

// ExecutionHandler submits, cancels, and inspects orders.
type ExecutionHandler interface {
	// Submit places the order and returns a handle for tracking. A returned
	// error means the order is not working at the broker; callers must not
	// assume a fill.
	Submit(ctx context.Context, order types.OrderRequest) (types.OrderHandle, error)
	// Cancel cancels a previously submitted order.
	Cancel(ctx context.Context, handle types.OrderHandle) error
	// Status returns the current status of the order.
	Status(ctx context.Context, handle types.OrderHandle) (types.OrderStatus, error)
}

// Adapter composes the three capabilities for one market. It is created at
// startup, torn down at shutdown, and shared by reference across runtimes.
type Adapter struct {
	Connection Connection
	Data       DataLoader
	Execution  ExecutionHandler
}

// NewAdapter builds an Adapter and rejects missing capabilities up front.
func NewAdapter(conn Connection, data DataLoader, exec ExecutionHandler) (Adapter, error) {
	if conn == nil || data == nil || exec == nil {
		return Adapter{}, errors.New(errors.ErrCodeInvalidAdapter, "adapter requires connection, data loader, and execution handler")
	}

	return Adapter{
		Connection: conn,
		Data:       data,
		Execution:  exec,
	}, nil
}
