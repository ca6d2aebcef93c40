// Package polygon serves historical equity bars from the Polygon.io REST
// API. Polygon is a data vendor, not a broker: the adapter implements the
// connection and data-loading capabilities only, and live streaming is not
// offered on the aggregates endpoint this adapter uses.
package polygon

import (
	"context"
	"iter"
	"strings"
	"sync"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// AggsLister abstracts the Polygon aggregates iterator for testing.
type AggsLister interface {
	ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) AggsIter
}

// AggsIter is the subset of the Polygon iterator the adapter consumes.
type AggsIter interface {
	Next() bool
	Item() models.Agg
	Err() error
}

// realLister wraps the actual polygon client.
type realLister struct {
	client *polygon.Client
}

func (r *realLister) ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) AggsIter {
	return r.client.ListAggs(ctx, params, opts...)
}

// Adapter implements the connection and data capabilities against Polygon.
type Adapter struct {
	lister AggsLister
	log    *logger.Logger

	mu        sync.Mutex
	connected bool

	// now is injected for tests; defaults to time.Now.
	now func() time.Time
}

// NewAdapter creates a Polygon adapter with the given API key.
func NewAdapter(apiKey string, log *logger.Logger) (*Adapter, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "polygon API key is required")
	}

	return newAdapterWithLister(&realLister{client: polygon.New(apiKey)}, log), nil
}

func newAdapterWithLister(lister AggsLister, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Adapter{
		lister: lister,
		log:    log,
		now:    time.Now,
	}
}

// Connect implements market.Connection. The REST client is stateless, so
// connecting only marks the session open. Idempotent.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = true

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

// HistoricalBars implements market.DataLoader over the aggregates endpoint.
func (a *Adapter) HistoricalBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookback int) ([]types.MarketData, error) {
	multiplier, timespan, err := timeframeToAggsParams(timeframe)
	if err != nil {
		return nil, err
	}

	end := a.now()
	start := end.Add(-rangeFor(timeframe, lookback))

	params := models.ListAggsParams{
		Ticker:     symbol,
		Multiplier: multiplier,
		Timespan:   timespan,
		From:       models.Millis(start),
		To:         models.Millis(end),
	}.WithLimit(50000)

	it := a.lister.ListAggs(ctx, params)

	var bars []types.MarketData

	for it.Next() {
		agg := it.Item()
		bars = append(bars, types.MarketData{
			Symbol: symbol,
			Time:   time.Time(agg.Timestamp),
			Open:   agg.Open,
			High:   agg.High,
			Low:    agg.Low,
			Close:  agg.Close,
			Volume: agg.Volume,
		})
	}

	if err := it.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list polygon aggregates", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no aggregates for %s at %s", symbol, timeframe)
	}

	if lookback > 0 && len(bars) > lookback {
		bars = bars[len(bars)-lookback:]
	}

	a.log.Debug("polygon aggregates fetched",
		zap.String("symbol", symbol),
		zap.Int("bars", len(bars)),
	)

	return bars, nil
}

// SubscribeBars implements market.DataLoader. The aggregates API has no
// push stream, so subscribing reports streaming as unsupported; callers
// pair this adapter with a streaming-capable execution venue for live runs.
func (a *Adapter) SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		yield(types.MarketData{}, errors.Newf(errors.ErrCodeStreamingUnsupported,
			"polygon adapter does not stream live bars for %s", symbol))
	}
}

// timeframeToAggsParams converts a bar timeframe into Polygon multiplier
// and timespan values.
func timeframeToAggsParams(timeframe types.Timeframe) (int, models.Timespan, error) {
	switch {
	case strings.HasSuffix(string(timeframe), "m"):
		return minutesOf(timeframe), models.Minute, nil
	case strings.HasSuffix(string(timeframe), "h"):
		return hoursOf(timeframe), models.Hour, nil
	case timeframe == types.TimeframeOneDay:
		return 1, models.Day, nil
	default:
		return 0, "", errors.Newf(errors.ErrCodeInvalidTimeframe, "unsupported timeframe %s", timeframe)
	}
}

func minutesOf(timeframe types.Timeframe) int {
	return int(timeframe.Duration() / time.Minute)
}

func hoursOf(timeframe types.Timeframe) int {
	return int(timeframe.Duration() / time.Hour)
}

// rangeFor picks a query window wide enough to contain lookback bars,
// padded generously to survive weekends and market holidays.
func rangeFor(timeframe types.Timeframe, lookback int) time.Duration {
	if lookback <= 0 {
		lookback = 5000
	}

	return time.Duration(lookback) * timeframe.Duration() * 4
}
