// Package binance adapts the Binance spot API to the market capability
// interfaces. The REST and websocket clients are hidden behind narrow
// service interfaces so tests can substitute mocks without network access.
package binance

import (
	"context"
	"iter"
	"strconv"
	"sync"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/quantrail/quantrail/internal/logger"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"go.uber.org/zap"
)

// Service interfaces for mocking the Binance API.

// KlinesService fetches historical candles.
type KlinesService interface {
	Symbol(symbol string) KlinesService
	Interval(interval string) KlinesService
	Limit(limit int) KlinesService
	Do(ctx context.Context) ([]*binance.Kline, error)
}

// CreateOrderService places orders.
type CreateOrderService interface {
	Symbol(symbol string) CreateOrderService
	Side(side binance.SideType) CreateOrderService
	Type(orderType binance.OrderType) CreateOrderService
	Quantity(quantity string) CreateOrderService
	Price(price string) CreateOrderService
	TimeInForce(tif binance.TimeInForceType) CreateOrderService
	Do(ctx context.Context) (*binance.CreateOrderResponse, error)
}

// CancelOrderService cancels a working order.
type CancelOrderService interface {
	Symbol(symbol string) CancelOrderService
	OrderID(orderID int64) CancelOrderService
	Do(ctx context.Context) (*binance.CancelOrderResponse, error)
}

// GetOrderService fetches a single order's state.
type GetOrderService interface {
	Symbol(symbol string) GetOrderService
	OrderID(orderID int64) GetOrderService
	Do(ctx context.Context) (*binance.Order, error)
}

// PingService checks API reachability.
type PingService interface {
	Do(ctx context.Context) error
}

// Client abstracts the Binance client for testing.
type Client interface {
	NewKlinesService() KlinesService
	NewCreateOrderService() CreateOrderService
	NewCancelOrderService() CancelOrderService
	NewGetOrderService() GetOrderService
	NewPingService() PingService
}

// wsServeFunc matches binance.WsKlineServe and is swappable in tests.
type wsServeFunc func(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)

// realClient wraps the actual binance.Client.
type realClient struct {
	client *binance.Client
}

func (r *realClient) NewKlinesService() KlinesService {
	return &realKlinesService{service: r.client.NewKlinesService()}
}

func (r *realClient) NewCreateOrderService() CreateOrderService {
	return &realCreateOrderService{service: r.client.NewCreateOrderService()}
}

func (r *realClient) NewCancelOrderService() CancelOrderService {
	return &realCancelOrderService{service: r.client.NewCancelOrderService()}
}

func (r *realClient) NewGetOrderService() GetOrderService {
	return &realGetOrderService{service: r.client.NewGetOrderService()}
}

func (r *realClient) NewPingService() PingService {
	return &realPingService{service: r.client.NewPingService()}
}

// Real service wrappers

type realKlinesService struct {
	service *binance.KlinesService
}

func (s *realKlinesService) Symbol(symbol string) KlinesService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realKlinesService) Interval(interval string) KlinesService {
	s.service = s.service.Interval(interval)

	return s
}

func (s *realKlinesService) Limit(limit int) KlinesService {
	s.service = s.service.Limit(limit)

	return s
}

func (s *realKlinesService) Do(ctx context.Context) ([]*binance.Kline, error) {
	return s.service.Do(ctx)
}

type realCreateOrderService struct {
	service *binance.CreateOrderService
}

func (s *realCreateOrderService) Symbol(symbol string) CreateOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCreateOrderService) Side(side binance.SideType) CreateOrderService {
	s.service = s.service.Side(side)

	return s
}

func (s *realCreateOrderService) Type(orderType binance.OrderType) CreateOrderService {
	s.service = s.service.Type(orderType)

	return s
}

func (s *realCreateOrderService) Quantity(quantity string) CreateOrderService {
	s.service = s.service.Quantity(quantity)

	return s
}

func (s *realCreateOrderService) Price(price string) CreateOrderService {
	s.service = s.service.Price(price)

	return s
}

func (s *realCreateOrderService) TimeInForce(tif binance.TimeInForceType) CreateOrderService {
	s.service = s.service.TimeInForce(tif)

	return s
}

func (s *realCreateOrderService) Do(ctx context.Context) (*binance.CreateOrderResponse, error) {
	return s.service.Do(ctx)
}

type realCancelOrderService struct {
	service *binance.CancelOrderService
}

func (s *realCancelOrderService) Symbol(symbol string) CancelOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realCancelOrderService) OrderID(orderID int64) CancelOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realCancelOrderService) Do(ctx context.Context) (*binance.CancelOrderResponse, error) {
	return s.service.Do(ctx)
}

type realGetOrderService struct {
	service *binance.GetOrderService
}

func (s *realGetOrderService) Symbol(symbol string) GetOrderService {
	s.service = s.service.Symbol(symbol)

	return s
}

func (s *realGetOrderService) OrderID(orderID int64) GetOrderService {
	s.service = s.service.OrderID(orderID)

	return s
}

func (s *realGetOrderService) Do(ctx context.Context) (*binance.Order, error) {
	return s.service.Do(ctx)
}

type realPingService struct {
	service *binance.PingService
}

func (s *realPingService) Do(ctx context.Context) error {
	return s.service.Do(ctx)
}

// Config holds Binance credentials and endpoint selection.
type Config struct {
	APIKey    string `yaml:"api_key"`
	SecretKey string `yaml:"secret_key"`
	// BaseURL overrides the default endpoint. Takes precedence over UseTestnet.
	BaseURL    string `yaml:"base_url"`
	UseTestnet bool   `yaml:"use_testnet"`
}

// Adapter implements the market capabilities against Binance spot.
type Adapter struct {
	client  Client
	wsServe wsServeFunc
	log     *logger.Logger

	mu        sync.Mutex
	connected bool
}

// NewAdapter creates a Binance adapter from credentials.
func NewAdapter(cfg Config, log *logger.Logger) *Adapter {
	if cfg.UseTestnet {
		binance.UseTestnet = true
	}

	client := binance.NewClient(cfg.APIKey, cfg.SecretKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}

	return newAdapterWithClient(&realClient{client: client}, binance.WsKlineServe, log)
}

// newAdapterWithClient wires a custom client and websocket dialer. Used by
// tests to substitute mocks.
func newAdapterWithClient(client Client, wsServe wsServeFunc, log *logger.Logger) *Adapter {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Adapter{
		client:  client,
		wsServe: wsServe,
		log:     log,
	}
}

// Connect implements market.Connection. The first call verifies API
// reachability with a ping; subsequent calls on an open session are no-ops.
func (a *Adapter) Connect(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.connected {
		return nil
	}

	if err := a.client.NewPingService().Do(ctx); err != nil {
		return errors.Wrap(errors.ErrCodeConnectionFailed, "binance ping failed", err)
	}

	a.connected = true
	a.log.Info("binance session established")

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

// HistoricalBars implements market.DataLoader using the klines endpoint.
// Timeframe strings map directly onto Binance interval names.
func (a *Adapter) HistoricalBars(ctx context.Context, symbol string, timeframe types.Timeframe, lookback int) ([]types.MarketData, error) {
	service := a.client.NewKlinesService().
		Symbol(symbol).
		Interval(string(timeframe))

	if lookback > 0 {
		service = service.Limit(lookback)
	}

	klines, err := service.Do(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to fetch klines from Binance", err)
	}

	if len(klines) == 0 {
		return nil, errors.Newf(errors.ErrCodeDataUnavailable, "no klines for %s at %s", symbol, timeframe)
	}

	bars := make([]types.MarketData, 0, len(klines))
	for _, k := range klines {
		bars = append(bars, klineToMarketData(symbol, k))
	}

	return bars, nil
}

// SubscribeBars implements market.DataLoader over the kline websocket. Only
// closed candles are yielded; the in-progress candle updates are dropped so
// downstream consumers see each bar exactly once.
func (a *Adapter) SubscribeBars(ctx context.Context, symbol string, timeframe types.Timeframe) iter.Seq2[types.MarketData, error] {
	return func(yield func(types.MarketData, error) bool) {
		type item struct {
			bar types.MarketData
			err error
		}

		items := make(chan item, 64)

		handler := func(event *binance.WsKlineEvent) {
			if event == nil || !event.Kline.IsFinal {
				return
			}

			bar, err := wsKlineToMarketData(symbol, event)

			select {
			case items <- item{bar: bar, err: err}:
			default:
				// Consumer is behind; dropping is preferable to blocking the
				// websocket read loop.
				a.log.Warn("dropping bar, subscriber too slow", zap.String("symbol", symbol))
			}
		}

		errHandler := func(err error) {
			select {
			case items <- item{err: errors.Wrap(errors.ErrCodeConnectionLost, "kline stream error", err)}:
			default:
			}
		}

		doneC, stopC, err := a.wsServe(symbol, string(timeframe), handler, errHandler)
		if err != nil {
			yield(types.MarketData{}, errors.Wrap(errors.ErrCodeConnectionFailed, "failed to open kline stream", err))
			return
		}

		defer close(stopC)

		for {
			select {
			case <-ctx.Done():
				return
			case <-doneC:
				yield(types.MarketData{}, errors.New(errors.ErrCodeStreamClosed, "kline stream closed by server"))
				return
			case it := <-items:
				if !yield(it.bar, it.err) {
					return
				}
			}
		}
	}
}

// Submit implements market.ExecutionHandler.
func (a *Adapter) Submit(ctx context.Context, order types.OrderRequest) (types.OrderHandle, error) {
	if err := order.Validate(); err != nil {
		return types.OrderHandle{}, err
	}

	var side binance.SideType

	switch order.Side {
	case types.SideBuy:
		side = binance.SideTypeBuy
	case types.SideSell:
		side = binance.SideTypeSell
	default:
		return types.OrderHandle{}, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order side: %s", order.Side)
	}

	service := a.client.NewCreateOrderService().
		Symbol(order.Symbol).
		Side(side).
		Quantity(strconv.FormatInt(order.Quantity, 10))

	switch order.OrderType {
	case types.OrderTypeMarket:
		service = service.Type(binance.OrderTypeMarket)
	case types.OrderTypeLimit:
		service = service.
			Type(binance.OrderTypeLimit).
			Price(strconv.FormatFloat(order.LimitPrice.Unwrap(), 'f', -1, 64)).
			TimeInForce(binance.TimeInForceTypeGTC)
	default:
		return types.OrderHandle{}, errors.Newf(errors.ErrCodeInvalidOrder, "unsupported order type: %s", order.OrderType)
	}

	resp, err := service.Do(ctx)
	if err != nil {
		return types.OrderHandle{}, errors.Wrap(errors.ErrCodeOrderExecutionFailed, "failed to place order on Binance", err)
	}

	a.log.Info("order placed",
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.Int64("quantity", order.Quantity),
		zap.Int64("binance_order_id", resp.OrderID),
	)

	return types.OrderHandle{
		ID:     strconv.FormatInt(resp.OrderID, 10),
		Symbol: order.Symbol,
	}, nil
}

// Cancel implements market.ExecutionHandler.
func (a *Adapter) Cancel(ctx context.Context, handle types.OrderHandle) error {
	orderID, err := strconv.ParseInt(handle.ID, 10, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binance order id %q", handle.ID)
	}

	_, err = a.client.NewCancelOrderService().
		Symbol(handle.Symbol).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return errors.Wrap(errors.ErrCodeOrderCancelFailed, "failed to cancel order on Binance", err)
	}

	return nil
}

// Status implements market.ExecutionHandler.
func (a *Adapter) Status(ctx context.Context, handle types.OrderHandle) (types.OrderStatus, error) {
	orderID, err := strconv.ParseInt(handle.ID, 10, 64)
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binance order id %q", handle.ID)
	}

	order, err := a.client.NewGetOrderService().
		Symbol(handle.Symbol).
		OrderID(orderID).
		Do(ctx)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeOrderNotFound, "failed to fetch order from Binance", err)
	}

	return mapOrderStatus(order.Status), nil
}

// Helper functions

func mapOrderStatus(status binance.OrderStatusType) types.OrderStatus {
	switch status {
	case binance.OrderStatusTypeNew:
		return types.OrderStatusPending
	case binance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case binance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case binance.OrderStatusTypeCanceled, binance.OrderStatusTypePendingCancel, binance.OrderStatusTypeExpired:
		return types.OrderStatusCancelled
	case binance.OrderStatusTypeRejected:
		return types.OrderStatusRejected
	default:
		return types.OrderStatusRejected
	}
}

func millisToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func klineToMarketData(symbol string, k *binance.Kline) types.MarketData {
	open, _ := strconv.ParseFloat(k.Open, 64)
	high, _ := strconv.ParseFloat(k.High, 64)
	low, _ := strconv.ParseFloat(k.Low, 64)
	closePrice, _ := strconv.ParseFloat(k.Close, 64)
	volume, _ := strconv.ParseFloat(k.Volume, 64)

	return types.MarketData{
		Symbol: symbol,
		Time:   millisToTime(k.OpenTime),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}
}

func wsKlineToMarketData(symbol string, event *binance.WsKlineEvent) (types.MarketData, error) {
	k := event.Kline

	open, err := strconv.ParseFloat(k.Open, 64)
	if err != nil {
		return types.MarketData{}, errors.Wrap(errors.ErrCodeDataParseFailed, "bad open price on stream", err)
	}

	high, _ := strconv.ParseFloat(k.High, 64)
	low, _ := strconv.ParseFloat(k.Low, 64)
	closePrice, _ := strconv.ParseFloat(k.Close, 64)
	volume, _ := strconv.ParseFloat(k.Volume, 64)

	return types.MarketData{
		Symbol: symbol,
		Time:   millisToTime(k.StartTime),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, nil
}
