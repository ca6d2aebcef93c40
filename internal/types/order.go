package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"github.com/quantrail/quantrail/pkg/errors"
)

type Side string

type OrderType string

type OrderStatus string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

const (
	OrderTypeMarket OrderType = "market"
	OrderTypeLimit  OrderType = "limit"
)

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusFilled          OrderStatus = "filled"
	OrderStatusPartiallyFilled OrderStatus = "partially_filled"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRejected        OrderStatus = "rejected"
)

const (
	OrderReasonEntrySignal  string = "entry_signal"
	OrderReasonReversal     string = "reversal"
	OrderReasonStopLoss     string = "stop_loss"
	OrderReasonTakeProfit   string = "take_profit"
	OrderReasonTrailingStop string = "trailing_stop"
)

type Reason struct {
	Reason  string `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	Message string `yaml:"message" json:"message" csv:"message"`
}

// OrderRequest is a candidate order produced by the risk engine. It is
// consumed read-only by the safety gate and then handed unchanged to the
// execution handler.
type OrderRequest struct {
	Symbol    string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Side      Side      `yaml:"side" json:"side" csv:"side" validate:"required,oneof=buy sell"`
	Quantity  int64     `yaml:"quantity" json:"quantity" csv:"quantity" validate:"required,gt=0"`
	OrderType OrderType `yaml:"order_type" json:"order_type" csv:"order_type" validate:"required,oneof=market limit"`
	// LimitPrice is required for limit orders and absent for market orders.
	LimitPrice optional.Option[float64] `yaml:"limit_price" json:"limit_price" csv:"limit_price"`
	// ReferencePrice is the last known market price at the time the order
	// was constructed. The safety gate uses it for notional and deviation checks.
	ReferencePrice float64   `yaml:"reference_price" json:"reference_price" csv:"reference_price" validate:"required,gt=0"`
	Reason         Reason    `yaml:"reason" json:"reason" csv:"reason" validate:"required"`
	StrategyName   string    `yaml:"strategy_name" json:"strategy_name" csv:"strategy_name"`
	Timestamp      time.Time `yaml:"timestamp" json:"timestamp" csv:"timestamp"`
}

// Validate validates the OrderRequest struct.
func (o *OrderRequest) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order request", err)
	}

	if o.OrderType == OrderTypeLimit {
		if o.LimitPrice.IsNone() {
			return errors.New(errors.ErrCodeInvalidOrder, "limit order requires a limit price")
		}

		if o.LimitPrice.Unwrap() <= 0 {
			return errors.Newf(errors.ErrCodeInvalidOrder, "limit price must be positive, got %f", o.LimitPrice.Unwrap())
		}
	}

	return nil
}

// Notional returns the dollar exposure of the order (quantity x reference price).
func (o *OrderRequest) Notional() float64 {
	return float64(o.Quantity) * o.ReferencePrice
}

// OrderHandle identifies a submitted order at the execution handler.
// The runtime treats it as opaque beyond the symbol used for routing.
type OrderHandle struct {
	ID     string `yaml:"id" json:"id" csv:"id"`
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol"`
}
