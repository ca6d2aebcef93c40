package runtime

import (
	"time"

	"github.com/quantrail/quantrail/internal/risk"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/shopspring/decimal"
)

// ClosedTrade is one completed round trip recorded during a backtest.
type ClosedTrade struct {
	Symbol     string             `yaml:"symbol" json:"symbol"`
	Side       types.PositionSide `yaml:"side" json:"side"`
	Quantity   int64              `yaml:"quantity" json:"quantity"`
	EntryPrice float64            `yaml:"entry_price" json:"entry_price"`
	ExitPrice  float64            `yaml:"exit_price" json:"exit_price"`
	ExitReason string             `yaml:"exit_reason" json:"exit_reason"`
	OpenedAt   time.Time          `yaml:"opened_at" json:"opened_at"`
	ClosedAt   time.Time          `yaml:"closed_at" json:"closed_at"`
	PnL        float64            `yaml:"pnl" json:"pnl"`
}

// Result aggregates one backtest run.
type Result struct {
	Symbol        string        `yaml:"symbol" json:"symbol"`
	Strategy      string        `yaml:"strategy" json:"strategy"`
	InitialEquity float64       `yaml:"initial_equity" json:"initial_equity"`
	FinalEquity   float64       `yaml:"final_equity" json:"final_equity"`
	TotalReturn   float64       `yaml:"total_return" json:"total_return"`
	RealizedPnL   float64       `yaml:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL float64       `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	WinRate       float64       `yaml:"win_rate" json:"win_rate"`
	MaxDrawdown   float64       `yaml:"max_drawdown" json:"max_drawdown"`
	Trades        []ClosedTrade `yaml:"trades" json:"trades"`
	// RejectedOrders counts bars where the step failed (safety gate or
	// simulated broker rejection).
	RejectedOrders int `yaml:"rejected_orders" json:"rejected_orders"`

	// OpenPosition is the position left open when the series ended, if any.
	OpenPosition types.Position `yaml:"open_position" json:"open_position"`

	peak     decimal.Decimal
	drawdown decimal.Decimal
}

func newResult(symbol, strategyName string, initialEquity float64) *Result {
	return &Result{
		Symbol:        symbol,
		Strategy:      strategyName,
		InitialEquity: initialEquity,
		peak:          decimal.NewFromFloat(initialEquity),
	}
}

// recordClose appends a closed trade and updates the running drawdown.
func (r *Result) recordClose(event risk.OrderEvent, pnl float64) {
	r.Trades = append(r.Trades, ClosedTrade{
		Symbol:     event.Order.Symbol,
		Side:       event.Prev.Side,
		Quantity:   event.Prev.Quantity,
		EntryPrice: event.Prev.EntryPrice,
		ExitPrice:  event.Order.ReferencePrice,
		ExitReason: event.Order.Reason.Reason,
		OpenedAt:   event.Prev.OpenedAt,
		ClosedAt:   event.Order.Timestamp,
		PnL:        pnl,
	})

	r.RealizedPnL += pnl

	equity := decimal.NewFromFloat(r.InitialEquity).Add(decimal.NewFromFloat(r.RealizedPnL))
	if equity.GreaterThan(r.peak) {
		r.peak = equity
	} else if r.peak.IsPositive() {
		dd := r.peak.Sub(equity).Div(r.peak)
		if dd.GreaterThan(r.drawdown) {
			r.drawdown = dd
		}
	}
}

// finalize computes the derived statistics once the series is exhausted.
func (r *Result) finalize(open types.Position, lastPrice, finalEquity float64) {
	r.FinalEquity = finalEquity
	r.OpenPosition = open

	if open.IsOpen() {
		r.UnrealizedPnL = open.UnrealizedPnL(lastPrice)
	}

	if r.InitialEquity > 0 {
		ret := decimal.NewFromFloat(finalEquity).
			Sub(decimal.NewFromFloat(r.InitialEquity)).
			Div(decimal.NewFromFloat(r.InitialEquity))
		r.TotalReturn, _ = ret.Float64()
	}

	if len(r.Trades) > 0 {
		wins := 0
		for _, t := range r.Trades {
			if t.PnL > 0 {
				wins++
			}
		}

		r.WinRate = float64(wins) / float64(len(r.Trades))
	}

	r.MaxDrawdown, _ = r.drawdown.Float64()
}
