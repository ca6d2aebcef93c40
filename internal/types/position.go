package types

import (
	"time"

	"github.com/shopspring/decimal"
)

type PositionSide string

const (
	PositionSideFlat  PositionSide = "flat"
	PositionSideLong  PositionSide = "long"
	PositionSideShort PositionSide = "short"
)

// Position represents the single open position of one strategy instance on
// one instrument. It is owned exclusively by the risk engine and mutated
// only through its transition function; callers receive value copies.
type Position struct {
	Symbol          string       `yaml:"symbol" json:"symbol" csv:"symbol"`
	Side            PositionSide `yaml:"side" json:"side" csv:"side"`
	Quantity        int64        `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice      float64      `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	StopPrice       float64      `yaml:"stop_price" json:"stop_price" csv:"stop_price"`
	TakeProfitPrice float64      `yaml:"take_profit_price" json:"take_profit_price" csv:"take_profit_price"`
	OpenedAt        time.Time    `yaml:"opened_at" json:"opened_at" csv:"opened_at"`
}

// IsOpen reports whether the position holds any exposure.
func (p Position) IsOpen() bool {
	return p.Side != PositionSideFlat && p.Side != "" && p.Quantity > 0
}

// UnrealizedPnL returns the mark-to-market profit of the position at the
// given price. Uses decimal arithmetic to avoid drift over long runs.
func (p Position) UnrealizedPnL(price float64) float64 {
	if !p.IsOpen() {
		return 0
	}

	entry := decimal.NewFromFloat(p.EntryPrice)
	mark := decimal.NewFromFloat(price)
	qty := decimal.NewFromInt(p.Quantity)

	var diff decimal.Decimal
	if p.Side == PositionSideLong {
		diff = mark.Sub(entry)
	} else {
		diff = entry.Sub(mark)
	}

	result, _ := diff.Mul(qty).Float64()

	return result
}

// ExitSide returns the order side that closes the position.
func (p Position) ExitSide() Side {
	if p.Side == PositionSideShort {
		return SideBuy
	}

	return SideSell
}
