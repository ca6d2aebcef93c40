// Package indicator provides the rolling-window calculations the reference
// strategies consume. Each function is pure over the bar slice it receives;
// the risk engine treats indicator output as opaque numeric input.
package indicator

import (
	"math"

	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
)

// SMA returns the simple moving average of the last period closes.
func SMA(bars []types.MarketData, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(bars) < period {
		return 0, errors.NewInsufficientDataError(period, len(bars), symbolOf(bars), "not enough bars for SMA")
	}

	sum := 0.0
	for i := len(bars) - period; i < len(bars); i++ {
		sum += bars[i].Close
	}

	return sum / float64(period), nil
}

// EMA returns the exponential moving average of the closes, seeded with the
// SMA of the first period bars.
func EMA(bars []types.MarketData, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(bars) < period {
		return 0, errors.NewInsufficientDataError(period, len(bars), symbolOf(bars), "not enough bars for EMA")
	}

	seed := 0.0
	for i := 0; i < period; i++ {
		seed += bars[i].Close
	}

	ema := seed / float64(period)
	multiplier := 2.0 / float64(period+1)

	for i := period; i < len(bars); i++ {
		ema = (bars[i].Close-ema)*multiplier + ema
	}

	return ema, nil
}

// RSI returns the Wilder relative strength index over the last period bars.
// Output is in [0, 100]; an all-gains window returns 100.
func RSI(bars []types.MarketData, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(bars) < period+1 {
		return 0, errors.NewInsufficientDataError(period+1, len(bars), symbolOf(bars), "not enough bars for RSI")
	}

	var gains, losses float64

	start := len(bars) - period

	for i := start; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}

	if losses == 0 {
		return 100, nil
	}

	rs := (gains / float64(period)) / (losses / float64(period))

	return 100 - 100/(1+rs), nil
}

// ATR returns the average true range over the last period bars.
func ATR(bars []types.MarketData, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "period must be positive, got %d", period)
	}

	if len(bars) < period+1 {
		return 0, errors.NewInsufficientDataError(period+1, len(bars), symbolOf(bars), "not enough bars for ATR")
	}

	sum := 0.0

	start := len(bars) - period

	for i := start; i < len(bars); i++ {
		highLow := bars[i].High - bars[i].Low
		highClose := math.Abs(bars[i].High - bars[i-1].Close)
		lowClose := math.Abs(bars[i].Low - bars[i-1].Close)
		sum += math.Max(highLow, math.Max(highClose, lowClose))
	}

	return sum / float64(period), nil
}

func symbolOf(bars []types.MarketData) string {
	if len(bars) == 0 {
		return ""
	}

	return bars[0].Symbol
}
