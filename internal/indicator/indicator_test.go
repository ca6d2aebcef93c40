package indicator

import (
	"testing"
	"time"

	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barsFromCloses(closes ...float64) []types.MarketData {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]types.MarketData, 0, len(closes))

	for i, close := range closes {
		bars = append(bars, types.MarketData{
			Symbol: "TEST",
			Time:   base.Add(time.Duration(i) * time.Minute),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 100,
		})
	}

	return bars
}

func TestSMA(t *testing.T) {
	bars := barsFromCloses(1, 2, 3, 4, 5)

	value, err := SMA(bars, 5)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, value, 1e-9)

	// Only the trailing window counts.
	value, err = SMA(bars, 2)
	require.NoError(t, err)
	assert.InDelta(t, 4.5, value, 1e-9)
}

func TestSMAInsufficientData(t *testing.T) {
	bars := barsFromCloses(1, 2)

	_, err := SMA(bars, 5)
	require.Error(t, err)
	assert.True(t, errors.IsInsufficientDataError(err))
}

func TestSMAInvalidPeriod(t *testing.T) {
	_, err := SMA(barsFromCloses(1, 2, 3), 0)
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidParameter, errors.GetCode(err))
}

func TestEMA(t *testing.T) {
	bars := barsFromCloses(10, 10, 10, 10, 20)

	value, err := EMA(bars, 4)
	require.NoError(t, err)
	// seed = 10, multiplier = 0.4, ema = (20-10)*0.4 + 10 = 14
	assert.InDelta(t, 14.0, value, 1e-9)
}

func TestRSI(t *testing.T) {
	// Steady rise: all gains, RSI pegs at 100.
	rising := barsFromCloses(1, 2, 3, 4, 5, 6, 7, 8)
	value, err := RSI(rising, 7)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, value, 1e-9)

	// Alternating equal up/down moves: RSI sits at 50.
	alternating := barsFromCloses(10, 11, 10, 11, 10, 11, 10, 11, 10)
	value, err = RSI(alternating, 8)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, value, 1e-9)
}

func TestATR(t *testing.T) {
	// Constant closes with high-low spread of 2 on every bar.
	bars := barsFromCloses(10, 10, 10, 10)

	value, err := ATR(bars, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, value, 1e-9)
}

func TestATRInsufficientData(t *testing.T) {
	_, err := ATR(barsFromCloses(10, 10), 3)
	assert.True(t, errors.IsInsufficientDataError(err))
}
