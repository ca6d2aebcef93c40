package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestCSV(t *testing.T, n int) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "bars.csv")

	f, err := os.Create(path)
	require.NoError(t, err)

	defer f.Close()

	_, err = f.WriteString("time,symbol,open,high,low,close,volume\n")
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		price := 100.0 + float64(i)
		_, err = fmt.Fprintf(f, "2024-06-03 09:%02d:00,AAPL,%.1f,%.1f,%.1f,%.1f,1000\n",
			30+i, price, price+1, price-1, price)
		require.NoError(t, err)
	}

	return path
}

func TestNewSourceRejectsMissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "missing.parquet"), nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func TestHistoricalBarsFromCSV(t *testing.T) {
	src, err := NewSource(writeTestCSV(t, 10), nil)
	require.NoError(t, err)

	defer src.Close()

	count, err := src.Count("AAPL")
	require.NoError(t, err)
	assert.Equal(t, 10, count)

	bars, err := src.HistoricalBars(context.Background(), "AAPL", types.TimeframeOneMinute, 4)
	require.NoError(t, err)
	require.Len(t, bars, 4)

	// Most recent four bars, ascending.
	assert.Equal(t, 106.0, bars[0].Close)
	assert.Equal(t, 109.0, bars[3].Close)

	for i := 1; i < len(bars); i++ {
		assert.True(t, bars[i].Time.After(bars[i-1].Time))
	}

	// Lookback <= 0 returns the whole series.
	bars, err = src.HistoricalBars(context.Background(), "AAPL", types.TimeframeOneMinute, 0)
	require.NoError(t, err)
	assert.Len(t, bars, 10)
}

func TestHistoricalBarsUnknownSymbol(t *testing.T) {
	src, err := NewSource(writeTestCSV(t, 3), nil)
	require.NoError(t, err)

	defer src.Close()

	_, err = src.HistoricalBars(context.Background(), "MSFT", types.TimeframeOneMinute, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func TestSubscribeBarsReplays(t *testing.T) {
	src, err := NewSource(writeTestCSV(t, 5), nil)
	require.NoError(t, err)

	defer src.Close()

	var count int
	for bar, err := range src.SubscribeBars(context.Background(), "AAPL", types.TimeframeOneMinute) {
		require.NoError(t, err)
		assert.Equal(t, "AAPL", bar.Symbol)
		count++
	}

	assert.Equal(t, 5, count)
}

func TestConnectIsIdempotent(t *testing.T) {
	src, err := NewSource(writeTestCSV(t, 3), nil)
	require.NoError(t, err)

	defer src.Close()

	ctx := context.Background()
	require.NoError(t, src.Connect(ctx))
	require.NoError(t, src.Connect(ctx))
	assert.True(t, src.IsConnected())

	src.Disconnect()
	assert.False(t, src.IsConnected())
}
