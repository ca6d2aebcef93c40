package polygon

import (
	"context"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIter struct {
	aggs []models.Agg
	pos  int
	err  error
}

func (f *fakeIter) Next() bool {
	if f.pos >= len(f.aggs) {
		return false
	}

	f.pos++

	return true
}

func (f *fakeIter) Item() models.Agg { return f.aggs[f.pos-1] }

func (f *fakeIter) Err() error { return f.err }

type fakeLister struct {
	params *models.ListAggsParams
	iter   *fakeIter
}

func (f *fakeLister) ListAggs(ctx context.Context, params *models.ListAggsParams, opts ...models.RequestOption) AggsIter {
	f.params = params
	return f.iter
}

func aggAt(t time.Time, close float64) models.Agg {
	return models.Agg{
		Timestamp: models.Millis(t),
		Open:      close - 0.5,
		High:      close + 1,
		Low:       close - 1,
		Close:     close,
		Volume:    1000,
	}
}

func TestNewAdapterRequiresAPIKey(t *testing.T) {
	_, err := NewAdapter("", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func TestHistoricalBars(t *testing.T) {
	base := time.Date(2024, 6, 3, 9, 30, 0, 0, time.UTC)
	lister := &fakeLister{iter: &fakeIter{aggs: []models.Agg{
		aggAt(base, 100),
		aggAt(base.Add(time.Minute), 101),
		aggAt(base.Add(2*time.Minute), 102),
	}}}

	adapter := newAdapterWithLister(lister, nil)

	bars, err := adapter.HistoricalBars(context.Background(), "AAPL", types.TimeframeOneMinute, 2)
	require.NoError(t, err)

	// Lookback trims to the most recent bars.
	require.Len(t, bars, 2)
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.Equal(t, "AAPL", bars[0].Symbol)

	require.NotNil(t, lister.params)
	assert.Equal(t, "AAPL", lister.params.Ticker)
	assert.Equal(t, 1, lister.params.Multiplier)
	assert.Equal(t, models.Minute, lister.params.Timespan)
}

func TestHistoricalBarsEmpty(t *testing.T) {
	adapter := newAdapterWithLister(&fakeLister{iter: &fakeIter{}}, nil)

	_, err := adapter.HistoricalBars(context.Background(), "AAPL", types.TimeframeOneMinute, 10)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDataUnavailable, errors.GetCode(err))
}

func TestHistoricalBarsIteratorError(t *testing.T) {
	adapter := newAdapterWithLister(&fakeLister{iter: &fakeIter{err: assert.AnError}}, nil)

	_, err := adapter.HistoricalBars(context.Background(), "AAPL", types.TimeframeOneMinute, 10)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryFailed, errors.GetCode(err))
}

func TestTimeframeMapping(t *testing.T) {
	tests := []struct {
		timeframe  types.Timeframe
		multiplier int
		timespan   models.Timespan
	}{
		{types.TimeframeOneMinute, 1, models.Minute},
		{types.TimeframeFiveMinutes, 5, models.Minute},
		{types.TimeframeFifteenMin, 15, models.Minute},
		{types.TimeframeOneHour, 1, models.Hour},
		{types.TimeframeFourHours, 4, models.Hour},
		{types.TimeframeOneDay, 1, models.Day},
	}

	for _, tt := range tests {
		t.Run(string(tt.timeframe), func(t *testing.T) {
			multiplier, timespan, err := timeframeToAggsParams(tt.timeframe)
			require.NoError(t, err)
			assert.Equal(t, tt.multiplier, multiplier)
			assert.Equal(t, tt.timespan, timespan)
		})
	}
}

func TestSubscribeBarsIsUnsupported(t *testing.T) {
	adapter := newAdapterWithLister(&fakeLister{iter: &fakeIter{}}, nil)

	var streamErr error
	for _, err := range adapter.SubscribeBars(context.Background(), "AAPL", types.TimeframeOneMinute) {
		streamErr = err
	}

	require.Error(t, streamErr)
	assert.Equal(t, errors.ErrCodeStreamingUnsupported, errors.GetCode(streamErr))
}

func TestConnectIsIdempotent(t *testing.T) {
	adapter := newAdapterWithLister(&fakeLister{iter: &fakeIter{}}, nil)

	ctx := context.Background()
	require.NoError(t, adapter.Connect(ctx))
	require.NoError(t, adapter.Connect(ctx))
	assert.True(t, adapter.IsConnected())

	adapter.Disconnect()
	assert.False(t, adapter.IsConnected())
}
