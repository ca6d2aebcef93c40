package market_test

import (
	"context"
	"testing"

	"github.com/quantrail/quantrail/internal/market"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestNewAdapterRequiresAllCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)

	conn := mocks.NewMockConnection(ctrl)
	data := mocks.NewMockDataLoader(ctrl)
	exec := mocks.NewMockExecutionHandler(ctrl)

	tests := []struct {
		name string
		conn market.Connection
		data market.DataLoader
		exec market.ExecutionHandler
		ok   bool
	}{
		{"all present", conn, data, exec, true},
		{"missing connection", nil, data, exec, false},
		{"missing data loader", conn, nil, exec, false},
		{"missing execution", conn, data, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := market.NewAdapter(tt.conn, tt.data, tt.exec)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAdapterDelegatesToCapabilities(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()

	conn := mocks.NewMockConnection(ctrl)
	data := mocks.NewMockDataLoader(ctrl)
	exec := mocks.NewMockExecutionHandler(ctrl)

	adapter, err := market.NewAdapter(conn, data, exec)
	require.NoError(t, err)

	conn.EXPECT().Connect(ctx).Return(nil)
	require.NoError(t, adapter.Connection.Connect(ctx))

	bars := []types.MarketData{{Symbol: "AAPL", Close: 100}}
	data.EXPECT().HistoricalBars(ctx, "AAPL", types.TimeframeOneMinute, 5).Return(bars, nil)

	got, err := adapter.Data.HistoricalBars(ctx, "AAPL", types.TimeframeOneMinute, 5)
	require.NoError(t, err)
	assert.Equal(t, bars, got)

	handle := types.OrderHandle{ID: "1", Symbol: "AAPL"}
	exec.EXPECT().Status(ctx, handle).Return(types.OrderStatusFilled, nil)

	status, err := adapter.Execution.Status(ctx, handle)
	require.NoError(t, err)
	assert.Equal(t, types.OrderStatusFilled, status)
}
