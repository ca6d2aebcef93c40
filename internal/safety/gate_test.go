package safety

import (
	"testing"

	"github.com/moznion/go-optional"
	"github.com/quantrail/quantrail/internal/types"
	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLimits() types.SafetyLimits {
	return types.SafetyLimits{
		MaxSharesPerOrder:    100,
		MaxDollarValue:       5000,
		MaxPriceDeviationPct: 0.05,
	}
}

func marketOrder(quantity int64, referencePrice float64) types.OrderRequest {
	return types.OrderRequest{
		Symbol:         "AAPL",
		Side:           types.SideBuy,
		Quantity:       quantity,
		OrderType:      types.OrderTypeMarket,
		LimitPrice:     optional.None[float64](),
		ReferencePrice: referencePrice,
		Reason:         types.Reason{Reason: types.OrderReasonEntrySignal},
	}
}

func limitOrder(quantity int64, limitPrice, referencePrice float64) types.OrderRequest {
	order := marketOrder(quantity, referencePrice)
	order.OrderType = types.OrderTypeLimit
	order.LimitPrice = optional.Some(limitPrice)

	return order
}

func TestNewGateRejectsInvalidLimits(t *testing.T) {
	_, err := NewGate(types.SafetyLimits{})
	assert.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfiguration, errors.GetCode(err))
}

func TestGateValidate(t *testing.T) {
	gate, err := NewGate(testLimits())
	require.NoError(t, err)

	tests := []struct {
		name      string
		order     types.OrderRequest
		violation ViolationCode
	}{
		{
			name:  "valid market order",
			order: marketOrder(10, 150.0),
		},
		{
			name:      "size exceeded",
			order:     marketOrder(101, 150.0),
			violation: ViolationSizeExceeded,
		},
		{
			name:      "notional exceeded",
			order:     marketOrder(50, 150.0), // $7500 > $5000
			violation: ViolationNotionalExceeded,
		},
		{
			name:      "price deviation",
			order:     limitOrder(1, 200.0, 150.0), // 33.3% > 5%
			violation: ViolationPriceDeviation,
		},
		{
			name:  "limit order within deviation",
			order: limitOrder(10, 155.0, 150.0), // 3.3%
		},
		{
			name:      "zero quantity",
			order:     marketOrder(0, 150.0),
			violation: ViolationInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := gate.Validate(tt.order)
			if tt.violation == "" {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeSafetyViolation, errors.GetCode(err))

			violationErr, ok := AsViolation(err)
			require.True(t, ok)
			assert.True(t, violationErr.Has(tt.violation))
		})
	}
}

func TestGateReportsAllViolations(t *testing.T) {
	gate, err := NewGate(testLimits())
	require.NoError(t, err)

	// 200 shares at $150 with a wildly deviating limit price violates three
	// rules at once; the gate must report every one of them.
	order := limitOrder(200, 250.0, 150.0)

	violationErr, ok := AsViolation(gate.Validate(order))
	require.True(t, ok)
	assert.Len(t, violationErr.Violations, 3)
	assert.True(t, violationErr.Has(ViolationSizeExceeded))
	assert.True(t, violationErr.Has(ViolationNotionalExceeded))
	assert.True(t, violationErr.Has(ViolationPriceDeviation))
}

func TestGateIsDeterministic(t *testing.T) {
	gate, err := NewGate(testLimits())
	require.NoError(t, err)

	order := marketOrder(101, 150.0)

	first := gate.Validate(order)
	second := gate.Validate(order)
	require.Error(t, first)
	require.Error(t, second)
	assert.Equal(t, first.Error(), second.Error())
}
