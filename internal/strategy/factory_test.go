package strategy

import (
	"testing"

	"github.com/quantrail/quantrail/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactory(t *testing.T) {
	s, err := New("sma_crossover", map[string]float64{"short_period": 5, "long_period": 15})
	require.NoError(t, err)
	assert.Equal(t, "sma_cross_5_15", s.Name())

	// Defaults apply when params are omitted.
	s, err = New("rsi_mean_reversion", nil)
	require.NoError(t, err)
	assert.Equal(t, "rsi_reversion_14", s.Name())

	_, err = New("momentum", nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStrategyNotFound, errors.GetCode(err))

	// Bad params surface the strategy's own validation.
	_, err = New("sma_crossover", map[string]float64{"short_period": 50, "long_period": 10})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeStrategyConfigError, errors.GetCode(err))
}
