package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPositionIsOpen(t *testing.T) {
	assert.False(t, Position{}.IsOpen())
	assert.False(t, Position{Side: PositionSideFlat}.IsOpen())
	assert.False(t, Position{Side: PositionSideLong, Quantity: 0}.IsOpen())
	assert.True(t, Position{Side: PositionSideLong, Quantity: 10}.IsOpen())
	assert.True(t, Position{Side: PositionSideShort, Quantity: 1}.IsOpen())
}

func TestPositionUnrealizedPnL(t *testing.T) {
	long := Position{Side: PositionSideLong, Quantity: 100, EntryPrice: 100.01}
	assert.InDelta(t, 999.0, long.UnrealizedPnL(110.0), 1e-9)

	short := Position{Side: PositionSideShort, Quantity: 10, EntryPrice: 50.0}
	assert.InDelta(t, 20.0, short.UnrealizedPnL(48.0), 1e-9)
	assert.InDelta(t, -20.0, short.UnrealizedPnL(52.0), 1e-9)

	flat := Position{Side: PositionSideFlat}
	assert.Zero(t, flat.UnrealizedPnL(123.0))
}

func TestPositionExitSide(t *testing.T) {
	assert.Equal(t, SideSell, Position{Side: PositionSideLong}.ExitSide())
	assert.Equal(t, SideBuy, Position{Side: PositionSideShort}.ExitSide())
}
