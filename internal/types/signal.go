package types

import "time"

type SignalType string

const (
	// SignalTypeBuy tells the risk engine to enter (or stay in) a long position
	SignalTypeBuy SignalType = "buy"
	// SignalTypeSell tells the risk engine to enter (or stay in) a short position
	SignalTypeSell SignalType = "sell"
	// SignalTypeFlat is a directionless signal; the engine keeps managing exits only
	SignalTypeFlat SignalType = "flat"
	// SignalTypeHold means no new instruction, preserve the existing position and its exits
	SignalTypeHold SignalType = "hold"
)

type Signal struct {
	// Time is the time of the signal
	Time time.Time
	// Type is the type of the signal
	Type SignalType
	// Name is the name of the strategy or rule that produced the signal
	Name string
	// Reason is the reason for the signal
	Reason string
	// Symbol is the symbol of the signal
	Symbol string
}
