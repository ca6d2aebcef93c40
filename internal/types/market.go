package types

import "time"

// Timeframe identifies the bar interval of a market data series.
type Timeframe string

const (
	TimeframeOneMinute     Timeframe = "1m"
	TimeframeFiveMinutes   Timeframe = "5m"
	TimeframeFifteenMin    Timeframe = "15m"
	TimeframeOneHour       Timeframe = "1h"
	TimeframeFourHours     Timeframe = "4h"
	TimeframeOneDay        Timeframe = "1d"
)

// Duration returns the wall-clock length of one bar of this timeframe.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case TimeframeOneMinute:
		return time.Minute
	case TimeframeFiveMinutes:
		return 5 * time.Minute
	case TimeframeFifteenMin:
		return 15 * time.Minute
	case TimeframeOneHour:
		return time.Hour
	case TimeframeFourHours:
		return 4 * time.Hour
	case TimeframeOneDay:
		return 24 * time.Hour
	default:
		return 0
	}
}

// MarketData is a single OHLCV bar. Bars are immutable once produced and
// arrive in strictly increasing timestamp order.
type MarketData struct {
	Symbol string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Time   time.Time `yaml:"time" json:"time" csv:"time"`
	Open   float64   `yaml:"open" json:"open" csv:"open"`
	High   float64   `yaml:"high" json:"high" csv:"high"`
	Low    float64   `yaml:"low" json:"low" csv:"low"`
	Close  float64   `yaml:"close" json:"close" csv:"close"`
	Volume float64   `yaml:"volume" json:"volume" csv:"volume"`
}
