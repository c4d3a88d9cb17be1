package calculator

import "CoinSentinel/internal/model"

// Default indicator windows.
const (
	DefaultRSIPeriod  = 14
	DefaultFastWindow = 20
	DefaultSlowWindow = 50
)

// Engine computes the indicator triple for a price series. It holds no state
// besides its windows; every call recomputes from the full slice.
type Engine struct {
	RSIPeriod  int
	FastWindow int
	SlowWindow int
}

// NewEngine returns an Engine with the default RSI(14), SMA(20), SMA(50) windows.
func NewEngine() Engine {
	return Engine{
		RSIPeriod:  DefaultRSIPeriod,
		FastWindow: DefaultFastWindow,
		SlowWindow: DefaultSlowWindow,
	}
}

// Compute returns the indicators for the last element of prices. Each value is
// gated on its own window, so RSI can be defined while SMA50 is not.
func (e Engine) Compute(prices []float64) model.Indicators {
	return model.Indicators{
		RSI:   RSI(prices, e.RSIPeriod),
		SMA20: SMA(prices, e.FastWindow),
		SMA50: SMA(prices, e.SlowWindow),
	}
}
