package strategy

import (
	"math"

	"CoinSentinel/internal/model"
)

// Signal thresholds.
const (
	StrongOversold   = 30.0
	StrongOverbought = 70.0
	WeakOversold     = 35.0
	WeakOverbought   = 65.0
)

// Display colors, carried over from the dashboard palette.
const (
	colorStrongBuy  = "#00FF00"
	colorStrongSell = "#FF4444"
	colorWeakBuy    = "#00CC00"
	colorWeakSell   = "#CC0000"
	colorHold       = "#008080"
	colorNeutral    = "#FAFAFA"
)

// Insufficient is the signal emitted while any indicator is undefined.
var Insufficient = model.Signal{Label: model.LabelInsufficient, Severity: model.SeverityNeutral, Color: colorNeutral}

// FetchFailed is the signal emitted when no price has ever been fetched.
var FetchFailed = model.Signal{Label: model.LabelInsufficientNoData, Severity: model.SeverityNeutral, Color: colorNeutral}

// Classify maps the indicator triple and current price to a signal.
// Rules are evaluated in order and the first match wins.
func Classify(rsi, price, sma20, sma50 float64) model.Signal {
	if math.IsNaN(rsi) || math.IsNaN(price) || math.IsNaN(sma20) || math.IsNaN(sma50) {
		return Insufficient
	}

	switch {
	case rsi < StrongOversold && sma20 > sma50 && price > sma50:
		return model.Signal{Label: model.LabelStrongBuy, Severity: model.SeverityStrongPositive, Color: colorStrongBuy}
	case rsi > StrongOverbought && sma20 < sma50 && price < sma50:
		return model.Signal{Label: model.LabelStrongSell, Severity: model.SeverityStrongNegative, Color: colorStrongSell}
	case rsi < WeakOversold && price > sma20:
		return model.Signal{Label: model.LabelWeakBuy, Severity: model.SeverityWeakPositive, Color: colorWeakBuy}
	case rsi > WeakOverbought && price < sma20:
		return model.Signal{Label: model.LabelWeakSell, Severity: model.SeverityWeakNegative, Color: colorWeakSell}
	default:
		return model.Signal{Label: model.LabelHold, Severity: model.SeverityNeutral, Color: colorHold}
	}
}

// ClassifyRow classifies a series row at its own price.
func ClassifyRow(price float64, ind model.Indicators) model.Signal {
	return Classify(ind.RSI, price, ind.SMA20, ind.SMA50)
}
