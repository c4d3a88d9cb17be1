package model

// Severity grades a trading signal.
type Severity int

const (
	SeverityStrongNegative Severity = -2
	SeverityWeakNegative   Severity = -1
	SeverityNeutral        Severity = 0
	SeverityWeakPositive   Severity = 1
	SeverityStrongPositive Severity = 2
)

func (s Severity) String() string {
	switch s {
	case SeverityStrongNegative:
		return "strong-negative"
	case SeverityWeakNegative:
		return "weak-negative"
	case SeverityWeakPositive:
		return "weak-positive"
	case SeverityStrongPositive:
		return "strong-positive"
	default:
		return "neutral"
	}
}

// Signal labels.
const (
	LabelStrongBuy          = "strong buy"
	LabelStrongSell         = "strong sell"
	LabelWeakBuy            = "weak buy"
	LabelWeakSell           = "weak sell"
	LabelHold               = "hold"
	LabelInsufficient       = "insufficient data"
	LabelInsufficientNoData = "insufficient data, fetch failed"
)

// Signal is the discrete recommendation emitted each tick.
type Signal struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
	Color    string   `json:"color"` // display hint, hex
}

// Actionable reports whether the signal recommends a buy or a sell.
func (s Signal) Actionable() bool {
	return s.Severity != SeverityNeutral
}
