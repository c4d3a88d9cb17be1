package model

import (
	"encoding/json"
	"math"
)

// Indicators holds the technical indicators derived for one series row.
// NaN marks a value that is not defined yet.
type Indicators struct {
	RSI   float64
	SMA20 float64
	SMA50 float64
}

// UndefinedIndicators returns a row with every indicator undefined.
func UndefinedIndicators() Indicators {
	return Indicators{RSI: math.NaN(), SMA20: math.NaN(), SMA50: math.NaN()}
}

// Complete reports whether all indicators are defined.
func (i Indicators) Complete() bool {
	return !math.IsNaN(i.RSI) && !math.IsNaN(i.SMA20) && !math.IsNaN(i.SMA50)
}

type indicatorsJSON struct {
	RSI   *float64 `json:"rsi"`
	SMA20 *float64 `json:"sma20"`
	SMA50 *float64 `json:"sma50"`
}

// MarshalJSON writes undefined values as null.
func (i Indicators) MarshalJSON() ([]byte, error) {
	return json.Marshal(indicatorsJSON{RSI: defined(i.RSI), SMA20: defined(i.SMA20), SMA50: defined(i.SMA50)})
}

// UnmarshalJSON reads null as undefined.
func (i *Indicators) UnmarshalJSON(data []byte) error {
	var raw indicatorsJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	i.RSI, i.SMA20, i.SMA50 = orNaN(raw.RSI), orNaN(raw.SMA20), orNaN(raw.SMA50)
	return nil
}

func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}
