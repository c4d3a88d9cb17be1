package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample is a single successful price observation.
type PriceSample struct {
	Time  time.Time
	Price decimal.Decimal
}

// SeriesRow is one index-aligned row of the rolling series.
type SeriesRow struct {
	Time       time.Time       `json:"time"`
	Price      decimal.Decimal `json:"price"`
	Indicators Indicators      `json:"indicators"`
}

// DailyStats holds the intraday range for the current local date.
type DailyStats struct {
	High   decimal.Decimal
	Low    decimal.Decimal
	AsOf   time.Time
	Seeded bool
}

// Snapshot is the immutable result of one tick.
type Snapshot struct {
	Time        time.Time       `json:"time"`
	Symbol      string          `json:"symbol"`
	Source      string          `json:"source,omitempty"`
	Price       decimal.Decimal `json:"price"`
	HasPrice    bool            `json:"has_price"`
	DailyHigh   decimal.Decimal `json:"daily_high"`
	DailyLow    decimal.Decimal `json:"daily_low"`
	AllTimeHigh decimal.Decimal `json:"all_time_high"`
	Indicators  Indicators      `json:"indicators"`
	RangePos    float64         `json:"range_position"` // 0 at the series low, 1 at its high
	Signal      Signal          `json:"signal"`
	Stale       bool            `json:"stale"`
	FetchFailed bool            `json:"fetch_failed"`
	SeriesLen   int             `json:"series_len"`

	// Tick metadata.
	Fallback  bool          `json:"fallback"`            // price came from the fallback venue
	FetchErr  string        `json:"fetch_err,omitempty"` // error kind when FetchFailed
	TickTaken time.Duration `json:"-"`
}
