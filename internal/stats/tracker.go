// Package stats tracks the intraday price range and the all-time high.
package stats

import (
	"context"
	"log"
	"sync"
	"time"

	"CoinSentinel/internal/model"

	"github.com/shopspring/decimal"
)

// HighWatermark persists the all-time high. The ledger implements it.
type HighWatermark interface {
	AllTimeHigh(ctx context.Context) (decimal.Decimal, error)
	RecordAllTimeHigh(ctx context.Context, v decimal.Decimal) (bool, error)
}

// Tracker keeps the daily high/low and the all-time high.
type Tracker struct {
	mu    sync.RWMutex
	daily model.DailyStats
	ath   decimal.Decimal
	store HighWatermark
}

func NewTracker(store HighWatermark) *Tracker {
	return &Tracker{store: store}
}

// Load seeds the all-time high from the persisted value.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	v, err := t.store.AllTimeHigh(ctx)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if v.GreaterThan(t.ath) {
		t.ath = v
	}
	log.Printf("[INFO] all-time high loaded: %s", t.ath.StringFixed(2))
	return nil
}

// Update folds price into the stats. A new local calendar date resets the
// daily range to price.
func (t *Tracker) Update(ctx context.Context, price decimal.Decimal, now time.Time) (model.DailyStats, decimal.Decimal) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.daily.Seeded || !sameDay(t.daily.AsOf, now) {
		t.daily = model.DailyStats{High: price, Low: price, AsOf: now, Seeded: true}
	} else {
		t.daily.High = decimal.Max(t.daily.High, price)
		t.daily.Low = decimal.Min(t.daily.Low, price)
		t.daily.AsOf = now
	}

	if price.GreaterThan(t.ath) {
		t.ath = price
		if t.store != nil {
			if _, err := t.store.RecordAllTimeHigh(ctx, price); err != nil {
				log.Printf("[WARN] persist all-time high %s: %v", price.StringFixed(2), err)
			}
		}
	}
	return t.daily, t.ath
}

// Daily returns the current intraday range.
func (t *Tracker) Daily() model.DailyStats {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.daily
}

func (t *Tracker) AllTimeHigh() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ath
}

func sameDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
