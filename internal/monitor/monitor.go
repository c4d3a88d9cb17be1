// Package monitor runs one price tick at a time: fetch, append to the
// rolling series, update the daily stats and classify.
package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/series"
	"CoinSentinel/internal/stats"
	"CoinSentinel/internal/strategy"
)

// PriceSource is what the monitor needs from the collector.
type PriceSource interface {
	Fetch(ctx context.Context) (collector.Quote, error)
}

// Monitor owns the rolling series and the daily stats.
type Monitor struct {
	symbol  string
	source  PriceSource
	series  *series.Series
	tracker *stats.Tracker
	now     func() time.Time

	tickMu sync.Mutex

	mu   sync.RWMutex
	last model.Snapshot
}

func New(symbol string, source PriceSource, s *series.Series, tracker *stats.Tracker) *Monitor {
	return &Monitor{
		symbol:  symbol,
		source:  source,
		series:  s,
		tracker: tracker,
		now:     time.Now,
		last: model.Snapshot{
			Symbol:     symbol,
			Indicators: model.UndefinedIndicators(),
			Signal:     strategy.Insufficient,
		},
	}
}

// Tick fetches a price and produces the next snapshot. Overlapping calls
// are serialized.
func (m *Monitor) Tick(ctx context.Context) model.Snapshot {
	m.tickMu.Lock()
	defer m.tickMu.Unlock()

	start := m.now()
	snap := model.Snapshot{Time: start, Symbol: m.symbol}

	quote, err := m.source.Fetch(ctx)
	if err != nil {
		m.fetchFailed(&snap, err)
	} else if err := m.ingest(ctx, &snap, quote); err != nil {
		log.Printf("[WARN] discarding quote from %s: %v", quote.Source, err)
		m.fetchFailed(&snap, &collector.FetchError{Kind: collector.KindParse, Venue: quote.Source, Err: err})
	}

	snap.SeriesLen = m.series.Len()
	snap.TickTaken = m.now().Sub(start)

	m.mu.Lock()
	m.last = snap
	m.mu.Unlock()
	return snap
}

func (m *Monitor) ingest(ctx context.Context, snap *model.Snapshot, q collector.Quote) error {
	ind, err := m.series.Append(model.PriceSample{Time: snap.Time, Price: q.Price})
	if err != nil {
		return err
	}
	daily, ath := m.tracker.Update(ctx, q.Price, snap.Time)

	snap.Source = q.Source
	snap.Fallback = q.Fallback
	snap.Price = q.Price
	snap.HasPrice = true
	snap.DailyHigh = daily.High
	snap.DailyLow = daily.Low
	snap.AllTimeHigh = ath
	snap.Indicators = ind
	snap.RangePos = m.rangePos(q.Price.InexactFloat64())
	snap.Signal = strategy.ClassifyRow(q.Price.InexactFloat64(), ind)
	return nil
}

// rangePos places price within the retained series' high/low.
func (m *Monitor) rangePos(price float64) float64 {
	high, low, err := m.series.Range()
	if err != nil {
		return 0.5
	}
	pos, err := calculator.WindowPosition(price, high, low)
	if err != nil {
		return 0.5
	}
	return pos
}

// fetchFailed reuses the last known row, or reports that there is nothing
// to show yet.
func (m *Monitor) fetchFailed(snap *model.Snapshot, err error) {
	snap.FetchFailed = true
	snap.FetchErr = collector.KindOf(err).String()
	daily := m.tracker.Daily()
	snap.DailyHigh = daily.High
	snap.DailyLow = daily.Low
	snap.AllTimeHigh = m.tracker.AllTimeHigh()

	row, ok := m.series.Last()
	if !ok {
		log.Printf("[WARN] price fetch failed with empty series: %v", err)
		snap.Indicators = model.UndefinedIndicators()
		snap.Signal = strategy.FetchFailed
		return
	}

	log.Printf("[WARN] price fetch failed, reusing last price %s: %v", row.Price.StringFixed(2), err)
	snap.Stale = true
	snap.HasPrice = true
	snap.Price = row.Price
	snap.Indicators = row.Indicators
	snap.RangePos = m.rangePos(row.Price.InexactFloat64())
	snap.Signal = strategy.ClassifyRow(row.Price.InexactFloat64(), row.Indicators)
}

// Snapshot returns the result of the latest tick.
func (m *Monitor) Snapshot() model.Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Tail returns the newest n series rows, oldest first.
func (m *Monitor) Tail(n int) []model.SeriesRow { return m.series.Tail(n) }

func (m *Monitor) Capacity() int { return m.series.Capacity() }
