package monitor

import (
	"context"
	"errors"
	"testing"

	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/collector"
	"CoinSentinel/internal/model"
	"CoinSentinel/internal/series"
	"CoinSentinel/internal/stats"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedSource returns one step per call; a nil price means failure.
type scriptedSource struct {
	steps []*decimal.Decimal
	i     int
}

func (s *scriptedSource) Fetch(context.Context) (collector.Quote, error) {
	step := s.steps[s.i]
	if s.i < len(s.steps)-1 {
		s.i++
	}
	if step == nil {
		return collector.Quote{}, &collector.FetchError{Kind: collector.KindTimeout, Venue: "test", Err: errors.New("deadline")}
	}
	return collector.Quote{Price: *step, Source: "test"}, nil
}

func price(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func newMonitor(src PriceSource) *Monitor {
	return New("BTCEUR", src, series.New(series.DefaultCapacity, calculator.NewEngine()), stats.NewTracker(nil))
}

func TestTickFetchFailedWithEmptySeries(t *testing.T) {
	m := newMonitor(&scriptedSource{steps: []*decimal.Decimal{nil}})

	snap := m.Tick(context.Background())
	assert.True(t, snap.FetchFailed)
	assert.False(t, snap.Stale)
	assert.False(t, snap.HasPrice)
	assert.Equal(t, model.LabelInsufficientNoData, snap.Signal.Label)
	assert.Equal(t, "timeout", snap.FetchErr)
	assert.Equal(t, 0, snap.SeriesLen)
}

func TestTickReusesLastPriceWhenFetchFails(t *testing.T) {
	m := newMonitor(&scriptedSource{steps: []*decimal.Decimal{price(100), price(110), nil}})
	ctx := context.Background()

	m.Tick(ctx)
	fresh := m.Tick(ctx)
	assert.False(t, fresh.Stale)
	assert.True(t, fresh.Price.Equal(decimal.NewFromInt(110)))
	assert.Equal(t, model.LabelInsufficient, fresh.Signal.Label)

	stale := m.Tick(ctx)
	assert.True(t, stale.Stale)
	assert.True(t, stale.FetchFailed)
	assert.True(t, stale.HasPrice)
	assert.True(t, stale.Price.Equal(decimal.NewFromInt(110)))
	assert.True(t, stale.DailyHigh.Equal(decimal.NewFromInt(110)))
	assert.True(t, stale.DailyLow.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, 2, stale.SeriesLen, "failed ticks must not append")

	latest := m.Snapshot()
	assert.True(t, latest.Stale)
	assert.Equal(t, stale.Time, latest.Time)
}

func TestTickClassifiesOnceWarm(t *testing.T) {
	var steps []*decimal.Decimal
	// Steady climb: RSI saturates at 100, price above both SMAs.
	for i := int64(0); i < 60; i++ {
		steps = append(steps, price(1000+i*10))
	}
	m := newMonitor(&scriptedSource{steps: steps})

	var snap model.Snapshot
	for range steps {
		snap = m.Tick(context.Background())
	}
	require.True(t, snap.Indicators.Complete())
	assert.Equal(t, model.LabelHold, snap.Signal.Label)
	assert.True(t, snap.AllTimeHigh.Equal(decimal.NewFromInt(1590)))
	assert.Equal(t, 1.0, snap.RangePos)

	p, r, f, s := m.series.Lens()
	assert.Equal(t, 60, p)
	assert.Equal(t, []int{p, p, p}, []int{r, f, s})
}

func TestTickWithCollectorFallback(t *testing.T) {
	primary := &collector.MockFetcher{Label: "primary", Err: &collector.FetchError{Kind: collector.KindNetwork, Err: errors.New("down")}}
	fallback := &collector.MockFetcher{Label: "fallback", Prices: []decimal.Decimal{decimal.NewFromInt(100)}}
	c := collector.NewCollector(primary, fallback, decimal.RequireFromString("0.92"))

	snap := newMonitor(c).Tick(context.Background())
	assert.True(t, snap.Fallback)
	assert.Equal(t, "fallback", snap.Source)
	assert.True(t, snap.Price.Equal(decimal.NewFromInt(92)))
}
