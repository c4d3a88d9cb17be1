// Package series keeps the bounded rolling history of price samples together
// with the indicator values derived at each sample.
package series

import (
	"errors"
	"sync"

	"CoinSentinel/internal/calculator"
	"CoinSentinel/internal/model"
)

// DefaultCapacity is the number of samples retained before FIFO eviction.
const DefaultCapacity = 300

// ErrInvalidSample is returned when a sample has a non-positive price.
var ErrInvalidSample = errors.New("sample price must be positive")

// Series is a bounded time series whose four sequences (price, RSI, SMA fast,
// SMA slow) stay index-aligned. Append is the only mutation.
type Series struct {
	mu       sync.RWMutex
	capacity int
	engine   calculator.Engine

	samples []model.PriceSample
	closes  []float64
	rsi     []float64
	smaFast []float64
	smaSlow []float64
}

// New creates a Series. A non-positive capacity falls back to DefaultCapacity.
func New(capacity int, engine calculator.Engine) *Series {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Series{
		capacity: capacity,
		engine:   engine,
		samples:  make([]model.PriceSample, 0, capacity+1),
		closes:   make([]float64, 0, capacity+1),
		rsi:      make([]float64, 0, capacity+1),
		smaFast:  make([]float64, 0, capacity+1),
		smaSlow:  make([]float64, 0, capacity+1),
	}
}

// Append ingests a sample. The indicator triple is computed before anything is
// mutated, then all four sequences grow together and, past capacity, drop
// their oldest element together.
func (s *Series) Append(sample model.PriceSample) (model.Indicators, error) {
	if !sample.Price.IsPositive() {
		return model.Indicators{}, ErrInvalidSample
	}
	price := sample.Price.InexactFloat64()

	s.mu.Lock()
	defer s.mu.Unlock()

	window := make([]float64, len(s.closes), len(s.closes)+1)
	copy(window, s.closes)
	window = append(window, price)
	ind := s.engine.Compute(window)

	s.samples = append(s.samples, sample)
	s.closes = append(s.closes, price)
	s.rsi = append(s.rsi, ind.RSI)
	s.smaFast = append(s.smaFast, ind.SMA20)
	s.smaSlow = append(s.smaSlow, ind.SMA50)

	if len(s.samples) > s.capacity {
		s.samples = s.samples[1:]
		s.closes = s.closes[1:]
		s.rsi = s.rsi[1:]
		s.smaFast = s.smaFast[1:]
		s.smaSlow = s.smaSlow[1:]
	}
	return ind, nil
}

// Len returns the number of retained samples.
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples)
}

// Capacity returns the retention bound.
func (s *Series) Capacity() int { return s.capacity }

// Lens returns the length of each backing sequence: prices, RSI, SMA fast, SMA slow.
func (s *Series) Lens() (prices, rsi, smaFast, smaSlow int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.samples), len(s.rsi), len(s.smaFast), len(s.smaSlow)
}

// Last returns the newest row, false when the series is empty.
func (s *Series) Last() (model.SeriesRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.samples)
	if n == 0 {
		return model.SeriesRow{}, false
	}
	return s.row(n - 1), true
}

// Tail returns up to n newest rows, oldest first.
func (s *Series) Tail(n int) []model.SeriesRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n <= 0 || len(s.samples) == 0 {
		return nil
	}
	start := len(s.samples) - n
	if start < 0 {
		start = 0
	}
	rows := make([]model.SeriesRow, 0, len(s.samples)-start)
	for i := start; i < len(s.samples); i++ {
		rows = append(rows, s.row(i))
	}
	return rows
}

// Prices returns a copy of the retained closes as floats.
func (s *Series) Prices() []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]float64, len(s.closes))
	copy(out, s.closes)
	return out
}

// Range returns the highest and lowest retained price.
func (s *Series) Range() (high, low float64, err error) {
	return calculator.WindowRange(s.Prices())
}

func (s *Series) row(i int) model.SeriesRow {
	return model.SeriesRow{
		Time:  s.samples[i].Time,
		Price: s.samples[i].Price,
		Indicators: model.Indicators{
			RSI:   s.rsi[i],
			SMA20: s.smaFast[i],
			SMA50: s.smaSlow[i],
		},
	}
}
