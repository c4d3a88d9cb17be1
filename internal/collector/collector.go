package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/shopspring/decimal"
)

// MockFetcher returns controllable prices for development and testing.
// Prices are served in order; the last one repeats. Err, when set, is
// returned instead.
type MockFetcher struct {
	Label  string
	Prices []decimal.Decimal
	Err    error

	mu    sync.Mutex
	calls int
}

func (m *MockFetcher) Name() string {
	if m.Label == "" {
		return "mock"
	}
	return m.Label
}

func (m *MockFetcher) FetchPrice(_ context.Context) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return decimal.Zero, m.Err
	}
	if len(m.Prices) == 0 {
		return decimal.Zero, &FetchError{Kind: KindParse, Venue: m.Name(), Err: errors.New("no mock prices")}
	}
	i := m.calls - 1
	if i >= len(m.Prices) {
		i = len(m.Prices) - 1
	}
	return m.Prices[i], nil
}

// Calls returns how many times FetchPrice was invoked.
func (m *MockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Quote is a fetched price plus where it came from.
type Quote struct {
	Price    decimal.Decimal
	Source   string
	Fallback bool
}

// Collector is the price source: a primary venue quoted directly, and a
// fallback venue whose quote is multiplied by Rate. At most one fallback
// attempt is made per call.
type Collector struct {
	Primary  Fetcher
	Fallback Fetcher
	Rate     decimal.Decimal
}

// NewCollector creates a new Collector. fallback may be nil.
func NewCollector(primary, fallback Fetcher, rate decimal.Decimal) *Collector {
	return &Collector{Primary: primary, Fallback: fallback, Rate: rate}
}

// Fetch returns the current price, falling back once if the primary fails.
func (c *Collector) Fetch(ctx context.Context) (Quote, error) {
	price, err := c.Primary.FetchPrice(ctx)
	if err == nil {
		return Quote{Price: price, Source: c.Primary.Name()}, nil
	}
	if c.Fallback == nil {
		return Quote{}, err
	}
	log.Printf("[WARN] primary price fetch failed: %v, trying %s", err, c.Fallback.Name())

	raw, fbErr := c.Fallback.FetchPrice(ctx)
	if fbErr != nil {
		return Quote{}, &FetchError{
			Kind:  KindOf(fbErr),
			Venue: c.Fallback.Name(),
			Err:   fmt.Errorf("primary failed: %w; fallback also failed: %w", err, fbErr),
		}
	}
	return Quote{Price: raw.Mul(c.Rate), Source: c.Fallback.Name(), Fallback: true}, nil
}
