package metrics

import (
	"context"
	"net/http"

	"CoinSentinel/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the tracker.
type Metrics struct {
	Registry *prometheus.Registry

	TicksTotal      prometheus.Counter
	FetchFailures   *prometheus.CounterVec // labels: kind
	FallbackFetches prometheus.Counter
	StaleTicks      prometheus.Counter
	LedgerOps       *prometheus.CounterVec // labels: op, result
	LastPrice       prometheus.Gauge
	SignalSeverity  prometheus.Gauge // -2 strong sell .. 2 strong buy
	SeriesLen       prometheus.Gauge
	TickDuration    prometheus.Histogram
}

// NewMetrics creates the collectors on their own registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_ticks_total",
			Help: "Total ticks executed",
		}),
		FetchFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_fetch_failures_total",
			Help: "Ticks whose price fetch failed (by error kind)",
		}, []string{"kind"}),
		FallbackFetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_fallback_fetches_total",
			Help: "Prices taken from the fallback venue",
		}),
		StaleTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coinsentinel_stale_ticks_total",
			Help: "Ticks that reused the last known price",
		}),
		LedgerOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coinsentinel_ledger_operations_total",
			Help: "Ledger operations (by op and result)",
		}, []string{"op", "result"}),
		LastPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_price",
			Help: "Last known price",
		}),
		SignalSeverity: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_signal_severity",
			Help: "Current signal severity (-2 strong sell .. 2 strong buy)",
		}),
		SeriesLen: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coinsentinel_series_length",
			Help: "Samples held in the rolling series",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coinsentinel_tick_duration_seconds",
			Help:    "Tick latency including the price fetch",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.TicksTotal,
		m.FetchFailures,
		m.FallbackFetches,
		m.StaleTicks,
		m.LedgerOps,
		m.LastPrice,
		m.SignalSeverity,
		m.SeriesLen,
		m.TickDuration,
	)

	return m
}

func (m *Metrics) Name() string { return "metrics" }

// Publish records one snapshot.
func (m *Metrics) Publish(_ context.Context, s model.Snapshot) error {
	m.TicksTotal.Inc()
	m.TickDuration.Observe(s.TickTaken.Seconds())
	m.SeriesLen.Set(float64(s.SeriesLen))
	if s.FetchFailed {
		m.FetchFailures.WithLabelValues(s.FetchErr).Inc()
	}
	if s.Stale {
		m.StaleTicks.Inc()
	}
	if s.Fallback {
		m.FallbackFetches.Inc()
	}
	if s.HasPrice {
		m.LastPrice.Set(s.Price.InexactFloat64())
	}
	m.SignalSeverity.Set(float64(s.Signal.Severity))
	return nil
}

// ObserveLedger counts a ledger operation. It matches ledger.Observer.
func (m *Metrics) ObserveLedger(op string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.LedgerOps.WithLabelValues(op, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
