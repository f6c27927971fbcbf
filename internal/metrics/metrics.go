// Package metrics exposes Prometheus metrics for the SMA engine.
package metrics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the SMA engine.
type Metrics struct {
	LoadAttempts prometheus.Counter
	LoadFailures *prometheus.CounterVec // labels: stage=config|source|sparsity

	ComputesTotal  prometheus.Counter
	ComputeSkips   *prometheus.CounterVec // labels: reason=sample|result|window
	ComputeDur     prometheus.Histogram
	PublishedTotal prometheus.Counter

	WindowBars prometheus.Gauge
	WSClients  prometheus.Gauge
}

// New registers and returns all metrics on the default registry.
func New() *Metrics {
	m := &Metrics{
		LoadAttempts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smaengine_load_attempts_total",
			Help: "History requests issued by the lookback loader",
		}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smaengine_load_failures_total",
			Help: "Initialization failures by stage",
		}, []string{"stage"}),
		ComputesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smaengine_computes_total",
			Help: "Bar-close events processed while ready",
		}),
		ComputeSkips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "smaengine_compute_skips_total",
			Help: "Updates discarded without publishing, by reason",
		}, []string{"reason"}),
		ComputeDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "smaengine_compute_duration_seconds",
			Help:    "Average computation latency per bar-close event",
			Buckets: []float64{0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001},
		}),
		PublishedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "smaengine_published_values_total",
			Help: "Average values published to sinks",
		}),
		WindowBars: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smaengine_window_bars",
			Help: "Daily bars currently held in the lookback window",
		}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "smaengine_ws_clients",
			Help: "Connected WebSocket value subscribers",
		}),
	}

	prometheus.MustRegister(
		m.LoadAttempts, m.LoadFailures,
		m.ComputesTotal, m.ComputeSkips, m.ComputeDur, m.PublishedTotal,
		m.WindowBars, m.WSClients,
	)
	return m
}

// Serve starts the /metrics HTTP endpoint and blocks until ctx is done.
func Serve(ctx context.Context, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()

	log.Printf("[metrics] serving /metrics on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("[metrics] server error: %v", err)
	}
}
