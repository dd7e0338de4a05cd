package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cyclesTotal  *prometheus.CounterVec
	observations *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cyclesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_ingestion_cycles_total",
				Help: "Total ingestion cycles by result",
			},
			[]string{"result"},
		),
		observations: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_observations_written_total",
				Help: "Total observations written per backend and asset",
			},
			[]string{"backend", "asset"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinpulse_last_price",
				Help: "Last observed price for an asset",
			},
			[]string{"asset"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordCycle records one finished (or skipped) ingestion cycle.
func (r *Recorder) RecordCycle(result string) {
	r.cyclesTotal.WithLabelValues(result).Inc()
}

// RecordObservation records an observation routed to a backend.
func (r *Recorder) RecordObservation(backend, asset string) {
	r.observations.WithLabelValues(backend, asset).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last observed price for an asset.
func (r *Recorder) RecordLastPrice(asset string, price float64) {
	r.lastPrice.WithLabelValues(asset).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
