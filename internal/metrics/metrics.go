// Package metrics exposes Prometheus instrumentation for upload processing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors for the summary pipeline.
type Metrics struct {
	registry *prometheus.Registry

	uploadsTotal       *prometheus.CounterVec
	rowsRead           *prometheus.CounterVec
	summaryRows        *prometheus.CounterVec
	processingDuration *prometheus.HistogramVec
}

// New creates and registers the application collectors on a private registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		uploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendsum",
			Name:      "uploads_total",
			Help:      "Uploads processed, by source type and outcome.",
		}, []string{"source", "status"}),
		rowsRead: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendsum",
			Name:      "input_rows_total",
			Help:      "Raw input rows read from uploads, by source type.",
		}, []string{"source"}),
		summaryRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "attendsum",
			Name:      "summary_rows_total",
			Help:      "Summary rows produced, by source type.",
		}, []string{"source"}),
		processingDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "attendsum",
			Name:      "processing_duration_seconds",
			Help:      "Time spent reading, validating and aggregating one upload.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}

	registry.MustRegister(m.uploadsTotal, m.rowsRead, m.summaryRows, m.processingDuration)
	return m
}

// ObserveUpload records one processed upload.
func (m *Metrics) ObserveUpload(source, status string, rowsIn, rowsOut int, elapsed time.Duration) {
	m.uploadsTotal.WithLabelValues(source, status).Inc()
	if status == "success" {
		m.rowsRead.WithLabelValues(source).Add(float64(rowsIn))
		m.summaryRows.WithLabelValues(source).Add(float64(rowsOut))
		m.processingDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	}
}

// Handler returns the /metrics endpoint handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
