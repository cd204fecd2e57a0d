package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ArchiveMetrics struct {
	registry *prometheus.Registry

	processedTotal     *prometheus.CounterVec
	extractionDuration prometheus.Histogram
	processInFlight    prometheus.Gauge
	batchSize          prometheus.Histogram
}

func NewArchiveMetrics() *ArchiveMetrics {
	registry := prometheus.NewRegistry()

	processedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "werkstattarchiv",
			Subsystem: "archive",
			Name:      "documents_processed_total",
			Help:      "Total processed documents by outcome status.",
		},
		[]string{"status"},
	)
	extractionDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "werkstattarchiv",
			Subsystem: "archive",
			Name:      "extraction_duration_seconds",
			Help:      "Text extraction and analysis duration per document.",
			Buckets:   prometheus.DefBuckets,
		},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "werkstattarchiv",
			Subsystem: "archive",
			Name:      "documents_in_flight",
			Help:      "Number of documents currently being processed.",
		},
	)
	batchSize := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "werkstattarchiv",
			Subsystem: "archive",
			Name:      "batch_size",
			Help:      "Number of documents per batch run.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
	)

	registry.MustRegister(processedTotal, extractionDuration, processInFlight, batchSize)

	return &ArchiveMetrics{
		registry:           registry,
		processedTotal:     processedTotal,
		extractionDuration: extractionDuration,
		processInFlight:    processInFlight,
		batchSize:          batchSize,
	}
}

func (m *ArchiveMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The methods below implement ports.ProcessObserver; the pipeline reports
// each signal where it happens.

func (m *ArchiveMetrics) BatchStarted(size int) {
	m.batchSize.Observe(float64(size))
}

func (m *ArchiveMetrics) DocumentStarted() {
	m.processInFlight.Inc()
}

func (m *ArchiveMetrics) DocumentFinished(status string) {
	m.processInFlight.Dec()
	m.processedTotal.WithLabelValues(status).Inc()
}

func (m *ArchiveMetrics) ExtractionObserved(elapsed time.Duration) {
	m.extractionDuration.Observe(elapsed.Seconds())
}
