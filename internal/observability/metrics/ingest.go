package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type IngestMetrics struct {
	registry *prometheus.Registry

	filesTotal    *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	filesInFlight prometheus.Gauge
	chunksTotal   prometheus.Counter
	refsTotal     prometheus.Counter
}

func NewIngestMetrics(service string) *IngestMetrics {
	registry := prometheus.NewRegistry()

	filesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bldr",
			Subsystem: "ingest",
			Name:      "files_total",
			Help:      "Total processed files by terminal status.",
		},
		[]string{"service", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "bldr",
			Subsystem: "ingest",
			Name:      "stage_duration_seconds",
			Help:      "Per-stage processing duration in seconds.",
			Buckets:   []float64{0.05, 0.2, 0.5, 1, 2, 5, 10, 30, 60, 180, 600},
		},
		[]string{"service", "stage"},
	)
	filesInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "bldr",
			Subsystem: "ingest",
			Name:      "files_in_flight",
			Help:      "Number of files currently in the pipeline.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	chunksTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bldr",
			Subsystem: "ingest",
			Name:      "chunks_total",
			Help:      "Total chunks produced.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	refsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "bldr",
			Subsystem: "ingest",
			Name:      "ntd_references_total",
			Help:      "Total normative references detected.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(filesTotal, stageDuration, filesInFlight, chunksTotal, refsTotal)

	return &IngestMetrics{
		registry:      registry,
		filesTotal:    filesTotal,
		stageDuration: stageDuration,
		filesInFlight: filesInFlight,
		chunksTotal:   chunksTotal,
		refsTotal:     refsTotal,
	}
}

func (m *IngestMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *IngestMetrics) StartFile() {
	m.filesInFlight.Inc()
}

func (m *IngestMetrics) FinishFile(service, status string) {
	m.filesInFlight.Dec()
	m.filesTotal.WithLabelValues(service, status).Inc()
}

func (m *IngestMetrics) ObserveStage(service, stage string, duration time.Duration) {
	m.stageDuration.WithLabelValues(service, stage).Observe(duration.Seconds())
}

func (m *IngestMetrics) AddChunks(n int) {
	m.chunksTotal.Add(float64(n))
}

func (m *IngestMetrics) AddReferences(n int) {
	m.refsTotal.Add(float64(n))
}
