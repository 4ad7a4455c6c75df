package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	buildTotal    *prometheus.CounterVec
	buildDuration *prometheus.HistogramVec
	buildInFlight prometheus.Gauge
	corpusJobs    prometheus.Gauge
	droppedJobs   prometheus.Gauge
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	buildTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "jm",
			Subsystem: "worker",
			Name:      "index_build_total",
			Help:      "Total index rebuilds by status.",
		},
		[]string{"service", "status"},
	)
	buildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "jm",
			Subsystem: "worker",
			Name:      "index_build_duration_seconds",
			Help:      "Index rebuild duration in seconds by status.",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"service", "status"},
	)
	buildInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jm",
			Subsystem: "worker",
			Name:      "index_build_in_flight",
			Help:      "Number of in-flight index rebuilds.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	corpusJobs := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jm",
			Subsystem: "worker",
			Name:      "corpus_jobs",
			Help:      "Number of postings in the last successfully built corpus.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	droppedJobs := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "jm",
			Subsystem: "worker",
			Name:      "corpus_dropped_jobs",
			Help:      "Postings excluded at load time for missing title or description.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(buildTotal, buildDuration, buildInFlight, corpusJobs, droppedJobs)

	return &WorkerMetrics{
		registry:      registry,
		buildTotal:    buildTotal,
		buildDuration: buildDuration,
		buildInFlight: buildInFlight,
		corpusJobs:    corpusJobs,
		droppedJobs:   droppedJobs,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartBuild() {
	m.buildInFlight.Inc()
}

func (m *WorkerMetrics) FinishBuild(service string, duration time.Duration, err error) {
	m.buildInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.buildTotal.WithLabelValues(service, status).Inc()
	m.buildDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) SetCorpusSize(jobs, dropped int) {
	m.corpusJobs.Set(float64(jobs))
	m.droppedJobs.Set(float64(dropped))
}
