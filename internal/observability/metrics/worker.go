package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	processTotal     *prometheus.CounterVec
	processDuration  *prometheus.HistogramVec
	processInFlight  prometheus.Gauge
	queueLag         *prometheus.HistogramVec
	storesExtracted  *prometheus.HistogramVec
	summariesUpsert  *prometheus.CounterVec
	resyncRunsTotal  *prometheus.CounterVec
	resyncDocuments  *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight document processing tasks.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	queueLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "queue_lag_seconds",
			Help:      "Delay between document confirmation and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)
	storesExtracted := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "stores_extracted",
			Help:      "Distribution of store columns extracted per document.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
		[]string{"service"},
	)
	summariesUpsert := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "summaries_upserted_total",
			Help:      "Total monthly summary rows written.",
		},
		[]string{"service"},
	)
	resyncRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "resync_runs_total",
			Help:      "Total vault resync runs by status.",
		},
		[]string{"service", "status"},
	)
	resyncDocuments := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ciclops",
			Subsystem: "worker",
			Name:      "resync_documents",
			Help:      "Distribution of documents reprocessed per resync run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100, 200},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		processTotal,
		processDuration,
		processInFlight,
		queueLag,
		storesExtracted,
		summariesUpsert,
		resyncRunsTotal,
		resyncDocuments,
	)

	return &WorkerMetrics{
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		queueLag:        queueLag,
		storesExtracted: storesExtracted,
		summariesUpsert: summariesUpsert,
		resyncRunsTotal: resyncRunsTotal,
		resyncDocuments: resyncDocuments,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *WorkerMetrics) FinishDocument(service string, duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(service, status).Inc()
	m.processDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveQueueLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.queueLag.WithLabelValues(service).Observe(lag.Seconds())
}

func (m *WorkerMetrics) ObserveStoresExtracted(service string, stores int) {
	m.storesExtracted.WithLabelValues(service).Observe(float64(stores))
}

func (m *WorkerMetrics) AddSummariesUpserted(service string, count int) {
	if count <= 0 {
		return
	}
	m.summariesUpsert.WithLabelValues(service).Add(float64(count))
}

func (m *WorkerMetrics) FinishResync(service string, documents int, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.resyncRunsTotal.WithLabelValues(service, status).Inc()
	if err == nil {
		m.resyncDocuments.WithLabelValues(service).Observe(float64(documents))
	}
}
