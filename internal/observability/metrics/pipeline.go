package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type PipelineMetrics struct {
	service  string
	registry *prometheus.Registry

	processTotal    *prometheus.CounterVec
	processDuration *prometheus.HistogramVec
	processInFlight prometheus.Gauge
	batchesActive   prometheus.Gauge
	batchDocuments  *prometheus.CounterVec
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	processTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expensedocs",
			Subsystem: "pipeline",
			Name:      "document_process_total",
			Help:      "Total processed documents by status.",
		},
		[]string{"service", "status"},
	)
	processDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "expensedocs",
			Subsystem: "pipeline",
			Name:      "document_process_duration_seconds",
			Help:      "Document processing duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	processInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "expensedocs",
			Subsystem: "pipeline",
			Name:      "document_process_in_flight",
			Help:      "Number of in-flight pipeline runs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchesActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "expensedocs",
			Subsystem: "pipeline",
			Name:      "batches_active",
			Help:      "Number of batch jobs currently fanning out.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	batchDocuments := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "expensedocs",
			Subsystem: "pipeline",
			Name:      "batch_documents_total",
			Help:      "Documents settled by batch jobs, by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(processTotal, processDuration, processInFlight, batchesActive, batchDocuments)

	return &PipelineMetrics{
		service:         service,
		registry:        registry,
		processTotal:    processTotal,
		processDuration: processDuration,
		processInFlight: processInFlight,
		batchesActive:   batchesActive,
		batchDocuments:  batchDocuments,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.processInFlight.Inc()
}

func (m *PipelineMetrics) FinishDocument(duration time.Duration, err error) {
	m.processInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.processTotal.WithLabelValues(m.service, status).Inc()
	m.processDuration.WithLabelValues(m.service, status).Observe(duration.Seconds())
}

func (m *PipelineMetrics) BatchStarted() {
	m.batchesActive.Inc()
}

func (m *PipelineMetrics) BatchFinished() {
	m.batchesActive.Dec()
}

func (m *PipelineMetrics) BatchDocumentSettled(failed bool) {
	outcome := "processed"
	if failed {
		outcome = "failed"
	}
	m.batchDocuments.WithLabelValues(m.service, outcome).Inc()
}
