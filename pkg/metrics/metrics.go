package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the engine
type Metrics struct {
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	ActiveExecutions  prometheus.Gauge

	NodeExecutionsTotal *prometheus.CounterVec
	NodeDuration        *prometheus.HistogramVec

	IntegrationCallsTotal *prometheus.CounterVec
	AIRequestsTotal       *prometheus.CounterVec

	HTTPRequestsTotal *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ExecutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_executions_total",
				Help: "Total number of workflow executions by terminal status",
			},
			[]string{"status"},
		),
		ExecutionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_execution_duration_seconds",
				Help:    "Duration of workflow executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		ActiveExecutions: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "workflow_active_executions",
				Help: "Number of currently running workflow executions",
			},
		),
		NodeExecutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "workflow_node_executions_total",
				Help: "Total number of node executions by kind",
			},
			[]string{"kind"},
		),
		NodeDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "workflow_node_duration_seconds",
				Help:    "Duration of individual node executions",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		IntegrationCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "integration_calls_total",
				Help: "Total number of integration dispatcher calls",
			},
			[]string{"integration", "status"},
		),
		AIRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ai_requests_total",
				Help: "Total number of AI provider requests",
			},
			[]string{"provider", "status"},
		),
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}
