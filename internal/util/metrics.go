package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PaymentsInitiatedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_initiated_total",
		Help: "Total number of successfully initiated payments",
	}, []string{"gateway"})

	PaymentsFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "payments_failed_total",
		Help: "Total number of failed payment initiations",
	}, []string{"reason"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Total number of webhook events applied",
	}, []string{"gateway", "status"})

	WebhookSignatureFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_signature_failures_total",
		Help: "Total number of webhook callbacks rejected for a bad signature",
	}, []string{"gateway"})

	OrderRollbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "order_rollbacks_total",
		Help: "Total number of compensating order rollbacks",
	}, []string{"outcome"})

	GatewayCreateLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gateway_create_latency_seconds",
		Help:    "Latency of gateway payment-creation calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"gateway"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
