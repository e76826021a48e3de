package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PurchasesPublishedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchases_published_total",
		Help: "Total number of purchase events accepted by the broker",
	})

	PurchasePublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_publish_failures_total",
		Help: "Total number of failed purchase event publishes",
	}, []string{"reason"})

	PublishLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_publish_latency_seconds",
		Help:    "Latency of broker publishes",
		Buckets: prometheus.DefBuckets,
	})

	EventsConsumedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_events_consumed_total",
		Help: "Total number of messages fetched from the purchases topic",
	})

	EventsPersistedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_events_persisted_total",
		Help: "Total number of purchase events persisted for the first time",
	})

	DuplicateEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_duplicate_events_total",
		Help: "Total number of redelivered events resolved to an existing record",
	})

	DecodeFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_decode_failures_total",
		Help: "Total number of malformed messages skipped by the consumer",
	})

	PersistFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_persist_failures_total",
		Help: "Total number of events skipped because the store was unreachable",
	})

	PersistLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_persist_latency_seconds",
		Help:    "Latency of idempotent store writes",
		Buckets: prometheus.DefBuckets,
	})

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
