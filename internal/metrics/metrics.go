package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the contribution and payment pipelines, exposed on
// /metrics alongside the default process collectors.
var (
	ObligationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clanledger_obligations_created_total",
		Help: "Obligations materialized by contribution fan-outs.",
	})

	ObligationsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clanledger_obligations_skipped_total",
		Help: "Fan-out rows skipped as duplicates.",
	})

	PaymentsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clanledger_payments_recorded_total",
		Help: "Payments recorded, by method.",
	}, []string{"method"})

	GatewayCallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clanledger_gateway_callbacks_total",
		Help: "Gateway webhook callbacks, by outcome.",
	}, []string{"outcome"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clanledger_http_requests_total",
		Help: "HTTP requests, by method and status class.",
	}, []string{"method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "clanledger_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method"})
)
