package controller

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "joggr_client"
)

var (
	requestsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "requests",
		Name:      "dispatched_total",
		Help:      "Count of API requests dispatched, by trigger",
	}, []string{"trigger"})
	requestDurations = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Subsystem: "requests",
		Name:      "duration_seconds",
		Help:      "Time from dispatch until the response (or failure) arrived",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	})

	// outcome is one of rendered, stale, failed, malformed.
	responsesHandled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "responses",
		Name:      "handled_total",
		Help:      "Count of responses handled, by outcome",
	}, []string{"outcome"})

	datePickersAttached = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "render",
		Name:      "datepickers_attached_total",
		Help:      "Count of date inputs enhanced with a date picker",
	})
	alertsShown = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Subsystem: "render",
		Name:      "alerts_total",
		Help:      "Count of blocking alerts shown for application errors and messages",
	})
)
