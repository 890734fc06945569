package unload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "unloadpipe"

var (
	recordsYieldedCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "records_yielded_total",
		Help:      "Total number of records yielded to consumers.",
	})

	recordBytesCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "record_bytes_total",
		Help:      "Total raw record bytes yielded to consumers, excluding terminators.",
	})

	unloadFailuresCounter = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "unload_failures_total",
		Help:      "Total number of unload statements that failed.",
	})

	activeStreamsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "active_streams",
		Help:      "Number of unload streams currently open.",
	})
)
