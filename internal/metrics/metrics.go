// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP

var HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "Total HTTP requests by method, route and status.",
}, []string{"method", "path", "status"})

var HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "pos",
	Subsystem: "http",
	Name:      "request_duration_seconds",
	Help:      "HTTP request latency.",
	Buckets:   prometheus.DefBuckets,
}, []string{"method", "path"})

// Ledger

var LedgerPostings = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "ledger",
	Name:      "postings_total",
	Help:      "Ledger posting attempts by source kind and result.",
}, []string{"source", "result"})

var LedgerBalanceDrift = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "ledger",
	Name:      "balance_drift_total",
	Help:      "Wallets found with a cached balance different from the sum of entries.",
})

// Receipts

var ReceiptTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "receipts",
	Name:      "transitions_total",
	Help:      "Receipt lifecycle transitions by target status and channel.",
}, []string{"status", "source"})

// Sweep

var SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "sweep",
	Name:      "runs_total",
	Help:      "Reconciliation sweeps started.",
})

var SweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "pos",
	Subsystem: "sweep",
	Name:      "duration_seconds",
	Help:      "Wall time of a full reconciliation sweep.",
	Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
})

var SweepCostsOverdue = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "sweep",
	Name:      "costs_overdue_total",
	Help:      "Costs moved to overdue by the sweep.",
})

var OccurrencesGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "recurrence",
	Name:      "occurrences_generated_total",
	Help:      "Occurrences materialized from recurring roots.",
}, []string{"kind"})

var SweepFailures = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "pos",
	Subsystem: "sweep",
	Name:      "entity_failures_total",
	Help:      "Per-entity failures collected during a sweep.",
}, []string{"kind"})
