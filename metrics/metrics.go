// Package metrics holds the Prometheus collectors for the borrowing
// lifecycle and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	BorrowsStarted  prometheus.Counter
	BorrowsReturned prometheus.Counter
	// Outcome label: conflict, not_found, validation, error.
	LifecycleRejected *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BorrowsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "borrows_started_total",
			Help:      "Borrowing records opened.",
		}),
		BorrowsReturned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "borrows_returned_total",
			Help:      "Borrowing records closed by a return.",
		}),
		LifecycleRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "lifecycle_rejected_total",
			Help:      "Borrow and return requests that were refused.",
		}, []string{"operation", "outcome"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inventory",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "inventory",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.BorrowsStarted, m.BorrowsReturned, m.LifecycleRejected, m.HTTPRequests, m.HTTPDuration)
	return m
}
