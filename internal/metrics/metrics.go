// Package metrics holds the prometheus collectors of the ledger service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Collectors groups the service metrics so tests can register them on a private registry.
type Collectors struct {
	LedgerWrites         *prometheus.CounterVec
	LocationChecks       *prometheus.CounterVec
	ReportRows           prometheus.Histogram
	QueuePublishFailures prometheus.Counter
	BoardUpdates         *prometheus.CounterVec
}

// New creates the collectors and registers them on reg when it is non-nil.
func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		LedgerWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffledger",
			Name:      "ledger_writes_total",
			Help:      "Ledger write attempts by ledger and outcome code.",
		}, []string{"ledger", "outcome"}),
		LocationChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffledger",
			Name:      "location_checks_total",
			Help:      "Geofence checks by result.",
		}, []string{"result"}),
		ReportRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "staffledger",
			Name:      "report_rows",
			Help:      "Rows produced per report export.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
		QueuePublishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "staffledger",
			Name:      "queue_publish_failures_total",
			Help:      "Ledger notifications that could not be published.",
		}),
		BoardUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "staffledger",
			Name:      "board_updates_total",
			Help:      "Presence board updates applied by the worker.",
		}, []string{"type", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(c.LedgerWrites, c.LocationChecks, c.ReportRows, c.QueuePublishFailures, c.BoardUpdates)
	}
	return c
}

// Outcome turns an error code into a label, "ok" for success.
func Outcome(code string) string {
	if code == "" {
		return "ok"
	}
	return code
}
