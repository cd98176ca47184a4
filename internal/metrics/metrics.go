// Package metrics exposes Prometheus counters for packet store activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	StatusOK      = "ok"
	StatusMissing = "missing"
	StatusError   = "error"
)

var (
	// OperationsTotal counts store operations (put, get, del, stream_page) by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packetstore_operations_total",
			Help: "Total number of packet store operations",
		},
		[]string{"store", "operation", "status"},
	)
	// CompactionsTotal counts datafile compactions, manual and periodic.
	CompactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "packetstore_compactions_total",
			Help: "Total number of datafile compactions",
		},
		[]string{"store", "status"},
	)
)

// ObserveOperation records one operation against store with the status
// derived from err. missing reports whether err is the store's "not found"
// error.
func ObserveOperation(store, operation string, err error, missing bool) {
	OperationsTotal.WithLabelValues(store, operation, status(err, missing)).Inc()
}

func ObserveCompaction(store string, err error) {
	CompactionsTotal.WithLabelValues(store, status(err, false)).Inc()
}

func status(err error, missing bool) string {
	switch {
	case err == nil:
		return StatusOK
	case missing:
		return StatusMissing
	default:
		return StatusError
	}
}
