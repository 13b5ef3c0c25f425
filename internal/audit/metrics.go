package audit

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters maintained by the Writer.
type Metrics struct {
	RecordsWritten *prometheus.CounterVec
	WriteFailures  *prometheus.CounterVec
	RecordsSkipped *prometheus.CounterVec
}

// NewMetrics creates and registers the audit metrics with reg. The counters
// only move in the process that owns the Writer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RecordsWritten: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "entityaudit_records_written_total",
			Help: "Total number of audit records written by this process, by action and outcome",
		}, []string{"action", "success"}),
		WriteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "entityaudit_audit_write_failures_total",
			Help: "Total number of audit records this process could not write",
		}, []string{"action"}),
		RecordsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "entityaudit_records_skipped_total",
			Help: "Total number of audited operations that wrote no record because nothing changed",
		}, []string{"action"}),
	}
}

func (m *Metrics) written(action string, success bool) {
	if m == nil {
		return
	}
	m.RecordsWritten.WithLabelValues(action, strconv.FormatBool(success)).Inc()
}

func (m *Metrics) failed(action string) {
	if m == nil {
		return
	}
	m.WriteFailures.WithLabelValues(action).Inc()
}

func (m *Metrics) skipped(action string) {
	if m == nil {
		return
	}
	m.RecordsSkipped.WithLabelValues(action).Inc()
}
