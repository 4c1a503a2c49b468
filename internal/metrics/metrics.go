// Package metrics exposes prometheus counters for the ingestion
// pipeline and notification dispatch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the pipeline counters and their registry
type Metrics struct {
	Registry *prometheus.Registry

	FilesProcessed  *prometheus.CounterVec
	RowsCleaned     prometheus.Counter
	ChartsRendered  *prometheus.CounterVec
	GradesPersisted prometheus.Counter
	Notifications   *prometheus.CounterVec
}

// New creates a metrics set with its own registry
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		FilesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradepulse_files_processed_total",
			Help: "Grade files ingested, by result.",
		}, []string{"result"}),
		RowsCleaned: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradepulse_rows_cleaned_total",
			Help: "Grade rows surviving cleaning.",
		}),
		ChartsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradepulse_charts_rendered_total",
			Help: "Chart render attempts, by result.",
		}, []string{"result"}),
		GradesPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gradepulse_grades_persisted_total",
			Help: "Grade records written to the store.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gradepulse_notifications_total",
			Help: "Notification deliveries, by terminal state.",
		}, []string{"state"}),
	}

	m.Registry.MustRegister(
		m.FilesProcessed,
		m.RowsCleaned,
		m.ChartsRendered,
		m.GradesPersisted,
		m.Notifications,
		collectors.NewGoCollector(),
	)

	return m
}
